package api

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/renovo/internal/session"
	"github.com/kalambet/renovo/internal/view"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Session *session.Session
}

// NewMCPServer creates an MCP server with all renovation tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"renovo",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("renovo is an AI renovation planner: analyze home photos, visualize renovations, track project budgets, and generate an inspiration feed."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("analyze_photo",
			mcp.WithDescription("Upload a home photo and start an AI analysis producing renovation suggestions with cost and ROI estimates."),
			mcp.WithString("path", mcp.Description("Path to the image file (PNG, JPEG, WEBP)"), mcp.Required()),
			mcp.WithString("zip_code", mcp.Description("Optional ZIP code for locale-aware estimates")),
		),
		mcpAnalyzePhoto(deps),
	)

	s.AddTool(
		mcp.NewTool("visualize",
			mcp.WithDescription("Generate a photorealistic 'after' image for a renovation suggestion."),
			mcp.WithString("suggestion_id", mcp.Description("Id of the suggestion to visualize"), mcp.Required()),
		),
		mcpVisualize(deps),
	)

	s.AddTool(
		mcp.NewTool("save_project",
			mcp.WithDescription("Save a renovation suggestion into the project portfolio."),
			mcp.WithString("suggestion_id", mcp.Description("Id of the suggestion to save"), mcp.Required()),
		),
		mcpSaveProject(deps),
	)

	s.AddTool(
		mcp.NewTool("remove_project",
			mcp.WithDescription("Remove a saved project from the portfolio."),
			mcp.WithString("suggestion_id", mcp.Description("Id of the project to remove"), mcp.Required()),
		),
		mcpRemoveProject(deps),
	)

	s.AddTool(
		mcp.NewTool("ingest_receipt",
			mcp.WithDescription("Extract the total cost from a receipt or contractor bid and attach it to the matching project."),
			mcp.WithString("path", mcp.Description("Path to the receipt image or PDF"), mcp.Required()),
		),
		mcpIngestReceipt(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_plan",
			mcp.WithDescription("Sequence the saved projects into a phased execution timeline."),
		),
		mcpGeneratePlan(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_feed",
			mcp.WithDescription("Generate the inspiration feed from the uploaded photos. One-shot per session; reset to regenerate."),
		),
		mcpGenerateFeed(deps),
	)

	s.AddTool(
		mcp.NewTool("upload_reference_video",
			mcp.WithDescription("Extract a design style from a reference video to steer feed generation."),
			mcp.WithString("path", mcp.Description("Path to the video file (MP4, QuickTime)"), mcp.Required()),
		),
		mcpReferenceVideo(deps),
	)

	s.AddTool(
		mcp.NewTool("shop",
			mcp.WithDescription("Search for real products matching a renovation, with source links."),
			mcp.WithString("query", mcp.Description("What to shop for, e.g. 'matte black house numbers'"), mcp.Required()),
		),
		mcpShop(deps),
	)

	s.AddTool(
		mcp.NewTool("reset_session",
			mcp.WithDescription("Discard all analyses, projects, and feed state."),
		),
		mcpReset(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"renovo://state",
			"Session State",
			mcp.WithResourceDescription("Full session state as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceState(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"renovo://planner",
			"Planner View",
			mcp.WithResourceDescription("Analysis cards with ROI grades"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourcePlanner(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"renovo://projects",
			"Project Dashboard",
			mcp.WithResourceDescription("Saved projects with aggregate totals"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProjects(deps),
	)

	return s
}

func mcpAnalyzePhoto(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}
		zip := req.GetString("zip_code", "")

		data, err := os.ReadFile(path)
		if err != nil {
			return mcpError(fmt.Sprintf("reading file: %v", err)), nil
		}
		id, err := deps.Session.UploadImage(data, mime.TypeByExtension(filepath.Ext(path)), zip)
		if err != nil {
			return mcpError(fmt.Sprintf("upload failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Analysis %s started; read renovo://planner for results.", id)), nil
	}
}

func mcpVisualize(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("suggestion_id")
		if err != nil {
			return mcpError("suggestion_id is required"), nil
		}
		if err := deps.Session.Visualize(id); err != nil {
			return mcpError(fmt.Sprintf("visualize failed: %v", err)), nil
		}
		return mcpText("Visualization started; read renovo://state for the result."), nil
	}
}

func mcpSaveProject(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("suggestion_id")
		if err != nil {
			return mcpError("suggestion_id is required"), nil
		}
		if err := deps.Session.SaveProject(id); err != nil {
			return mcpError(fmt.Sprintf("save failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Saved project %s", id)), nil
	}
}

func mcpRemoveProject(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("suggestion_id")
		if err != nil {
			return mcpError("suggestion_id is required"), nil
		}
		if err := deps.Session.RemoveProject(id); err != nil {
			return mcpError(fmt.Sprintf("remove failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Removed project %s", id)), nil
	}
}

func mcpIngestReceipt(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return mcpError(fmt.Sprintf("reading file: %v", err)), nil
		}
		msg, err := deps.Session.UploadDocument(data, mime.TypeByExtension(filepath.Ext(path)))
		if err != nil {
			return mcpError(fmt.Sprintf("ingestion failed: %v", err)), nil
		}
		return mcpText(msg), nil
	}
}

func mcpGeneratePlan(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		plan, err := deps.Session.GeneratePlan()
		if err != nil {
			return mcpError(fmt.Sprintf("plan generation failed: %v", err)), nil
		}
		b, err := json.Marshal(plan)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal plan: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGenerateFeed(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.Session.GenerateFeed(); err != nil {
			return mcpError(fmt.Sprintf("feed generation failed: %v", err)), nil
		}
		return mcpText("Feed generation started; read renovo://state for progress."), nil
	}
}

func mcpReferenceVideo(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}
		style, err := deps.Session.UploadReferenceVideo(path)
		if err != nil {
			return mcpError(fmt.Sprintf("style extraction failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Extracted style: %s", style)), nil
	}
}

func mcpShop(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}
		result, err := deps.Session.SearchProducts(query)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpReset(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		deps.Session.Reset()
		return mcpText("Session reset."), nil
	}
}

func mcpResourceState(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Session.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal state: %w", err)
		}
		return jsonResource(req.Params.URI, b), nil
	}
}

func mcpResourcePlanner(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(view.AnalysisCards(deps.Session.Snapshot()))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal planner view: %w", err)
		}
		return jsonResource(req.Params.URI, b), nil
	}
}

func mcpResourceProjects(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		cards, totals := view.Dashboard(deps.Session.Snapshot())
		b, err := json.Marshal(map[string]any{
			"projects": cards,
			"totals":   totals,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal projects view: %w", err)
		}
		return jsonResource(req.Params.URI, b), nil
	}
}

func jsonResource(uri string, body []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
