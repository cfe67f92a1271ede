package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/renovo/internal/gemini"
)

// Feed item content kinds.
const (
	FeedTypeImage = "image"
	FeedTypeVideo = "video"
)

// FeedItemDraft is one planned feed post before the session assigns it an id.
type FeedItemDraft struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
}

// FeedPlan is the generated moodboard plan: themes, a style summary, and the
// ordered initial feed. The image/video mix is whatever the model decides.
type FeedPlan struct {
	Themes       []string        `json:"themes"`
	StyleSummary string          `json:"styleSummary"`
	InitialFeed  []FeedItemDraft `json:"initialFeed"`
}

// ExtractVideoStyle distills a comma-separated style keyword string from a
// single video frame.
func (g *Gateway) ExtractVideoStyle(ctx context.Context, frameBase64 string) (string, error) {
	result, err := g.provider.GenerateContent(ctx, gemini.GenerateRequest{
		Model: fastModel,
		Parts: []gemini.Part{
			gemini.ImagePart("image/jpeg", frameBase64),
			gemini.TextPart(stylePrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("extracting video style: %w", err)
	}
	style := strings.TrimSpace(result.Text)
	if style == "" {
		return "", fmt.Errorf("%w: empty style description", ErrModelOutput)
	}
	return style, nil
}

// GenerateFeedPlan analyzes the uploaded home images (plus an optional style
// hint) into an inspiration feed plan. Drafts with an empty prompt are dropped;
// unknown types are folded into image.
func (g *Gateway) GenerateFeedPlan(ctx context.Context, imagesBase64 []string, styleHint string) (FeedPlan, error) {
	parts := make([]gemini.Part, 0, len(imagesBase64)+1)
	for _, img := range imagesBase64 {
		parts = append(parts, gemini.ImagePart("image/jpeg", img))
	}
	parts = append(parts, gemini.TextPart(feedPrompt(styleHint)))

	result, err := g.provider.GenerateContent(ctx, gemini.GenerateRequest{
		Model:          fastModel,
		Parts:          parts,
		ResponseSchema: feedSchema(),
	})
	if err != nil {
		return FeedPlan{}, fmt.Errorf("requesting feed plan: %w", err)
	}

	var plan FeedPlan
	if err := json.Unmarshal([]byte(result.Text), &plan); err != nil {
		return FeedPlan{}, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}

	cleaned := make([]FeedItemDraft, 0, len(plan.InitialFeed))
	for _, item := range plan.InitialFeed {
		if item.Prompt == "" {
			slog.Warn("discarding feed draft without a prompt")
			continue
		}
		if item.Type != FeedTypeImage && item.Type != FeedTypeVideo {
			item.Type = FeedTypeImage
		}
		cleaned = append(cleaned, item)
	}
	plan.InitialFeed = cleaned

	if len(plan.InitialFeed) == 0 {
		return FeedPlan{}, fmt.Errorf("%w: feed plan has no items", ErrModelOutput)
	}
	return plan, nil
}

func feedSchema() *gemini.Schema {
	return &gemini.Schema{
		Type: "object",
		Properties: map[string]*gemini.Schema{
			"themes":       {Type: "array", Items: &gemini.Schema{Type: "string"}},
			"styleSummary": {Type: "string"},
			"initialFeed": {
				Type: "array",
				Items: &gemini.Schema{
					Type: "object",
					Properties: map[string]*gemini.Schema{
						"type":   {Type: "string"},
						"prompt": {Type: "string"},
					},
					Required: []string{"type", "prompt"},
				},
			},
		},
		Required: []string{"themes", "styleSummary", "initialFeed"},
	}
}
