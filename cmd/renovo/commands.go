package main

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/renovo/internal/config"
)

var analyzeZip string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <photo>",
	Short: "Upload a room photo for renovation analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading photo: %w", err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(args[0]))

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/images", map[string]string{
			"content":  base64.StdEncoding.EncodeToString(data),
			"mimeType": mimeType,
			"zipCode":  analyzeZip,
		})
		if err != nil {
			return err
		}
		var result struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Analysis started for %s (id %s)", filepath.Base(args[0]), result.ID)
		printStep("run 'renovo state' to watch for results")
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Dump the full session state as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/state")
		if err != nil {
			return err
		}
		var state map[string]any
		if err := decodeJSON(resp, &state); err != nil {
			return err
		}
		return printJSON(state)
	},
}

var visualizeCmd = &cobra.Command{
	Use:   "visualize <suggestion-id>",
	Short: "Render a suggestion onto its source photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/suggestions/"+args[0]+"/visualize", nil)
		if err != nil {
			return err
		}
		var result struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Visualization %s", result.Status)
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage saved renovation projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listProjects(cmd)
	},
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show saved projects with budget totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listProjects(cmd)
	},
}

var projectsSaveCmd = &cobra.Command{
	Use:   "save <suggestion-id>",
	Short: "Save a suggestion as a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/projects", map[string]string{
			"suggestionId": args[0],
		})
		if err != nil {
			return err
		}
		var result struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Project saved")
		return nil
	},
}

var projectsRemoveCmd = &cobra.Command{
	Use:   "remove <project-id>",
	Short: "Remove a saved project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/v1/projects/"+args[0])
		if err != nil {
			return err
		}
		var result struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Project removed")
		return nil
	},
}

func listProjects(cmd *cobra.Command) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	resp, err := client.get(cmd.Context(), "/v1/views/projects")
	if err != nil {
		return err
	}
	var dashboard struct {
		Projects []struct {
			ID         string  `json:"id"`
			Name       string  `json:"name"`
			AvgCost    float64 `json:"avgCost"`
			ActualCost float64 `json:"actualCost"`
			ValueAdd   float64 `json:"valueAdd"`
			Grade      struct {
				Letter string `json:"letter"`
				Label  string `json:"label"`
			} `json:"grade"`
		} `json:"projects"`
		Totals struct {
			EstimatedCost float64 `json:"estimatedCost"`
			ActualCost    float64 `json:"actualCost"`
			ValueAdd      float64 `json:"valueAdd"`
			NetProfit     float64 `json:"netProfit"`
		} `json:"totals"`
	}
	if err := decodeJSON(resp, &dashboard); err != nil {
		return err
	}

	if len(dashboard.Projects) == 0 {
		printStep("no saved projects; run 'renovo analyze' and 'renovo projects save'")
		return nil
	}
	for _, p := range dashboard.Projects {
		grade := fmt.Sprintf("[%s %s]", p.Grade.Letter, p.Grade.Label)
		fmt.Printf("%s %s  %s\n", colorize(colorBold, p.Name), colorize(colorGreen, grade), colorize(colorCyan, p.ID))
		fmt.Printf("    est $%.0f  spent $%.0f  value +$%.0f\n", p.AvgCost, p.ActualCost, p.ValueAdd)
	}
	fmt.Println()
	printStatus("Estimated", "$%.0f", dashboard.Totals.EstimatedCost)
	printStatus("Spent", "$%.0f", dashboard.Totals.ActualCost)
	printStatus("Value add", "$%.0f", dashboard.Totals.ValueAdd)
	printStatus("Net profit", "$%.0f", dashboard.Totals.NetProfit)
	return nil
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a phased renovation plan for saved projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		printStep("generating plan...")
		resp, err := client.post(cmd.Context(), "/v1/plan", nil)
		if err != nil {
			return err
		}
		var plan map[string]any
		if err := decodeJSON(resp, &plan); err != nil {
			return err
		}
		return printJSON(plan)
	},
}

var receiptCmd = &cobra.Command{
	Use:   "receipt <file>",
	Short: "Ingest a receipt or quote and track its cost",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(args[0]))

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		printStep("extracting expense from %s...", filepath.Base(args[0]))
		resp, err := client.post(cmd.Context(), "/v1/documents", map[string]string{
			"content":  base64.StdEncoding.EncodeToString(data),
			"mimeType": mimeType,
		})
		if err != nil {
			return err
		}
		var result struct {
			Message string `json:"message"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("%s", result.Message)
		return nil
	},
}

var feedReferenceVideo string

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Generate the inspiration feed from analyzed photos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if feedReferenceVideo != "" {
			data, err := os.ReadFile(feedReferenceVideo)
			if err != nil {
				return fmt.Errorf("reading reference video: %w", err)
			}
			printStep("extracting style from %s...", filepath.Base(feedReferenceVideo))
			resp, err := client.post(cmd.Context(), "/v1/reference-video", map[string]string{
				"content":  base64.StdEncoding.EncodeToString(data),
				"mimeType": "video/mp4",
			})
			if err != nil {
				return err
			}
			var style struct {
				Style string `json:"style"`
			}
			if err := decodeJSON(resp, &style); err != nil {
				return err
			}
			printSuccess("Style extracted: %s", style.Style)
		}

		resp, err := client.post(cmd.Context(), "/v1/feed", nil)
		if err != nil {
			return err
		}
		var result struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Feed generation started")
		printStep("run 'renovo feed show' to watch items complete")
		return nil
	},
}

var feedShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current feed contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/views/feed")
		if err != nil {
			return err
		}
		var feed map[string]any
		if err := decodeJSON(resp, &feed); err != nil {
			return err
		}
		return printJSON(feed)
	},
}

var shopCmd = &cobra.Command{
	Use:   "shop <query>",
	Short: "Search for products with local availability",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		printStep("searching for %q...", query)
		resp, err := client.post(cmd.Context(), "/v1/shop", map[string]string{
			"query": query,
		})
		if err != nil {
			return err
		}
		var result map[string]any
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		return printJSON(result)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the session and start over",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/reset", nil)
		if err != nil {
			return err
		}
		var result struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Session reset")
		return nil
	},
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the Gemini API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Store the Gemini API key in the platform secret store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetAPIKey(args[0]); err != nil {
			return fmt.Errorf("storing API key: %w", err)
		}
		printSuccess("API key stored")
		printStep("restart the server to pick it up")
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a Gemini API key is configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Gemini.APIKey != "" {
			printStatus("Gemini key", "configured")
		} else {
			printStatus("Gemini key", "missing; run 'renovo key set' or set RENOVO_GEMINI_API_KEY")
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change renovo configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, info := range config.ShowAll(cfg) {
			printStatus(info.Key, "%s (env %s)", info.Value, info.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("%s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeZip, "zip", "", "zip code for local cost estimates")
	feedCmd.Flags().StringVar(&feedReferenceVideo, "reference-video", "", "video file whose style the feed should follow")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsSaveCmd)
	projectsCmd.AddCommand(projectsRemoveCmd)
	feedCmd.AddCommand(feedShowCmd)
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyStatusCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
