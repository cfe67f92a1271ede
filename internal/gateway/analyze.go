package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/renovo/internal/gemini"
)

// Categories a suggestion may carry. Unknown model output is folded into General.
const (
	CategoryCurbAppeal = "Curb Appeal"
	CategoryKitchen    = "Kitchen"
	CategoryBathroom   = "Bathroom"
	CategoryInterior   = "Interior"
	CategoryOutdoor    = "Outdoor"
	CategoryGeneral    = "General"
)

var knownCategories = []string{
	CategoryCurbAppeal, CategoryKitchen, CategoryBathroom,
	CategoryInterior, CategoryOutdoor, CategoryGeneral,
}

// SuggestionDraft is one renovation suggestion as returned by the model,
// before the session assigns it a stable id.
type SuggestionDraft struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	AvgCost     float64 `json:"avgCost"`
	ROI         float64 `json:"roi"`
	Category    string  `json:"category"`
	Rationale   string  `json:"rationale"`
}

// AnalyzeSuggestions asks for 3-5 renovation projects for the pictured home.
// Items that come back without required fields are discarded, never propagated.
func (g *Gateway) AnalyzeSuggestions(ctx context.Context, imageBase64, zipCode string) ([]SuggestionDraft, error) {
	result, err := g.provider.GenerateContent(ctx, gemini.GenerateRequest{
		Model: reasoningModel,
		Parts: []gemini.Part{
			gemini.ImagePart("image/jpeg", imageBase64),
			gemini.TextPart(suggestionsPrompt(zipCode)),
		},
		ResponseSchema: suggestionsSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("requesting suggestions: %w", err)
	}

	var parsed struct {
		Suggestions []SuggestionDraft `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(result.Text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}

	drafts := make([]SuggestionDraft, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		if s.Name == "" || s.Description == "" || s.AvgCost < 0 || s.ROI < 0 {
			slog.Warn("discarding malformed suggestion", "name", s.Name)
			continue
		}
		s.Category = normalizeCategory(s.Category)
		drafts = append(drafts, s)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: no usable suggestions", ErrModelOutput)
	}
	return drafts, nil
}

// Summarize returns a 2-3 sentence strategic summary of the pictured home.
func (g *Gateway) Summarize(ctx context.Context, imageBase64, zipCode string) (string, error) {
	result, err := g.provider.GenerateContent(ctx, gemini.GenerateRequest{
		Model: fastModel,
		Parts: []gemini.Part{
			gemini.ImagePart("image/jpeg", imageBase64),
			gemini.TextPart(summaryPrompt(zipCode)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("requesting summary: %w", err)
	}
	summary := strings.TrimSpace(result.Text)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", ErrModelOutput)
	}
	return summary, nil
}

func normalizeCategory(category string) string {
	for _, known := range knownCategories {
		if strings.EqualFold(strings.TrimSpace(category), known) {
			return known
		}
	}
	return CategoryGeneral
}

func suggestionsSchema() *gemini.Schema {
	return &gemini.Schema{
		Type: "object",
		Properties: map[string]*gemini.Schema{
			"suggestions": {
				Type: "array",
				Items: &gemini.Schema{
					Type: "object",
					Properties: map[string]*gemini.Schema{
						"name":        {Type: "string"},
						"description": {Type: "string"},
						"avgCost":     {Type: "number"},
						"roi":         {Type: "number"},
						"category":    {Type: "string"},
						"rationale":   {Type: "string"},
					},
					Required: []string{"name", "description", "avgCost", "roi", "category", "rationale"},
				},
			},
		},
		Required: []string{"suggestions"},
	}
}
