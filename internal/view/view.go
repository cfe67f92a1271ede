// Package view projects session state into renderable records. Everything
// here is a pure function of a state snapshot; commands flow the other way,
// straight to the session.
package view

import (
	"fmt"

	"github.com/kalambet/renovo/internal/session"
)

// Grade is the financial grade attached to a suggestion, derived from ROI
// through a fixed ladder.
type Grade struct {
	Letter string `json:"letter"`
	Label  string `json:"label"`
	Banner string `json:"banner"`
}

// GradeFor maps ROI to its grade: 100 and up is A+, 60 and up is B,
// everything below is C-.
func GradeFor(roi float64) Grade {
	switch {
	case roi >= 100:
		return Grade{Letter: "A+", Label: "High Profit", Banner: "EXCELLENT RETURN"}
	case roi >= 60:
		return Grade{Letter: "B", Label: "Solid Value", Banner: "SOLID VALUE"}
	default:
		return Grade{Letter: "C-", Label: "Luxury Risk", Banner: "LUXURY RISK"}
	}
}

// ValueAdd estimates the resale value a project adds: average cost scaled
// by ROI.
func ValueAdd(avgCost, roi float64) float64 {
	return avgCost * roi / 100
}

// FormatCurrency renders a whole-dollar USD amount with thousands
// separators, e.g. $27,492.
func FormatCurrency(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	n := int64(v + 0.5)
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-$" + s
	}
	return "$" + s
}

// SuggestionCard is one renderable suggestion row.
type SuggestionCard struct {
	session.Suggestion
	Grade       Grade   `json:"grade"`
	ValueAdd    float64 `json:"valueAdd"`
	Saved       bool    `json:"isSaved"`
	Visualizing bool    `json:"isVisualizing"`
}

// AnalysisCard is the renderable form of one analysis row in its current
// lifecycle state.
type AnalysisCard struct {
	ID           string           `json:"id"`
	ImageDataURL string           `json:"imageDataUrl"`
	ZipCode      string           `json:"zipCode,omitempty"`
	Loading      bool             `json:"loading"`
	Error        string           `json:"error,omitempty"`
	Summary      string           `json:"summary,omitempty"`
	Suggestions  []SuggestionCard `json:"suggestions,omitempty"`
}

// AnalysisCards projects every analysis in upload order, enriching result
// rows with grades, value-add, saved flags, and the in-flight visualization
// indicator.
func AnalysisCards(snap session.Snapshot) []AnalysisCard {
	saved := make(map[string]bool, len(snap.Projects))
	for _, p := range snap.Projects {
		saved[p.Suggestion.ID] = true
	}

	cards := make([]AnalysisCard, len(snap.Analyses))
	for i, a := range snap.Analyses {
		card := AnalysisCard{
			ID:           a.ID,
			ImageDataURL: a.Image.DataURL,
			ZipCode:      a.ZipCode,
			Loading:      a.State == session.AnalysisLoading,
			Error:        a.Error,
		}
		if a.State == session.AnalysisResults {
			card.Summary = a.Summary
			card.Suggestions = make([]SuggestionCard, len(a.Suggestions))
			for j, s := range a.Suggestions {
				card.Suggestions[j] = SuggestionCard{
					Suggestion:  s,
					Grade:       GradeFor(s.ROI),
					ValueAdd:    ValueAdd(s.AvgCost, s.ROI),
					Saved:       saved[s.ID],
					Visualizing: snap.Visualization.SuggestionID == s.ID,
				}
			}
		}
		cards[i] = card
	}
	return cards
}

// ProjectCard is one saved project with its cost tracking.
type ProjectCard struct {
	session.Project
	Grade    Grade   `json:"grade"`
	ValueAdd float64 `json:"valueAdd"`
}

// DashboardTotals are the aggregate figures across the saved projects.
// NetProfit subtracts actual spend when any has been recorded, otherwise
// estimated cost.
type DashboardTotals struct {
	EstimatedCost float64 `json:"estimatedCost"`
	ActualCost    float64 `json:"actualCost"`
	ValueAdd      float64 `json:"valueAdd"`
	NetProfit     float64 `json:"netProfit"`
}

// Dashboard projects the saved-projects view: one card per project plus
// aggregate totals.
func Dashboard(snap session.Snapshot) ([]ProjectCard, DashboardTotals) {
	cards := make([]ProjectCard, len(snap.Projects))
	var totals DashboardTotals
	for i, p := range snap.Projects {
		cards[i] = ProjectCard{
			Project:  p,
			Grade:    GradeFor(p.ROI),
			ValueAdd: ValueAdd(p.AvgCost, p.ROI),
		}
		totals.EstimatedCost += p.AvgCost
		totals.ActualCost += p.ActualCost
		totals.ValueAdd += cards[i].ValueAdd
	}
	spend := totals.EstimatedCost
	if totals.ActualCost > 0 {
		spend = totals.ActualCost
	}
	totals.NetProfit = totals.ValueAdd - spend
	return cards, totals
}

// FeedPost is one renderable feed entry. Posts appear in plan order; Ready
// flips when content has arrived.
type FeedPost struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Prompt     string `json:"prompt"`
	ContentURL string `json:"contentUrl,omitempty"`
	Ready      bool   `json:"ready"`
	Failed     bool   `json:"failed"`
}

// FeedPosts projects the feed in generator-returned order regardless of
// per-item completion order.
func FeedPosts(snap session.Snapshot) []FeedPost {
	posts := make([]FeedPost, len(snap.Feed))
	for i, f := range snap.Feed {
		posts[i] = FeedPost{
			ID:     f.ID,
			Type:   f.Type,
			Prompt: f.Prompt,
			Ready:  f.Status == session.FeedComplete,
			Failed: f.Status == session.FeedError,
		}
		if posts[i].Ready {
			posts[i].ContentURL = f.ContentURL
		}
	}
	return posts
}

// SliderClip clamps a before/after comparison slider position to [0,100].
func SliderClip(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	if pos > 100 {
		return 100
	}
	return pos
}
