package session

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/renovo/internal/media"
)

// UploadImage ingests one home photo and starts its analysis pipeline:
// the row is inserted immediately in loading state and two independent
// gateway calls (suggestions + summary) are fanned out and awaited jointly.
// Failure of either fails the whole analysis; other rows are unaffected.
// Returns the new analysis id.
func (s *Session) UploadImage(data []byte, declaredMime, zipCode string) (string, error) {
	mimeType, b64, err := media.EncodeBytes(data, declaredMime)
	if err != nil {
		return "", fmt.Errorf("encoding image: %w", err)
	}

	analysis := &Analysis{
		ID: uuid.New().String(),
		Image: StoredImage{
			ID:      uuid.New().String(),
			DataURL: media.DataURL(mimeType, b64),
		},
		ZipCode: zipCode,
		State:   AnalysisLoading,
	}

	s.mu.Lock()
	s.analyses = append(s.analyses, analysis)
	s.activeTab = TabPlanner
	s.mu.Unlock()

	id := analysis.ID
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runAnalysis(id, b64, zipCode)
	}()

	return id, nil
}

func (s *Session) runAnalysis(id, imageBase64, zipCode string) {
	var results struct {
		suggestions []Suggestion
		summary     string
	}

	g, ctx := errgroup.WithContext(s.baseCtx)
	g.Go(func() error {
		raw, err := s.deps.Analyzer.AnalyzeSuggestions(ctx, imageBase64, zipCode)
		if err != nil {
			return err
		}
		suggestions := make([]Suggestion, len(raw))
		for i, d := range raw {
			suggestions[i] = Suggestion{
				ID:          uuid.New().String(),
				Name:        d.Name,
				Description: d.Description,
				AvgCost:     d.AvgCost,
				ROI:         d.ROI,
				Category:    d.Category,
				Rationale:   d.Rationale,
			}
		}
		results.suggestions = suggestions
		return nil
	})
	g.Go(func() error {
		summary, err := s.deps.Analyzer.Summarize(ctx, imageBase64, zipCode)
		if err != nil {
			return err
		}
		results.summary = summary
		return nil
	})

	if err := g.Wait(); err != nil {
		s.failAnalysis(id, err.Error())
		return
	}
	s.completeAnalysis(id, results.suggestions, results.summary)
}

// completeAnalysis writes the terminal results state into the row identified
// by id. No-op when the row is gone or already terminal.
func (s *Session) completeAnalysis(id string, suggestions []Suggestion, summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAnalysis(id)
	if a == nil || a.State != AnalysisLoading {
		return
	}
	a.Suggestions = suggestions
	a.Summary = summary
	a.State = AnalysisResults
}

func (s *Session) failAnalysis(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAnalysis(id)
	if a == nil || a.State != AnalysisLoading {
		return
	}
	a.State = AnalysisError
	a.Error = message
}

// findAnalysis returns the row with the given id; callers hold the lock.
func (s *Session) findAnalysis(id string) *Analysis {
	for _, a := range s.analyses {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// findSuggestion locates a suggestion across all analyses, returning it with
// its owning analysis. Callers hold the lock.
func (s *Session) findSuggestion(suggestionID string) (*Analysis, *Suggestion) {
	for _, a := range s.analyses {
		for i := range a.Suggestions {
			if a.Suggestions[i].ID == suggestionID {
				return a, &a.Suggestions[i]
			}
		}
	}
	return nil, nil
}
