package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kalambet/renovo/internal/gateway"
)

// SaveProject copies a suggestion into the project set. Saving an already
// saved suggestion is a no-op; the project keeps any accumulated costs.
func (s *Session) SaveProject(suggestionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	analysis, suggestion := s.findSuggestion(suggestionID)
	if suggestion == nil {
		return fmt.Errorf("suggestion %s: %w", suggestionID, ErrNotFound)
	}
	for _, p := range s.projects {
		if p.Suggestion.ID == suggestionID {
			return nil
		}
	}
	s.projects = append(s.projects, Project{
		Suggestion: *suggestion,
		Saved:      true,
		ZipCode:    analysis.ZipCode,
	})
	return nil
}

// RemoveProject drops a project from the set by its suggestion id.
func (s *Session) RemoveProject(suggestionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.projects {
		if p.Suggestion.ID == suggestionID {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("project %s: %w", suggestionID, ErrNotFound)
}

// UploadDocument ingests a receipt or contractor bid synchronously. The
// extracted cost is added to the matching project's actual spend; when no
// project matches, a new manually-tracked project is created to hold it.
// Returns a human-readable outcome message.
func (s *Session) UploadDocument(data []byte, mimeType string) (string, error) {
	result, err := s.deps.Documents.IngestDocument(s.baseCtx, data, mimeType)
	if err != nil {
		return "", fmt.Errorf("ingesting document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.matchProject(result.MatchedProjectName); p != nil {
		p.ActualCost += result.Cost
		return fmt.Sprintf("Added $%.2f to %s.", result.Cost, p.Name), nil
	}

	name := strings.TrimSpace(result.MatchedProjectName)
	if name == "" {
		name = "Custom Expense"
	}
	s.projects = append(s.projects, Project{
		Suggestion: Suggestion{
			ID:          uuid.New().String(),
			Name:        name,
			Description: result.Summary,
			AvgCost:     result.Cost,
			ROI:         100,
			Category:    gateway.CategoryGeneral,
		},
		Saved:      true,
		ActualCost: result.Cost,
		ZipCode:    s.firstZipCode(),
	})
	return fmt.Sprintf("Created project %s with $%.2f tracked.", name, result.Cost), nil
}

// matchProject finds a saved project whose name matches the extracted
// category suggestion case-insensitively in either direction; whole-string
// containment first, then word-level containment so reworded names like
// "front door repaint" still land on "Paint Front Door". Callers hold the
// lock.
func (s *Session) matchProject(name string) *Project {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for i := range s.projects {
		have := strings.ToLower(s.projects[i].Name)
		if strings.Contains(have, needle) || strings.Contains(needle, have) {
			return &s.projects[i]
		}
		if containsAllWords(needle, have) || containsAllWords(have, needle) {
			return &s.projects[i]
		}
	}
	return nil
}

func containsAllWords(haystack, needle string) bool {
	words := strings.Fields(needle)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}

// firstZipCode returns the zip code of the earliest analysis, or empty when
// nothing has been uploaded. Callers hold the lock.
func (s *Session) firstZipCode() string {
	if len(s.analyses) == 0 {
		return ""
	}
	return s.analyses[0].ZipCode
}

// GeneratePlan sequences the saved projects into phases. Synchronous; the
// result replaces any previous plan.
func (s *Session) GeneratePlan() (*gateway.Plan, error) {
	s.mu.Lock()
	refs := make([]gateway.ProjectRef, len(s.projects))
	for i, p := range s.projects {
		refs[i] = gateway.ProjectRef{Name: p.Name, Category: p.Category}
	}
	s.mu.Unlock()

	plan, err := s.deps.Planner.PlanProjects(s.baseCtx, refs)
	if err != nil {
		return nil, fmt.Errorf("planning projects: %w", err)
	}

	s.mu.Lock()
	s.plan = &plan
	s.mu.Unlock()
	return &plan, nil
}

// SearchProducts runs a grounded shopping search scoped to the session's
// first zip code.
func (s *Session) SearchProducts(query string) (gateway.ShoppingResult, error) {
	s.mu.Lock()
	zip := s.firstZipCode()
	s.mu.Unlock()
	return s.deps.Shopper.SearchProducts(s.baseCtx, query, zip)
}
