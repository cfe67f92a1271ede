package session

import (
	"fmt"

	"github.com/kalambet/renovo/internal/media"
)

// Visualize starts an AI edit of the photo a suggestion belongs to. The
// visualization slot holds at most one result; starting a new edit evicts
// the previous one and bumps the generation counter so a late write from a
// superseded edit is dropped.
func (s *Session) Visualize(suggestionID string) error {
	s.mu.Lock()
	analysis, suggestion := s.findSuggestion(suggestionID)
	if suggestion == nil {
		s.mu.Unlock()
		return fmt.Errorf("suggestion %s: %w", suggestionID, ErrNotFound)
	}

	s.vizGen++
	gen := s.vizGen
	s.viz = Visualization{
		Active:       true,
		Suggestion:   *suggestion,
		SourceImage:  analysis.Image,
		SuggestionID: suggestionID,
	}
	s.activeTab = TabVisualize

	prompt := fmt.Sprintf("Apply the following renovation to this image: %q. Keep the rest of the image the same.",
		suggestion.Name+" - "+suggestion.Description)
	dataURL := analysis.Image.DataURL
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runVisualize(gen, dataURL, prompt)
	}()
	return nil
}

func (s *Session) runVisualize(gen uint64, dataURL, prompt string) {
	mimeType, b64, err := media.SplitDataURL(dataURL)
	if err == nil {
		var edited string
		edited, err = s.deps.Visualizer.EditImage(s.baseCtx, b64, mimeType, prompt)
		if err == nil {
			s.finishVisualize(gen, edited, "")
			return
		}
	}
	s.finishVisualize(gen, "", err.Error())
}

// finishVisualize writes the edit outcome back into the slot, unless a newer
// edit (or Reset) has bumped the generation since this one started.
func (s *Session) finishVisualize(gen uint64, image, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.vizGen {
		return
	}
	s.viz.SuggestionID = ""
	s.viz.GeneratedImage = image
	s.viz.Error = errMsg
}
