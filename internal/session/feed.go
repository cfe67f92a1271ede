package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kalambet/renovo/internal/gateway"
	"github.com/kalambet/renovo/internal/gemini"
	"github.com/kalambet/renovo/internal/media"
)

// UploadReferenceVideo extracts a mid-frame still from a style reference
// video and distills its design style for later feed generation.
func (s *Session) UploadReferenceVideo(path string) (string, error) {
	frame, err := s.deps.Frames.MidFrame(s.baseCtx, path)
	if err != nil {
		return "", fmt.Errorf("extracting reference frame: %w", err)
	}
	style, err := s.deps.Feed.ExtractVideoStyle(s.baseCtx, frame)
	if err != nil {
		return "", fmt.Errorf("extracting video style: %w", err)
	}

	s.mu.Lock()
	s.extractedStyle = style
	s.mu.Unlock()
	return style, nil
}

// GenerateFeed fires the one-shot inspiration feed pipeline: a planning call
// over every uploaded photo, then concurrent per-item content generation.
// A session generates at most one feed; only Reset re-arms the latch.
func (s *Session) GenerateFeed() error {
	s.mu.Lock()
	if s.feedGenerated {
		s.mu.Unlock()
		return ErrFeedAlreadyGenerated
	}
	if len(s.analyses) == 0 {
		s.mu.Unlock()
		return ErrNoImages
	}
	s.feedGenerated = true
	s.feedLoading = true
	s.feedError = ""
	s.activeTab = TabDiscover

	images := make([]string, 0, len(s.analyses))
	for _, a := range s.analyses {
		if _, b64, err := media.SplitDataURL(a.Image.DataURL); err == nil {
			images = append(images, b64)
		}
	}
	styleHint := s.extractedStyle
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runFeedPlan(images, styleHint)
	}()
	return nil
}

func (s *Session) runFeedPlan(images []string, styleHint string) {
	plan, err := s.deps.Feed.GenerateFeedPlan(s.baseCtx, images, styleHint)
	if err != nil {
		s.failFeedPlan(err)
		return
	}

	s.mu.Lock()
	if !s.feedLoading {
		// Reset raced the planning call; drop the result.
		s.mu.Unlock()
		return
	}
	s.feedLoading = false
	s.themes = plan.Themes
	s.styleSummary = plan.StyleSummary
	s.feed = make([]*FeedItem, len(plan.InitialFeed))
	for i, draft := range plan.InitialFeed {
		s.feed[i] = &FeedItem{
			ID:     uuid.New().String(),
			Type:   draft.Type,
			Prompt: draft.Prompt,
			Status: FeedPending,
		}
	}
	s.mu.Unlock()

	s.schedulePending()
}

func (s *Session) failFeedPlan(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.feedLoading {
		return
	}
	s.feedLoading = false
	s.feedError = err.Error()
	s.checkAuthError(err)
}

// schedulePending promotes every pending feed item to generating and spawns
// one content-generation goroutine per item.
func (s *Session) schedulePending() {
	s.mu.Lock()
	var scheduled []*FeedItem
	for _, item := range s.feed {
		if item.Status == FeedPending {
			item.Status = FeedGenerating
			scheduled = append(scheduled, item)
		}
	}
	tasks := make([]FeedItem, len(scheduled))
	for i, item := range scheduled {
		tasks[i] = *item
	}
	s.mu.Unlock()

	for _, task := range tasks {
		s.wg.Add(1)
		go func(item FeedItem) {
			defer s.wg.Done()
			s.runFeedItem(item)
		}(task)
	}
}

func (s *Session) runFeedItem(item FeedItem) {
	var (
		url string
		err error
	)
	switch item.Type {
	case gateway.FeedTypeVideo:
		s.mu.Lock()
		keyed := s.apiKeyPresent
		s.mu.Unlock()
		if !keyed {
			err = gemini.ErrAuthRequired
			break
		}
		url, err = s.deps.Feed.GenerateVideo(s.baseCtx, item.Prompt)
	default:
		url, err = s.deps.Feed.SynthesizeImage(s.baseCtx, item.Prompt)
	}

	if err != nil {
		s.failFeedItem(item.ID, err)
		return
	}
	s.completeFeedItem(item.ID, url)
}

// completeFeedItem writes content into an item that is still generating.
// Late or duplicate writes no-op, keeping per-item transitions monotonic.
func (s *Session) completeFeedItem(id, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findFeedItem(id)
	if item == nil || item.Status != FeedGenerating {
		return
	}
	item.ContentURL = url
	item.Status = FeedComplete
}

func (s *Session) failFeedItem(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findFeedItem(id)
	if item == nil || item.Status != FeedGenerating {
		return
	}
	item.Status = FeedError
	s.checkAuthError(err)
}

// checkAuthError clears the key-present flag when a provider call failed
// authentication, so later video items fail fast. Callers hold the lock.
func (s *Session) checkAuthError(err error) {
	if errors.Is(err, gemini.ErrAuthRequired) {
		s.apiKeyPresent = false
	}
}

func (s *Session) findFeedItem(id string) *FeedItem {
	for _, item := range s.feed {
		if item.ID == id {
			return item
		}
	}
	return nil
}
