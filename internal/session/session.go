// Package session is the orchestrator: the exclusive owner of all mutable
// per-session state, driving the multi-call AI pipelines and enforcing
// per-item lifecycles with row-local error isolation.
//
// All mutation happens under one mutex; pipelines run in goroutines and
// write results back by id. Writes targeting an id that no longer exists
// (e.g. after Reset) silently no-op.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/kalambet/renovo/internal/gateway"
)

// ErrNotFound indicates a command referenced an id the session does not hold.
var ErrNotFound = errors.New("not found in session")

// ErrNoImages indicates feed generation was requested before any upload.
var ErrNoImages = errors.New("no uploaded images")

// ErrFeedAlreadyGenerated indicates the one-shot feed latch has fired;
// only Reset re-enables generation.
var ErrFeedAlreadyGenerated = errors.New("feed already generated this session")

// Analyzer produces suggestions and a summary for one home photo.
type Analyzer interface {
	AnalyzeSuggestions(ctx context.Context, imageBase64, zipCode string) ([]gateway.SuggestionDraft, error)
	Summarize(ctx context.Context, imageBase64, zipCode string) (string, error)
}

// Visualizer applies a renovation edit to a photo.
type Visualizer interface {
	EditImage(ctx context.Context, imageBase64, mimeType, prompt string) (string, error)
}

// FeedGenerator covers the inspiration-feed capabilities.
type FeedGenerator interface {
	GenerateFeedPlan(ctx context.Context, imagesBase64 []string, styleHint string) (gateway.FeedPlan, error)
	SynthesizeImage(ctx context.Context, prompt string) (string, error)
	GenerateVideo(ctx context.Context, prompt string) (string, error)
	ExtractVideoStyle(ctx context.Context, frameBase64 string) (string, error)
}

// DocumentReader extracts financial data from receipts and bids.
type DocumentReader interface {
	IngestDocument(ctx context.Context, data []byte, mimeType string) (gateway.DocumentResult, error)
}

// ProjectPlanner sequences saved projects into an execution plan.
type ProjectPlanner interface {
	PlanProjects(ctx context.Context, projects []gateway.ProjectRef) (gateway.Plan, error)
}

// Shopper runs grounded product searches.
type Shopper interface {
	SearchProducts(ctx context.Context, query, zipCode string) (gateway.ShoppingResult, error)
}

// FrameExtractor pulls a mid-video still frame as base64 JPEG.
type FrameExtractor interface {
	MidFrame(ctx context.Context, path string) (string, error)
}

// Deps are the collaborators a Session drives.
type Deps struct {
	Analyzer   Analyzer
	Visualizer Visualizer
	Feed       FeedGenerator
	Documents  DocumentReader
	Planner    ProjectPlanner
	Shopper    Shopper
	Frames     FrameExtractor

	// APIKeyPresent seeds the out-of-band signal that gates video generation.
	APIKeyPresent bool
}

// Session owns one user's in-memory state. Discarded wholesale on Reset;
// nothing persists.
type Session struct {
	deps    Deps
	baseCtx context.Context

	mu sync.Mutex
	wg sync.WaitGroup

	analyses []*Analysis
	projects []Project

	feed           []*FeedItem
	themes         []string
	styleSummary   string
	extractedStyle string
	feedLoading    bool
	feedGenerated  bool
	feedError      string

	plan *gateway.Plan

	viz    Visualization
	vizGen uint64

	activeTab     string
	apiKeyPresent bool
}

// New creates a Session. Pipelines spawned by commands inherit ctx; cancel
// it to stop all in-flight work on shutdown.
func New(ctx context.Context, deps Deps) *Session {
	return &Session{
		deps:          deps,
		baseCtx:       ctx,
		activeTab:     TabPlanner,
		apiKeyPresent: deps.APIKeyPresent,
	}
}

// Snapshot is a copy of the session state safe to read without locks.
type Snapshot struct {
	Analyses       []Analysis    `json:"analyses"`
	Projects       []Project     `json:"projects"`
	Feed           []FeedItem    `json:"feed"`
	Themes         []string      `json:"themes"`
	StyleSummary   string        `json:"styleSummary,omitempty"`
	ExtractedStyle string        `json:"extractedStyle,omitempty"`
	FeedLoading    bool          `json:"feedLoading"`
	FeedGenerated  bool          `json:"feedGenerated"`
	FeedError      string        `json:"feedError,omitempty"`
	Plan           *gateway.Plan `json:"plan,omitempty"`
	Visualization  Visualization `json:"visualization"`
	ActiveTab      string        `json:"activeTab"`
	APIKeyPresent  bool          `json:"apiKeyPresent"`
}

// Snapshot returns a consistent copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Analyses:       make([]Analysis, len(s.analyses)),
		Projects:       append([]Project(nil), s.projects...),
		Feed:           make([]FeedItem, len(s.feed)),
		Themes:         append([]string(nil), s.themes...),
		StyleSummary:   s.styleSummary,
		ExtractedStyle: s.extractedStyle,
		FeedLoading:    s.feedLoading,
		FeedGenerated:  s.feedGenerated,
		FeedError:      s.feedError,
		Visualization:  s.viz,
		ActiveTab:      s.activeTab,
		APIKeyPresent:  s.apiKeyPresent,
	}
	for i, a := range s.analyses {
		copied := *a
		copied.Suggestions = append([]Suggestion(nil), a.Suggestions...)
		snap.Analyses[i] = copied
	}
	for i, f := range s.feed {
		snap.Feed[i] = *f
	}
	if s.plan != nil {
		planCopy := *s.plan
		planCopy.Phases = append([]gateway.PlanPhase(nil), s.plan.Phases...)
		snap.Plan = &planCopy
	}
	return snap
}

// SetActiveTab records the tab the user navigated to.
func (s *Session) SetActiveTab(tab string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch tab {
	case TabPlanner, TabVisualize, TabProjects, TabDiscover:
		s.activeTab = tab
	}
}

// SetAPIKeyPresent records whether a provider key has been selected for
// video generation.
func (s *Session) SetAPIKeyPresent(present bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKeyPresent = present
}

// Reset discards all session state, re-arms the feed latch, and returns to
// the Planner tab. In-flight pipeline results land against cleared
// collections and are dropped.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.analyses = nil
	s.projects = nil
	s.feed = nil
	s.themes = nil
	s.styleSummary = ""
	s.extractedStyle = ""
	s.feedLoading = false
	s.feedGenerated = false
	s.feedError = ""
	s.plan = nil
	s.viz = Visualization{}
	s.vizGen++ // invalidate any in-flight visualization write
	s.activeTab = TabPlanner
}

// Wait blocks until all spawned pipelines have finished. Intended for tests
// and graceful shutdown.
func (s *Session) Wait() {
	s.wg.Wait()
}
