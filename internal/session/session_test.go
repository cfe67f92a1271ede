package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/renovo/internal/gateway"
	"github.com/kalambet/renovo/internal/gemini"
)

// mockAI implements every gateway-facing interface with function fields so
// each test wires only what it needs.
type mockAI struct {
	analyzeFn   func(ctx context.Context, imageBase64, zipCode string) ([]gateway.SuggestionDraft, error)
	summarizeFn func(ctx context.Context, imageBase64, zipCode string) (string, error)
	editFn      func(ctx context.Context, imageBase64, mimeType, prompt string) (string, error)
	feedPlanFn  func(ctx context.Context, imagesBase64 []string, styleHint string) (gateway.FeedPlan, error)
	synthFn     func(ctx context.Context, prompt string) (string, error)
	videoFn     func(ctx context.Context, prompt string) (string, error)
	styleFn     func(ctx context.Context, frameBase64 string) (string, error)
	ingestFn    func(ctx context.Context, data []byte, mimeType string) (gateway.DocumentResult, error)
	planFn      func(ctx context.Context, projects []gateway.ProjectRef) (gateway.Plan, error)
	shopFn      func(ctx context.Context, query, zipCode string) (gateway.ShoppingResult, error)
	frameFn     func(ctx context.Context, path string) (string, error)
}

func (m *mockAI) AnalyzeSuggestions(ctx context.Context, img, zip string) ([]gateway.SuggestionDraft, error) {
	return m.analyzeFn(ctx, img, zip)
}

func (m *mockAI) Summarize(ctx context.Context, img, zip string) (string, error) {
	return m.summarizeFn(ctx, img, zip)
}

func (m *mockAI) EditImage(ctx context.Context, img, mime, prompt string) (string, error) {
	return m.editFn(ctx, img, mime, prompt)
}

func (m *mockAI) GenerateFeedPlan(ctx context.Context, imgs []string, style string) (gateway.FeedPlan, error) {
	return m.feedPlanFn(ctx, imgs, style)
}

func (m *mockAI) SynthesizeImage(ctx context.Context, prompt string) (string, error) {
	return m.synthFn(ctx, prompt)
}

func (m *mockAI) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	return m.videoFn(ctx, prompt)
}

func (m *mockAI) ExtractVideoStyle(ctx context.Context, frame string) (string, error) {
	return m.styleFn(ctx, frame)
}

func (m *mockAI) IngestDocument(ctx context.Context, data []byte, mime string) (gateway.DocumentResult, error) {
	return m.ingestFn(ctx, data, mime)
}

func (m *mockAI) PlanProjects(ctx context.Context, projects []gateway.ProjectRef) (gateway.Plan, error) {
	return m.planFn(ctx, projects)
}

func (m *mockAI) SearchProducts(ctx context.Context, query, zip string) (gateway.ShoppingResult, error) {
	return m.shopFn(ctx, query, zip)
}

func (m *mockAI) MidFrame(ctx context.Context, path string) (string, error) {
	return m.frameFn(ctx, path)
}

func newTestSession(ai *mockAI, keyPresent bool) *Session {
	return New(context.Background(), Deps{
		Analyzer:      ai,
		Visualizer:    ai,
		Feed:          ai,
		Documents:     ai,
		Planner:       ai,
		Shopper:       ai,
		Frames:        ai,
		APIKeyPresent: keyPresent,
	})
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n fake png payload for tests")

func threeDrafts() []gateway.SuggestionDraft {
	return []gateway.SuggestionDraft{
		{Name: "Paint Front Door", Description: "Fresh coat", AvgCost: 350, ROI: 120, Category: gateway.CategoryCurbAppeal},
		{Name: "Update Kitchen Backsplash", Description: "Subway tile", AvgCost: 1200, ROI: 70, Category: gateway.CategoryKitchen},
		{Name: "Install Pergola", Description: "Cedar pergola", AvgCost: 4000, ROI: 45, Category: gateway.CategoryOutdoor},
	}
}

func TestUploadImageSuccess(t *testing.T) {
	ai := &mockAI{
		analyzeFn: func(ctx context.Context, img, zip string) ([]gateway.SuggestionDraft, error) {
			if zip != "90210" {
				t.Errorf("zip = %q, want 90210", zip)
			}
			return threeDrafts(), nil
		},
		summarizeFn: func(ctx context.Context, img, zip string) (string, error) {
			return "Charming bungalow. Strong curb appeal upside.", nil
		},
	}
	s := newTestSession(ai, true)

	id, err := s.UploadImage(pngBytes, "image/png", "90210")
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	s.Wait()

	snap := s.Snapshot()
	if len(snap.Analyses) != 1 {
		t.Fatalf("analyses = %d, want 1", len(snap.Analyses))
	}
	a := snap.Analyses[0]
	if a.ID != id {
		t.Errorf("analysis id = %q, want %q", a.ID, id)
	}
	if a.State != AnalysisResults {
		t.Fatalf("state = %q, want %q (error: %q)", a.State, AnalysisResults, a.Error)
	}
	if a.Summary == "" {
		t.Error("summary is empty")
	}
	if len(a.Suggestions) != 3 {
		t.Fatalf("suggestions = %d, want 3", len(a.Suggestions))
	}
	seen := map[string]bool{}
	for _, sg := range a.Suggestions {
		if sg.ID == "" {
			t.Error("suggestion id is empty")
		}
		if seen[sg.ID] {
			t.Errorf("duplicate suggestion id %q", sg.ID)
		}
		seen[sg.ID] = true
	}
	if !strings.HasPrefix(a.Image.DataURL, "data:image/png;base64,") {
		t.Errorf("image data URL = %q", a.Image.DataURL[:30])
	}
	if snap.ActiveTab != TabPlanner {
		t.Errorf("active tab = %q, want planner", snap.ActiveTab)
	}
}

func TestConcurrentUploadsOneFails(t *testing.T) {
	secondFailed := make(chan struct{})
	var once sync.Once
	call := 0
	var mu sync.Mutex

	ai := &mockAI{
		analyzeFn: func(ctx context.Context, img, zip string) ([]gateway.SuggestionDraft, error) {
			return threeDrafts(), nil
		},
		summarizeFn: func(ctx context.Context, img, zip string) (string, error) {
			mu.Lock()
			call++
			mine := call
			mu.Unlock()
			if mine == 2 {
				once.Do(func() { close(secondFailed) })
				return "", errors.New("upstream timeout")
			}
			// The first upload completes only after the second has failed.
			<-secondFailed
			return "Solid mid-century ranch.", nil
		},
	}
	s := newTestSession(ai, true)

	idA, err := s.UploadImage(pngBytes, "image/png", "")
	if err != nil {
		t.Fatalf("upload A: %v", err)
	}
	idB, err := s.UploadImage(pngBytes, "image/png", "")
	if err != nil {
		t.Fatalf("upload B: %v", err)
	}
	s.Wait()

	snap := s.Snapshot()
	if len(snap.Analyses) != 2 {
		t.Fatalf("analyses = %d, want 2", len(snap.Analyses))
	}
	if snap.Analyses[0].ID != idA || snap.Analyses[1].ID != idB {
		t.Fatalf("row order = [%s %s], want [%s %s]",
			snap.Analyses[0].ID, snap.Analyses[1].ID, idA, idB)
	}
	states := []string{snap.Analyses[0].State, snap.Analyses[1].State}
	if states[0] != AnalysisResults && states[1] != AnalysisResults {
		t.Fatalf("no analysis reached results: %v", states)
	}
	var failed Analysis
	for _, a := range snap.Analyses {
		if a.State == AnalysisError {
			failed = a
		}
	}
	if failed.ID == "" {
		t.Fatal("no analysis failed")
	}
	if failed.Error == "" {
		t.Error("failed analysis has no error message")
	}
	if len(failed.Suggestions) != 0 {
		t.Errorf("failed analysis kept %d suggestions", len(failed.Suggestions))
	}
}

func TestSaveProjectIsSetByID(t *testing.T) {
	s := sessionWithResults(t)
	sid := s.Snapshot().Analyses[0].Suggestions[0].ID

	if err := s.SaveProject(sid); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveProject(sid); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if got := len(s.Snapshot().Projects); got != 1 {
		t.Fatalf("projects after duplicate save = %d, want 1", got)
	}
	if err := s.RemoveProject(sid); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := len(s.Snapshot().Projects); got != 0 {
		t.Fatalf("projects after remove = %d, want 0", got)
	}
	if err := s.RemoveProject(sid); !errors.Is(err, ErrNotFound) {
		t.Errorf("remove missing = %v, want ErrNotFound", err)
	}
}

func TestSaveProjectUnknownSuggestion(t *testing.T) {
	s := newTestSession(&mockAI{}, true)
	if err := s.SaveProject("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFeedGenerationWithoutKey(t *testing.T) {
	drafts := []gateway.FeedItemDraft{
		{Type: gateway.FeedTypeImage, Prompt: "p1"},
		{Type: gateway.FeedTypeVideo, Prompt: "p2"},
		{Type: gateway.FeedTypeImage, Prompt: "p3"},
		{Type: gateway.FeedTypeImage, Prompt: "p4"},
		{Type: gateway.FeedTypeVideo, Prompt: "p5"},
		{Type: gateway.FeedTypeImage, Prompt: "p6"},
		{Type: gateway.FeedTypeImage, Prompt: "p7"},
		{Type: gateway.FeedTypeImage, Prompt: "p8"},
	}
	ai := &mockAI{
		feedPlanFn: func(ctx context.Context, imgs []string, style string) (gateway.FeedPlan, error) {
			if len(imgs) != 1 {
				t.Errorf("plan received %d images, want 1", len(imgs))
			}
			return gateway.FeedPlan{
				Themes:       []string{"Coastal", "Modern Farmhouse"},
				StyleSummary: "light and airy",
				InitialFeed:  drafts,
			}, nil
		},
		synthFn: func(ctx context.Context, prompt string) (string, error) {
			return "data:image/png;base64,QUJD", nil
		},
		videoFn: func(ctx context.Context, prompt string) (string, error) {
			t.Error("GenerateVideo called without a key")
			return "", gemini.ErrAuthRequired
		},
	}
	s := seedOneAnalysis(t, ai, false)

	if err := s.GenerateFeed(); err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	s.Wait()

	snap := s.Snapshot()
	if len(snap.Feed) != 8 {
		t.Fatalf("feed = %d items, want 8", len(snap.Feed))
	}
	for i, item := range snap.Feed {
		if item.Prompt != drafts[i].Prompt {
			t.Errorf("item %d prompt = %q, want %q (order must follow the plan)", i, item.Prompt, drafts[i].Prompt)
		}
		switch drafts[i].Type {
		case gateway.FeedTypeVideo:
			if item.Status != FeedError {
				t.Errorf("video item %d status = %q, want error", i, item.Status)
			}
		default:
			if item.Status != FeedComplete {
				t.Errorf("image item %d status = %q, want complete", i, item.Status)
			}
			if item.ContentURL == "" {
				t.Errorf("image item %d has empty content URL", i)
			}
		}
	}
	if snap.ActiveTab != TabDiscover {
		t.Errorf("active tab = %q, want discover", snap.ActiveTab)
	}
}

func TestFeedLatch(t *testing.T) {
	ai := &mockAI{
		feedPlanFn: func(ctx context.Context, imgs []string, style string) (gateway.FeedPlan, error) {
			return gateway.FeedPlan{InitialFeed: []gateway.FeedItemDraft{{Type: gateway.FeedTypeImage, Prompt: "p"}}}, nil
		},
		synthFn: func(ctx context.Context, prompt string) (string, error) {
			return "data:image/png;base64,QUJD", nil
		},
	}
	s := seedOneAnalysis(t, ai, true)

	if err := s.GenerateFeed(); err != nil {
		t.Fatalf("first GenerateFeed: %v", err)
	}
	if err := s.GenerateFeed(); !errors.Is(err, ErrFeedAlreadyGenerated) {
		t.Fatalf("second GenerateFeed = %v, want ErrFeedAlreadyGenerated", err)
	}
	s.Wait()

	// The latch survives even a failed run; only Reset re-arms it.
	if err := s.GenerateFeed(); !errors.Is(err, ErrFeedAlreadyGenerated) {
		t.Fatalf("post-completion GenerateFeed = %v, want ErrFeedAlreadyGenerated", err)
	}
}

func TestFeedRequiresImages(t *testing.T) {
	s := newTestSession(&mockAI{}, true)
	if err := s.GenerateFeed(); !errors.Is(err, ErrNoImages) {
		t.Fatalf("err = %v, want ErrNoImages", err)
	}
}

func TestFeedPlanFailureKeepsLatch(t *testing.T) {
	ai := &mockAI{
		feedPlanFn: func(ctx context.Context, imgs []string, style string) (gateway.FeedPlan, error) {
			return gateway.FeedPlan{}, errors.New("model overloaded")
		},
	}
	s := seedOneAnalysis(t, ai, true)

	if err := s.GenerateFeed(); err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	s.Wait()

	snap := s.Snapshot()
	if snap.FeedError == "" {
		t.Error("feed error not surfaced")
	}
	if snap.FeedLoading {
		t.Error("feed still loading after failure")
	}
	if err := s.GenerateFeed(); !errors.Is(err, ErrFeedAlreadyGenerated) {
		t.Errorf("retry after failure = %v, want ErrFeedAlreadyGenerated", err)
	}
}

func TestFeedAuthErrorFlipsKeyFlag(t *testing.T) {
	ai := &mockAI{
		feedPlanFn: func(ctx context.Context, imgs []string, style string) (gateway.FeedPlan, error) {
			return gateway.FeedPlan{InitialFeed: []gateway.FeedItemDraft{{Type: gateway.FeedTypeVideo, Prompt: "p"}}}, nil
		},
		videoFn: func(ctx context.Context, prompt string) (string, error) {
			return "", gemini.ErrAuthRequired
		},
	}
	s := seedOneAnalysis(t, ai, true)

	if err := s.GenerateFeed(); err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	s.Wait()

	snap := s.Snapshot()
	if snap.APIKeyPresent {
		t.Error("apiKeyPresent still true after auth failure")
	}
	if snap.Feed[0].Status != FeedError {
		t.Errorf("item status = %q, want error", snap.Feed[0].Status)
	}
}

func TestFeedItemTerminalStatesAreSticky(t *testing.T) {
	s := newTestSession(&mockAI{}, true)
	s.feed = []*FeedItem{{ID: "f1", Type: gateway.FeedTypeImage, Status: FeedComplete, ContentURL: "data:image/png;base64,QUJD"}}

	s.completeFeedItem("f1", "data:image/png;base64,REVG")
	s.failFeedItem("f1", errors.New("late"))

	if s.feed[0].Status != FeedComplete {
		t.Errorf("status = %q, want complete", s.feed[0].Status)
	}
	if s.feed[0].ContentURL != "data:image/png;base64,QUJD" {
		t.Error("content URL overwritten by stale write")
	}
}

func TestDocumentMatchesExistingProject(t *testing.T) {
	ai := &mockAI{
		ingestFn: func(ctx context.Context, data []byte, mime string) (gateway.DocumentResult, error) {
			return gateway.DocumentResult{MatchedProjectName: "front door repaint", Cost: 500, Summary: "Paint and supplies"}, nil
		},
	}
	s := sessionWithResultsAI(t, ai)
	sid := s.Snapshot().Analyses[0].Suggestions[0].ID // "Paint Front Door"
	if err := s.SaveProject(sid); err != nil {
		t.Fatalf("save: %v", err)
	}

	msg, err := s.UploadDocument([]byte("receipt"), "image/jpeg")
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if msg == "" {
		t.Error("no outcome message")
	}

	snap := s.Snapshot()
	if len(snap.Projects) != 1 {
		t.Fatalf("projects = %d, want 1 (no new project on match)", len(snap.Projects))
	}
	if got := snap.Projects[0].ActualCost; got != 500 {
		t.Errorf("actualCost = %v, want 500", got)
	}

	// Second receipt accumulates.
	if _, err := s.UploadDocument([]byte("receipt"), "image/jpeg"); err != nil {
		t.Fatalf("second UploadDocument: %v", err)
	}
	if got := s.Snapshot().Projects[0].ActualCost; got != 1000 {
		t.Errorf("actualCost after second receipt = %v, want 1000", got)
	}
}

func TestDocumentCreatesProjectWhenUnmatched(t *testing.T) {
	ai := &mockAI{
		ingestFn: func(ctx context.Context, data []byte, mime string) (gateway.DocumentResult, error) {
			return gateway.DocumentResult{MatchedProjectName: "Gutter Cleaning", Cost: 250, Summary: "Seasonal gutter service"}, nil
		},
	}
	s := sessionWithResultsAI(t, ai)

	if _, err := s.UploadDocument([]byte("receipt"), "image/jpeg"); err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(snap.Projects))
	}
	p := snap.Projects[0]
	if p.Name != "Gutter Cleaning" {
		t.Errorf("name = %q", p.Name)
	}
	if p.AvgCost != 250 || p.ActualCost != 250 {
		t.Errorf("avgCost = %v actualCost = %v, want 250/250", p.AvgCost, p.ActualCost)
	}
	if p.ROI != 100 {
		t.Errorf("roi = %v, want 100", p.ROI)
	}
	if p.Category != gateway.CategoryGeneral {
		t.Errorf("category = %q, want General", p.Category)
	}
	if p.ZipCode != "90210" {
		t.Errorf("zip = %q, want inherited 90210", p.ZipCode)
	}
	if !p.Saved {
		t.Error("project not marked saved")
	}
	if p.ID == "" {
		t.Error("project id is empty")
	}
}

func TestVisualizeSupersedes(t *testing.T) {
	release := make(chan struct{})
	var prompts []string
	var mu sync.Mutex

	ai := &mockAI{
		editFn: func(ctx context.Context, img, mime, prompt string) (string, error) {
			mu.Lock()
			prompts = append(prompts, prompt)
			mu.Unlock()
			if strings.Contains(prompt, "Paint Front Door") {
				<-release // superseded edit finishes after the newer one
				return "data:image/png;base64,Rklyc3Q=", nil
			}
			return "data:image/png;base64,U2Vjb25k", nil
		},
	}
	s := sessionWithResultsAI(t, ai)
	suggestions := s.Snapshot().Analyses[0].Suggestions

	if err := s.Visualize(suggestions[0].ID); err != nil {
		t.Fatalf("first visualize: %v", err)
	}
	if err := s.Visualize(suggestions[1].ID); err != nil {
		t.Fatalf("second visualize: %v", err)
	}
	// Let the second edit land, then release the stale first one.
	for i := 0; i < 100; i++ {
		if s.Snapshot().Visualization.GeneratedImage != "" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
	s.Wait()

	snap := s.Snapshot()
	viz := snap.Visualization
	if viz.Suggestion.ID != suggestions[1].ID {
		t.Errorf("slot holds suggestion %q, want second %q", viz.Suggestion.ID, suggestions[1].ID)
	}
	if viz.GeneratedImage != "data:image/png;base64,U2Vjb25k" {
		t.Errorf("generated image = %q, stale write won", viz.GeneratedImage)
	}
	if viz.SuggestionID != "" {
		t.Error("suggestionId not cleared after terminal write")
	}
	if snap.ActiveTab != TabVisualize {
		t.Errorf("active tab = %q, want visualize", snap.ActiveTab)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, p := range prompts {
		if !strings.HasPrefix(p, "Apply the following renovation to this image:") {
			t.Errorf("prompt = %q", p)
		}
		if !strings.HasSuffix(p, "Keep the rest of the image the same.") {
			t.Errorf("prompt = %q", p)
		}
	}
}

func TestVisualizeErrorClearsIndicator(t *testing.T) {
	ai := &mockAI{
		editFn: func(ctx context.Context, img, mime, prompt string) (string, error) {
			return "", gemini.ErrGenerationFailed
		},
	}
	s := sessionWithResultsAI(t, ai)
	sid := s.Snapshot().Analyses[0].Suggestions[0].ID

	if err := s.Visualize(sid); err != nil {
		t.Fatalf("Visualize: %v", err)
	}
	s.Wait()

	viz := s.Snapshot().Visualization
	if viz.Error == "" {
		t.Error("error not recorded")
	}
	if viz.SuggestionID != "" {
		t.Error("suggestionId not cleared on failure")
	}
	if viz.GeneratedImage != "" {
		t.Error("generated image set on failure")
	}
}

func TestUploadReferenceVideo(t *testing.T) {
	ai := &mockAI{
		frameFn: func(ctx context.Context, path string) (string, error) {
			if path != "/tmp/ref.mp4" {
				t.Errorf("path = %q", path)
			}
			return "ZnJhbWU=", nil
		},
		styleFn: func(ctx context.Context, frame string) (string, error) {
			if frame != "ZnJhbWU=" {
				t.Errorf("frame = %q", frame)
			}
			return "japandi, warm wood, low contrast", nil
		},
	}
	s := newTestSession(ai, true)

	style, err := s.UploadReferenceVideo("/tmp/ref.mp4")
	if err != nil {
		t.Fatalf("UploadReferenceVideo: %v", err)
	}
	if style != "japandi, warm wood, low contrast" {
		t.Errorf("style = %q", style)
	}
	if got := s.Snapshot().ExtractedStyle; got != style {
		t.Errorf("stored style = %q", got)
	}
}

func TestGeneratePlan(t *testing.T) {
	ai := &mockAI{
		planFn: func(ctx context.Context, refs []gateway.ProjectRef) (gateway.Plan, error) {
			if len(refs) != 1 {
				t.Fatalf("refs = %d, want 1", len(refs))
			}
			return gateway.Plan{
				Phases:        []gateway.PlanPhase{{PhaseName: "Phase 1", Tasks: []string{refs[0].Name}, Duration: "2 weeks"}},
				TotalDuration: "2 weeks",
				Advice:        "Start outdoors before winter.",
			}, nil
		},
	}
	s := sessionWithResultsAI(t, ai)
	sid := s.Snapshot().Analyses[0].Suggestions[0].ID
	if err := s.SaveProject(sid); err != nil {
		t.Fatalf("save: %v", err)
	}

	plan, err := s.GeneratePlan()
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if len(plan.Phases) != 1 {
		t.Fatalf("phases = %d, want 1", len(plan.Phases))
	}
	if got := s.Snapshot().Plan; got == nil || got.TotalDuration != "2 weeks" {
		t.Errorf("stored plan = %+v", got)
	}
}

func TestReset(t *testing.T) {
	ai := &mockAI{
		feedPlanFn: func(ctx context.Context, imgs []string, style string) (gateway.FeedPlan, error) {
			return gateway.FeedPlan{
				Themes:      []string{"Coastal"},
				InitialFeed: []gateway.FeedItemDraft{{Type: gateway.FeedTypeImage, Prompt: "p"}},
			}, nil
		},
		synthFn: func(ctx context.Context, prompt string) (string, error) {
			return "data:image/png;base64,QUJD", nil
		},
	}
	s := seedOneAnalysis(t, ai, true)
	if err := s.GenerateFeed(); err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	s.Wait()

	s.Reset()

	snap := s.Snapshot()
	if len(snap.Analyses) != 0 || len(snap.Projects) != 0 || len(snap.Feed) != 0 {
		t.Errorf("state not cleared: %d analyses, %d projects, %d feed",
			len(snap.Analyses), len(snap.Projects), len(snap.Feed))
	}
	if len(snap.Themes) != 0 || snap.StyleSummary != "" || snap.ExtractedStyle != "" {
		t.Error("feed metadata not cleared")
	}
	if snap.Plan != nil {
		t.Error("plan survived reset")
	}
	if snap.ActiveTab != TabPlanner {
		t.Errorf("active tab = %q, want planner", snap.ActiveTab)
	}
	if snap.FeedGenerated {
		t.Error("feed latch not re-armed")
	}

	// Latch re-armed: a fresh upload and feed generation must work.
	seedAnalysisInto(t, s)
	if err := s.GenerateFeed(); err != nil {
		t.Fatalf("GenerateFeed after reset: %v", err)
	}
	s.Wait()
}

// sessionWithResults builds a session holding one completed analysis using a
// default mock.
func sessionWithResults(t *testing.T) *Session {
	t.Helper()
	return sessionWithResultsAI(t, &mockAI{})
}

func sessionWithResultsAI(t *testing.T, ai *mockAI) *Session {
	t.Helper()
	ai.analyzeFn = func(ctx context.Context, img, zip string) ([]gateway.SuggestionDraft, error) {
		return threeDrafts(), nil
	}
	ai.summarizeFn = func(ctx context.Context, img, zip string) (string, error) {
		return "Well maintained home.", nil
	}
	s := newTestSession(ai, true)
	if _, err := s.UploadImage(pngBytes, "image/png", "90210"); err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	s.Wait()
	if got := s.Snapshot().Analyses[0].State; got != AnalysisResults {
		t.Fatalf("seed analysis state = %q", got)
	}
	return s
}

// seedOneAnalysis builds a session with one completed analysis and the given
// key flag, reusing the caller's mock for later feed calls.
func seedOneAnalysis(t *testing.T, ai *mockAI, keyPresent bool) *Session {
	t.Helper()
	ai.analyzeFn = func(ctx context.Context, img, zip string) ([]gateway.SuggestionDraft, error) {
		return threeDrafts(), nil
	}
	ai.summarizeFn = func(ctx context.Context, img, zip string) (string, error) {
		return "Well maintained home.", nil
	}
	s := newTestSession(ai, keyPresent)
	if _, err := s.UploadImage(pngBytes, "image/png", ""); err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	s.Wait()
	return s
}

func seedAnalysisInto(t *testing.T, s *Session) {
	t.Helper()
	if _, err := s.UploadImage(pngBytes, "image/png", ""); err != nil {
		t.Fatalf("upload after reset: %v", err)
	}
	s.Wait()
}
