package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/renovo/internal/gemini"
)

// mockProvider implements Provider with pluggable behavior.
type mockProvider struct {
	generate   func(req gemini.GenerateRequest) (*gemini.GenerateResult, error)
	startVideo func(model, prompt string) (string, error)
	pollVideo  func(opName string) (*gemini.VideoOperation, error)
	download   func(uri string) ([]byte, error)
}

func (m *mockProvider) GenerateContent(ctx context.Context, req gemini.GenerateRequest) (*gemini.GenerateResult, error) {
	return m.generate(req)
}

func (m *mockProvider) StartVideo(ctx context.Context, model, prompt string) (string, error) {
	return m.startVideo(model, prompt)
}

func (m *mockProvider) PollVideo(ctx context.Context, opName string) (*gemini.VideoOperation, error) {
	return m.pollVideo(opName)
}

func (m *mockProvider) Download(ctx context.Context, uri string) ([]byte, error) {
	return m.download(uri)
}

func textResult(text string) func(gemini.GenerateRequest) (*gemini.GenerateResult, error) {
	return func(gemini.GenerateRequest) (*gemini.GenerateResult, error) {
		return &gemini.GenerateResult{Text: text}, nil
	}
}

func TestAnalyzeSuggestions_DiscardsMalformed(t *testing.T) {
	payload := `{"suggestions":[
		{"name":"Paint Front Door","description":"Sage green","avgCost":350,"roi":101,"category":"Curb Appeal","rationale":"High visibility"},
		{"name":"","description":"missing name","avgCost":100,"roi":50,"category":"Kitchen"},
		{"name":"Bad Cost","description":"x","avgCost":-5,"roi":50,"category":"Kitchen"},
		{"name":"Weird Category","description":"x","avgCost":10,"roi":20,"category":"Spaceship"}
	]}`
	g := New(&mockProvider{generate: textResult(payload)})

	drafts, err := g.AnalyzeSuggestions(context.Background(), "aW1n", "90210")
	if err != nil {
		t.Fatalf("AnalyzeSuggestions: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2: %+v", len(drafts), drafts)
	}
	if drafts[0].Category != CategoryCurbAppeal {
		t.Errorf("category = %q", drafts[0].Category)
	}
	if drafts[1].Category != CategoryGeneral {
		t.Errorf("unknown category should fold into General, got %q", drafts[1].Category)
	}
}

func TestAnalyzeSuggestions_AllMalformed(t *testing.T) {
	g := New(&mockProvider{generate: textResult(`{"suggestions":[{"name":"","description":""}]}`)})
	if _, err := g.AnalyzeSuggestions(context.Background(), "aW1n", ""); !errors.Is(err, ErrModelOutput) {
		t.Errorf("err = %v, want ErrModelOutput", err)
	}
}

func TestSummarize(t *testing.T) {
	g := New(&mockProvider{generate: textResult("  A craftsman bungalow. Paint the door.  ")})
	got, err := g.Summarize(context.Background(), "aW1n", "90210")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "A craftsman bungalow. Paint the door." {
		t.Errorf("summary = %q", got)
	}

	g = New(&mockProvider{generate: textResult("   ")})
	if _, err := g.Summarize(context.Background(), "aW1n", ""); !errors.Is(err, ErrModelOutput) {
		t.Errorf("err = %v, want ErrModelOutput", err)
	}
}

func TestSearchProducts_UsesGrounding(t *testing.T) {
	var captured gemini.GenerateRequest
	g := New(&mockProvider{generate: func(req gemini.GenerateRequest) (*gemini.GenerateResult, error) {
		captured = req
		return &gemini.GenerateResult{
			Text:    "Product: Kohler Highline Toilet\nPrice: $250\nStore: Home Depot",
			Sources: []gemini.Source{{Title: "HD", URI: "https://homedepot.example"}},
		}, nil
	}})

	result, err := g.SearchProducts(context.Background(), "replace toilet", "90210")
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if !captured.GoogleSearch {
		t.Error("grounded search must be enabled")
	}
	if captured.ResponseSchema != nil {
		t.Error("grounded search must not carry a response schema")
	}
	if len(result.Sources) != 1 || result.Text == "" {
		t.Errorf("result = %+v", result)
	}
}

func TestParseProducts(t *testing.T) {
	text := strings.Join([]string{
		"Product: Kohler Highline Toilet",
		"Price: $250",
		"Store: Home Depot",
		"",
		"Product: Delta Faucet",
		"Price: $129",
		"Store: Lowe's",
		"Product: Nameless trailing",
	}, "\n")

	products := ParseProducts(text)
	if len(products) != 3 {
		t.Fatalf("got %d products: %+v", len(products), products)
	}
	if products[0].Name != "Kohler Highline Toilet" || products[0].Price != "$250" || products[0].Store != "Home Depot" {
		t.Errorf("first = %+v", products[0])
	}
	if products[2].Price != "" {
		t.Errorf("trailing partial record should keep empty fields: %+v", products[2])
	}

	if got := ParseProducts("no structure at all"); len(got) != 0 {
		t.Errorf("unstructured text should parse to zero products, got %+v", got)
	}
}

func TestPlanProjects(t *testing.T) {
	payload := `{"phases":[{"phaseName":"Prep Work","tasks":["Demo"],"duration":"1 week","description":"Clear out"}],"totalDuration":"6 weeks","advice":"Permits first."}`
	var captured gemini.GenerateRequest
	g := New(&mockProvider{generate: func(req gemini.GenerateRequest) (*gemini.GenerateResult, error) {
		captured = req
		return &gemini.GenerateResult{Text: payload}, nil
	}})

	plan, err := g.PlanProjects(context.Background(), []ProjectRef{{Name: "Paint Front Door", Category: "Curb Appeal"}})
	if err != nil {
		t.Fatalf("PlanProjects: %v", err)
	}
	if len(plan.Phases) != 1 || plan.TotalDuration != "6 weeks" {
		t.Errorf("plan = %+v", plan)
	}
	if !strings.Contains(captured.Parts[0].Text, "Paint Front Door (Curb Appeal)") {
		t.Errorf("prompt missing project reference: %s", captured.Parts[0].Text)
	}

	if _, err := g.PlanProjects(context.Background(), nil); !errors.Is(err, ErrModelOutput) {
		t.Errorf("empty projects err = %v, want ErrModelOutput", err)
	}
}

func TestPlanProjects_NoPhases(t *testing.T) {
	g := New(&mockProvider{generate: textResult(`{"phases":[],"totalDuration":"","advice":""}`)})
	if _, err := g.PlanProjects(context.Background(), []ProjectRef{{Name: "X", Category: "General"}}); !errors.Is(err, ErrModelOutput) {
		t.Errorf("err = %v, want ErrModelOutput", err)
	}
}

func TestIngestDocument_Image(t *testing.T) {
	g := New(&mockProvider{generate: textResult(`{"totalCost":500,"summary":"Paint and supplies","categorySuggestion":"Paint"}`)})

	result, err := g.IngestDocument(context.Background(), []byte("jpeg-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("IngestDocument: %v", err)
	}
	if result.Cost != 500 || result.MatchedProjectName != "Paint" {
		t.Errorf("result = %+v", result)
	}
}

func TestIngestDocument_NegativeCost(t *testing.T) {
	g := New(&mockProvider{generate: textResult(`{"totalCost":-1,"summary":"x","categorySuggestion":"y"}`)})
	if _, err := g.IngestDocument(context.Background(), []byte("img"), "image/png"); !errors.Is(err, ErrModelOutput) {
		t.Errorf("err = %v, want ErrModelOutput", err)
	}
}

func TestIngestDocument_BadPDF(t *testing.T) {
	g := New(&mockProvider{generate: textResult(`{}`)})
	if _, err := g.IngestDocument(context.Background(), []byte("not a pdf"), "application/pdf"); err == nil {
		t.Error("garbage pdf should fail before any model call")
	}
}

func TestGenerateFeedPlan_CleansDrafts(t *testing.T) {
	payload := `{"themes":["Modern Farmhouse"],"styleSummary":"Warm woods","initialFeed":[
		{"type":"image","prompt":"a bright kitchen"},
		{"type":"video","prompt":"slow pan of a patio"},
		{"type":"hologram","prompt":"coerced to image"},
		{"type":"image","prompt":""}
	]}`
	g := New(&mockProvider{generate: textResult(payload)})

	plan, err := g.GenerateFeedPlan(context.Background(), []string{"aW1n"}, "teak, brass")
	if err != nil {
		t.Fatalf("GenerateFeedPlan: %v", err)
	}
	if len(plan.InitialFeed) != 3 {
		t.Fatalf("items = %+v, want 3", plan.InitialFeed)
	}
	if plan.InitialFeed[2].Type != FeedTypeImage {
		t.Errorf("unknown type should coerce to image, got %q", plan.InitialFeed[2].Type)
	}
	if plan.Themes[0] != "Modern Farmhouse" || plan.StyleSummary == "" {
		t.Errorf("plan = %+v", plan)
	}
}

func TestExtractVideoStyle(t *testing.T) {
	g := New(&mockProvider{generate: textResult("teak, brass, linen, sage, matte\n")})
	style, err := g.ExtractVideoStyle(context.Background(), "ZnJhbWU=")
	if err != nil {
		t.Fatalf("ExtractVideoStyle: %v", err)
	}
	if style != "teak, brass, linen, sage, matte" {
		t.Errorf("style = %q", style)
	}
}

func TestEditImage(t *testing.T) {
	var captured gemini.GenerateRequest
	g := New(&mockProvider{generate: func(req gemini.GenerateRequest) (*gemini.GenerateResult, error) {
		captured = req
		return &gemini.GenerateResult{InlineData: &gemini.Blob{MIMEType: "image/png", Data: "UE5H"}}, nil
	}})

	url, err := g.EditImage(context.Background(), "aW1n", "image/jpeg", `Apply the following renovation to this image: "Paint Door - sage". Keep the rest of the image the same.`)
	if err != nil {
		t.Fatalf("EditImage: %v", err)
	}
	if url != "data:image/png;base64,UE5H" {
		t.Errorf("url = %q", url)
	}
	if !captured.ImageOutput {
		t.Error("edit must request image output modality")
	}
	if !strings.HasPrefix(captured.Parts[1].Text, "Photorealistic edit. Maintain exact lighting and camera angle.") {
		t.Errorf("prompt = %q", captured.Parts[1].Text)
	}
}

func TestSynthesizeImage_NoInlineData(t *testing.T) {
	g := New(&mockProvider{generate: textResult("sorry, words only")})
	if _, err := g.SynthesizeImage(context.Background(), "a kitchen"); !errors.Is(err, gemini.ErrGenerationFailed) {
		t.Errorf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestGenerateVideo_PollsUntilDone(t *testing.T) {
	dir := t.TempDir()
	polls := 0
	p := &mockProvider{
		startVideo: func(model, prompt string) (string, error) {
			return "operations/vid-1", nil
		},
		pollVideo: func(opName string) (*gemini.VideoOperation, error) {
			polls++
			if polls < 3 {
				return &gemini.VideoOperation{Name: opName}, nil
			}
			return &gemini.VideoOperation{Name: opName, Done: true, DownloadURI: "https://dl.example/v.mp4"}, nil
		},
		download: func(uri string) ([]byte, error) {
			return []byte("VIDEO"), nil
		},
	}
	g := New(p, WithPollInterval(time.Millisecond), WithVideoDir(dir))

	path, err := g.GenerateVideo(context.Background(), "slow pan of a patio")
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "VIDEO" {
		t.Errorf("video file = %q, %v", data, err)
	}
	if polls != 3 {
		t.Errorf("polls = %d, want 3", polls)
	}
}

func TestGenerateVideo_Ceiling(t *testing.T) {
	p := &mockProvider{
		startVideo: func(model, prompt string) (string, error) { return "operations/slow", nil },
		pollVideo: func(opName string) (*gemini.VideoOperation, error) {
			return &gemini.VideoOperation{Name: opName}, nil
		},
	}
	g := New(p, WithPollInterval(time.Millisecond), WithPollCeiling(5*time.Millisecond), WithVideoDir(t.TempDir()))

	if _, err := g.GenerateVideo(context.Background(), "never finishes"); err == nil {
		t.Error("expected ceiling error")
	}
}

func TestGenerateVideo_AuthFailurePropagates(t *testing.T) {
	p := &mockProvider{
		startVideo: func(model, prompt string) (string, error) {
			return "", fmt.Errorf("start: %w", gemini.ErrAuthRequired)
		},
	}
	g := New(p, WithVideoDir(t.TempDir()))

	if _, err := g.GenerateVideo(context.Background(), "x"); !errors.Is(err, gemini.ErrAuthRequired) {
		t.Errorf("err = %v, want ErrAuthRequired", err)
	}
}
