package session

// Tabs of the user surface. The session tracks which one is active so the
// view layer can follow command-driven navigation.
const (
	TabPlanner   = "planner"
	TabVisualize = "visualize"
	TabProjects  = "projects"
	TabDiscover  = "discover"
)

// Analysis lifecycle states. An analysis transitions exactly once from
// loading to results or error.
const (
	AnalysisLoading = "loading"
	AnalysisResults = "results"
	AnalysisError   = "error"
)

// Feed item lifecycle states. Transitions are strictly monotonic:
// pending → generating → (complete | error).
const (
	FeedPending    = "pending"
	FeedGenerating = "generating"
	FeedComplete   = "complete"
	FeedError      = "error"
)

// StoredImage is an uploaded photo held as a self-describing data URI.
// Immutable after creation.
type StoredImage struct {
	ID      string `json:"id"`
	DataURL string `json:"dataUrl"`
}

// Suggestion is one renovation suggestion with a stable id assigned at
// ingestion time.
type Suggestion struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	AvgCost     float64 `json:"avgCost"`
	ROI         float64 `json:"roi"`
	Category    string  `json:"category"`
	Rationale   string  `json:"rationale,omitempty"`
}

// Analysis is the unit produced by one uploaded image.
type Analysis struct {
	ID          string       `json:"id"`
	Image       StoredImage  `json:"image"`
	ZipCode     string       `json:"zipCode,omitempty"`
	Suggestions []Suggestion `json:"suggestions"`
	Summary     string       `json:"summary"`
	State       string       `json:"state"`
	Error       string       `json:"error,omitempty"`
}

// Project is a saved suggestion with optional actual-cost tracking.
// ActualCost accumulates receipt/bid amounts; zero means nothing recorded.
type Project struct {
	Suggestion
	Saved      bool    `json:"isSaved"`
	ActualCost float64 `json:"actualCost,omitempty"`
	ZipCode    string  `json:"zipCode,omitempty"`
}

// FeedItem is one post in the inspiration feed. ContentURL is meaningful
// only once Status is complete.
type FeedItem struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Prompt     string `json:"prompt"`
	ContentURL string `json:"contentUrl"`
	Status     string `json:"status"`
}

// Visualization is the single visualization slot. SuggestionID is non-empty
// while an edit is in flight (the spinner-on-card indicator).
type Visualization struct {
	Active         bool        `json:"active"`
	Suggestion     Suggestion  `json:"suggestion"`
	SourceImage    StoredImage `json:"sourceImage"`
	SuggestionID   string      `json:"suggestionId,omitempty"`
	GeneratedImage string      `json:"generatedImage,omitempty"`
	Error          string      `json:"error,omitempty"`
}
