// Package gateway is the capability façade over the generative-AI provider.
// Consumers see discrete renovation-domain capabilities; model selection,
// response-schema plumbing, and grounding extraction stay internal.
package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/kalambet/renovo/internal/gemini"
)

// Model assignments per capability class. Reasoning-heavy calls (appraisal,
// sequencing, document reading) go to the pro model; everything conversational
// goes to flash.
const (
	reasoningModel = "gemini-3-pro-preview"
	fastModel      = "gemini-2.5-flash"
	imageModel     = "gemini-2.5-flash-image"
	videoModel     = "veo-3.1-fast-generate-preview"
)

// ErrModelOutput indicates the model returned parseable but semantically
// incomplete data for a schema-constrained call.
var ErrModelOutput = errors.New("model returned invalid output")

// Provider is the slice of the raw client the gateway consumes.
type Provider interface {
	GenerateContent(ctx context.Context, req gemini.GenerateRequest) (*gemini.GenerateResult, error)
	StartVideo(ctx context.Context, model, prompt string) (string, error)
	PollVideo(ctx context.Context, opName string) (*gemini.VideoOperation, error)
	Download(ctx context.Context, uri string) ([]byte, error)
}

// Gateway exposes the renovation capabilities backed by a Provider.
type Gateway struct {
	provider     Provider
	pollInterval time.Duration
	pollCeiling  time.Duration
	videoDir     string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithPollInterval overrides the video polling interval (default 10s).
func WithPollInterval(d time.Duration) Option {
	return func(g *Gateway) { g.pollInterval = d }
}

// WithPollCeiling overrides the video polling wall-clock ceiling (default 10m).
func WithPollCeiling(d time.Duration) Option {
	return func(g *Gateway) { g.pollCeiling = d }
}

// WithVideoDir sets where downloaded video blobs are materialized.
func WithVideoDir(dir string) Option {
	return func(g *Gateway) { g.videoDir = dir }
}

// New creates a Gateway over the given provider.
func New(p Provider, opts ...Option) *Gateway {
	g := &Gateway{
		provider:     p,
		pollInterval: 10 * time.Second,
		pollCeiling:  10 * time.Minute,
		videoDir:     filepath.Join(os.TempDir(), "renovo-videos"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
