package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// GenerateVideo runs a full video generation: start the operation, poll at a
// fixed interval until done or the wall-clock ceiling is hit, download the
// blob, and materialize it as a local file. The returned path stays on disk
// for the rest of the session. No retry; failures propagate.
func (g *Gateway) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	opName, err := g.provider.StartVideo(ctx, videoModel, prompt)
	if err != nil {
		return "", fmt.Errorf("starting video generation: %w", err)
	}

	deadline := time.Now().Add(g.pollCeiling)
	var downloadURI string
	for {
		op, err := g.provider.PollVideo(ctx, opName)
		if err != nil {
			return "", fmt.Errorf("polling video operation: %w", err)
		}
		if op.Done {
			if op.DownloadURI == "" {
				return "", fmt.Errorf("video generation completed but no download link was provided")
			}
			downloadURI = op.DownloadURI
			break
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("video generation did not finish within %s", g.pollCeiling)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.pollInterval):
		}
	}

	data, err := g.provider.Download(ctx, downloadURI)
	if err != nil {
		return "", fmt.Errorf("fetching video file: %w", err)
	}

	if err := os.MkdirAll(g.videoDir, 0o755); err != nil {
		return "", fmt.Errorf("creating video dir: %w", err)
	}
	path := filepath.Join(g.videoDir, uuid.New().String()+".mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing video file: %w", err)
	}
	return path, nil
}
