package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const frameExtractTimeout = 30 * time.Second

// FrameExtractor pulls a representative still frame out of a video file by
// seeking to the midpoint and encoding a JPEG snapshot. Decoding is delegated
// to the ffmpeg/ffprobe binaries on PATH.
type FrameExtractor struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFrameExtractor creates a FrameExtractor using ffmpeg and ffprobe from
// PATH. Binary availability is checked lazily on first use.
func NewFrameExtractor() *FrameExtractor {
	return &FrameExtractor{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe"}
}

// MidFrame returns the base64 JPEG of the frame at duration/2 of the video
// at path. The temporary snapshot file is removed on success and on failure.
func (x *FrameExtractor) MidFrame(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, frameExtractTimeout)
	defer cancel()

	duration, err := x.probeDuration(ctx, path)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "renovo-frame-*.jpg")
	if err != nil {
		return "", fmt.Errorf("%w: creating snapshot file: %v", ErrMediaDecode, err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	mid := strconv.FormatFloat(duration/2, 'f', 3, 64)
	cmd := exec.CommandContext(ctx, x.ffmpegPath,
		"-y", "-v", "error",
		"-ss", mid,
		"-i", path,
		"-frames:v", "1",
		"-q:v", "2",
		tmp.Name(),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: ffmpeg snapshot: %v (%s)", ErrMediaDecode, err, strings.TrimSpace(stderr.String()))
	}

	frame, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("%w: reading snapshot: %v", ErrMediaDecode, err)
	}
	if len(frame) == 0 {
		return "", fmt.Errorf("%w: ffmpeg produced an empty snapshot", ErrMediaDecode)
	}
	return base64.StdEncoding.EncodeToString(frame), nil
}

func (x *FrameExtractor) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, x.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%w: probing video metadata: %v", ErrMediaDecode, err)
	}
	return parseProbeDuration(string(out))
}

// parseProbeDuration converts ffprobe's duration output to seconds.
func parseProbeDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("%w: video has no duration metadata", ErrMediaDecode)
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unexpected duration %q", ErrMediaDecode, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: non-positive duration %v", ErrMediaDecode, d)
	}
	return d, nil
}
