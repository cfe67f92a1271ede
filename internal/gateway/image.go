package gateway

import (
	"context"
	"fmt"

	"github.com/kalambet/renovo/internal/gemini"
	"github.com/kalambet/renovo/internal/media"
)

// EditImage applies a renovation to the given image and returns the result as
// a PNG data URI. The prompt is wrapped to preserve lighting and camera angle.
func (g *Gateway) EditImage(ctx context.Context, imageBase64, mimeType, prompt string) (string, error) {
	result, err := g.provider.GenerateContent(ctx, gemini.GenerateRequest{
		Model: imageModel,
		Parts: []gemini.Part{
			gemini.ImagePart(mimeType, imageBase64),
			gemini.TextPart(editPrompt(prompt)),
		},
		ImageOutput: true,
	})
	if err != nil {
		return "", fmt.Errorf("editing image: %w", err)
	}
	if result.InlineData == nil || result.InlineData.Data == "" {
		return "", fmt.Errorf("%w: edit produced no image", gemini.ErrGenerationFailed)
	}
	return media.DataURL("image/png", result.InlineData.Data), nil
}

// SynthesizeImage generates a fresh image from a prompt as a PNG data URI.
func (g *Gateway) SynthesizeImage(ctx context.Context, prompt string) (string, error) {
	result, err := g.provider.GenerateContent(ctx, gemini.GenerateRequest{
		Model:       imageModel,
		Parts:       []gemini.Part{gemini.TextPart(prompt)},
		ImageOutput: true,
	})
	if err != nil {
		return "", fmt.Errorf("synthesizing image: %w", err)
	}
	if result.InlineData == nil || result.InlineData.Data == "" {
		return "", fmt.Errorf("%w: synthesis produced no image", gemini.ErrGenerationFailed)
	}
	return media.DataURL("image/png", result.InlineData.Data), nil
}
