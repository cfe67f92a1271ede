package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kalambet/renovo/internal/gemini"
)

// DocumentResult is the extracted financial data of a receipt or bid.
type DocumentResult struct {
	MatchedProjectName string  `json:"matchedProjectName"`
	Cost               float64 `json:"cost"`
	Summary            string  `json:"summary"`
}

// IngestDocument reads a receipt or contractor bid and extracts its total
// cost, a one-line summary, and a category name. Image documents go to the
// model inline; PDFs are reduced to their plain text first.
func (g *Gateway) IngestDocument(ctx context.Context, data []byte, mimeType string) (DocumentResult, error) {
	parts, err := documentParts(data, mimeType)
	if err != nil {
		return DocumentResult{}, err
	}

	result, err := g.provider.GenerateContent(ctx, gemini.GenerateRequest{
		Model:          reasoningModel,
		Parts:          parts,
		ResponseSchema: documentSchema(),
	})
	if err != nil {
		return DocumentResult{}, fmt.Errorf("reading document: %w", err)
	}

	var parsed struct {
		TotalCost          float64 `json:"totalCost"`
		Summary            string  `json:"summary"`
		CategorySuggestion string  `json:"categorySuggestion"`
	}
	if err := json.Unmarshal([]byte(result.Text), &parsed); err != nil {
		return DocumentResult{}, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	if parsed.TotalCost < 0 || math.IsNaN(parsed.TotalCost) || math.IsInf(parsed.TotalCost, 0) {
		return DocumentResult{}, fmt.Errorf("%w: cost %v is not a usable amount", ErrModelOutput, parsed.TotalCost)
	}

	return DocumentResult{
		MatchedProjectName: parsed.CategorySuggestion,
		Cost:               parsed.TotalCost,
		Summary:            parsed.Summary,
	}, nil
}

func documentParts(data []byte, mimeType string) ([]gemini.Part, error) {
	if strings.EqualFold(mimeType, "application/pdf") {
		text, err := pdfText(data)
		if err != nil {
			return nil, fmt.Errorf("extracting pdf text: %w", err)
		}
		return []gemini.Part{
			gemini.TextPart("Document text:\n" + text),
			gemini.TextPart(documentPrompt),
		}, nil
	}
	return []gemini.Part{
		gemini.ImagePart(mimeType, base64.StdEncoding.EncodeToString(data)),
		gemini.TextPart(documentPrompt),
	}, nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	if buf.Len() == 0 {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return buf.String(), nil
}

func documentSchema() *gemini.Schema {
	return &gemini.Schema{
		Type: "object",
		Properties: map[string]*gemini.Schema{
			"totalCost":          {Type: "number"},
			"summary":            {Type: "string"},
			"categorySuggestion": {Type: "string"},
		},
		Required: []string{"totalCost", "summary", "categorySuggestion"},
	}
}
