package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/renovo/internal/gemini"
)

// ShoppingResult is the raw grounded-search answer plus its source citations.
// The text follows a prompt-level Product:/Price:/Store: line contract;
// ParseProducts extracts structured records best-effort, and callers keep the
// raw text as fallback.
type ShoppingResult struct {
	Text    string          `json:"text"`
	Sources []gemini.Source `json:"sources"`
}

// ShoppingProduct is one parsed product recommendation.
type ShoppingProduct struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Store string `json:"store"`
}

// SearchProducts runs a grounded product search for a renovation task.
// Grounding and schema-constrained output are mutually exclusive on the
// provider, so the output contract is enforced by the prompt alone.
func (g *Gateway) SearchProducts(ctx context.Context, query, zipCode string) (ShoppingResult, error) {
	result, err := g.provider.GenerateContent(ctx, gemini.GenerateRequest{
		Model:        fastModel,
		Parts:        []gemini.Part{gemini.TextPart(productsPrompt(query, zipCode))},
		GoogleSearch: true,
	})
	if err != nil {
		return ShoppingResult{}, fmt.Errorf("searching products: %w", err)
	}
	return ShoppingResult{Text: result.Text, Sources: result.Sources}, nil
}

// ParseProducts extracts Product/Price/Store records from grounded-search
// text. Lines must appear in field order; records missing a product name are
// dropped. Partial trailing records are kept if they carry at least a name.
func ParseProducts(text string) []ShoppingProduct {
	var products []ShoppingProduct
	var current *ShoppingProduct

	flush := func() {
		if current != nil && current.Name != "" {
			products = append(products, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Product:"):
			flush()
			current = &ShoppingProduct{Name: strings.TrimSpace(strings.TrimPrefix(line, "Product:"))}
		case strings.HasPrefix(line, "Price:"):
			if current != nil {
				current.Price = strings.TrimSpace(strings.TrimPrefix(line, "Price:"))
			}
		case strings.HasPrefix(line, "Store:"):
			if current != nil {
				current.Store = strings.TrimSpace(strings.TrimPrefix(line, "Store:"))
			}
		}
	}
	flush()
	return products
}
