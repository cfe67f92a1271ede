package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout  = 120 * time.Second
	pollTimeout     = 15 * time.Second
	downloadTimeout = 120 * time.Second
	maxDownloadSize = 256 << 20 // 256MB
)

// Client communicates with the Gemini generative API over HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Client with the given API key.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// GenerateContent performs one generation call and flattens the response into
// text, optional inline media, and grounding sources.
func (c *Client) GenerateContent(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if c.apiKey == "" {
		return nil, ErrAuthRequired
	}

	wire := generateContentRequest{
		Contents: []wireContent{{Parts: toWireParts(req.Parts)}},
	}
	if req.ResponseSchema != nil {
		wire.GenerationConfig = &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   req.ResponseSchema,
		}
	}
	if req.ImageOutput {
		if wire.GenerationConfig == nil {
			wire.GenerationConfig = &generationConfig{}
		}
		wire.GenerationConfig.ResponseModalities = []string{"IMAGE"}
	}
	if req.GoogleSearch {
		wire.Tools = []wireTool{{GoogleSearch: &struct{}{}}}
	}

	var resp generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", req.Model)
	if err := c.post(ctx, path, wire, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", ErrGenerationFailed)
	}
	cand := resp.Candidates[0]

	result := &GenerateResult{}
	var text strings.Builder
	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			text.WriteString(p.Text)
		}
		if p.InlineData != nil && result.InlineData == nil {
			result.InlineData = &Blob{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}
		}
	}
	result.Text = text.String()

	if cand.GroundingMetadata != nil {
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			title := chunk.Web.Title
			if title == "" {
				title = "Source"
			}
			result.Sources = append(result.Sources, Source{Title: title, URI: chunk.Web.URI})
		}
	}

	return result, nil
}

// StartVideo begins a long-running video generation and returns the
// operation name to poll.
func (c *Client) StartVideo(ctx context.Context, model, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrAuthRequired
	}

	req := startVideoRequest{
		Instances: []videoInstance{{Prompt: prompt}},
		Parameters: videoParameters{
			SampleCount: 1,
			Resolution:  "720p",
			AspectRatio: "9:16",
		},
	}

	var resp videoOperationResponse
	path := fmt.Sprintf("/models/%s:predictLongRunning", model)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", fmt.Errorf("%w: operation has no name", ErrGenerationFailed)
	}
	return resp.Name, nil
}

// PollVideo fetches the current state of a video operation.
func (c *Client) PollVideo(ctx context.Context, opName string) (*VideoOperation, error) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+opName, nil)
	if err != nil {
		return nil, fmt.Errorf("creating poll request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("polling operation %s: %w", opName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, body)
	}

	var op videoOperationResponse
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decoding operation: %w", err)
	}

	if op.Error != nil {
		if strings.Contains(op.Error.Message, "Requested entity was not found") {
			return nil, fmt.Errorf("%w: %s", ErrAuthRequired, op.Error.Message)
		}
		return nil, fmt.Errorf("video operation failed: %s", op.Error.Message)
	}

	out := &VideoOperation{Name: op.Name, Done: op.Done}
	if op.Done && op.Response != nil && op.Response.GenerateVideoResponse != nil {
		for _, sample := range op.Response.GenerateVideoResponse.GeneratedSamples {
			if sample.Video != nil && sample.Video.URI != "" {
				out.DownloadURI = sample.Video.URI
				break
			}
		}
	}
	return out, nil
}

// Download fetches the bytes behind a signed download URI. The provider
// requires the API key as a query parameter on these URIs.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing download uri: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("reading download body: %w", err)
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return statusError(resp.StatusCode, raw)
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
}

func toWireParts(parts []Part) []wirePart {
	out := make([]wirePart, len(parts))
	for i, p := range parts {
		out[i] = wirePart{Text: p.Text}
		if p.InlineData != nil {
			out[i].InlineData = &wireInlineData{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}
		}
	}
	return out
}
