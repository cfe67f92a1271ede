package gemini

// Part is one piece of multimodal request content: text, or inline media.
type Part struct {
	Text       string
	InlineData *Blob
}

// Blob is base64-encoded media with its mime type.
type Blob struct {
	MIMEType string
	Data     string
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline media part.
func ImagePart(mimeType, b64 string) Part {
	return Part{InlineData: &Blob{MIMEType: mimeType, Data: b64}}
}

// Schema describes the expected JSON output structure for schema-constrained
// generation, mirroring the provider's response-schema format.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// GenerateRequest is one content-generation call. ResponseSchema and
// GoogleSearch are mutually exclusive on the provider side; the caller picks
// at most one.
type GenerateRequest struct {
	Model          string
	Parts          []Part
	ResponseSchema *Schema
	GoogleSearch   bool
	ImageOutput    bool
}

// Source is one grounding citation attached to a generated response.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// GenerateResult carries the useful slices of a generation response: the
// concatenated text parts, the first inline media part if any, and grounding
// sources (entries without a URI are dropped).
type GenerateResult struct {
	Text       string
	InlineData *Blob
	Sources    []Source
}

// VideoOperation is the state of a long-running video generation.
type VideoOperation struct {
	Name        string
	Done        bool
	DownloadURI string
}

// --- wire format ---

type generateContentRequest struct {
	Contents         []wireContent     `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	Tools            []wireTool        `json:"tools,omitempty"`
}

type wireContent struct {
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *wireInlineData `json:"inlineData,omitempty"`
}

type wireInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType   string   `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema  `json:"responseSchema,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type wireTool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generateContentResponse struct {
	Candidates []wireCandidate `json:"candidates"`
}

type wireCandidate struct {
	Content           wireContent        `json:"content"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

type groundingMetadata struct {
	GroundingChunks []groundingChunk `json:"groundingChunks"`
}

type groundingChunk struct {
	Web *webSource `json:"web"`
}

type webSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type startVideoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	SampleCount int    `json:"sampleCount"`
	Resolution  string `json:"resolution,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type videoOperationResponse struct {
	Name     string              `json:"name"`
	Done     bool                `json:"done"`
	Response *videoOperationBody `json:"response,omitempty"`
	Error    *operationError     `json:"error,omitempty"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type videoOperationBody struct {
	GenerateVideoResponse *generateVideoResponse `json:"generateVideoResponse,omitempty"`
}

type generateVideoResponse struct {
	GeneratedSamples []generatedSample `json:"generatedSamples"`
}

type generatedSample struct {
	Video *sampleVideo `json:"video,omitempty"`
}

type sampleVideo struct {
	URI string `json:"uri"`
}
