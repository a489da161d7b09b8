package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultVideoModel = "veo-3.1-fast-generate-preview"
	DefaultChatModel  = "gemini-3-pro-preview"
	DefaultTipModel   = "gemini-2.5-flash-lite"
)

// Options controls how the Gemini client is configured.
type Options struct {
	Keys       studio.KeySource
	BaseURL    string
	ImageModel string
	VideoModel string
	ChatModel  string
	TipModel   string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to the Gemini REST API: generateContent for image edits and
// predictLongRunning plus operation polling for Veo videos.
type Client struct {
	keys       studio.KeySource
	baseURL    string
	imageModel string
	videoModel string
	chatModel  string
	tipModel   string
	httpClient *http.Client
	logger     *infra.Logger
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerateContentRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type veoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoInstance struct {
	Prompt string    `json:"prompt,omitempty"`
	Image  *veoImage `json:"image,omitempty"`
}

type veoParameters struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	SampleCount int    `json:"sampleCount,omitempty"`
}

type veoPredictRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type veoVideo struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

type veoOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples        []veoVideo `json:"generatedSamples"`
			RAIMediaFilteredCount   int        `json:"raiMediaFilteredCount,omitempty"`
			RAIMediaFilteredReasons []string   `json:"raiMediaFilteredReasons,omitempty"`
		} `json:"generateVideoResponse,omitempty"`
		GeneratedVideos []veoVideo `json:"generatedVideos,omitempty"`
	} `json:"response,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; one with a timeout suited to image edits is created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	keys := opts.Keys
	if keys == nil {
		keys = studio.StaticKey("")
	}

	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}

	return &Client{
		keys:       keys,
		baseURL:    baseURL,
		imageModel: firstNonEmpty(opts.ImageModel, DefaultImageModel),
		videoModel: firstNonEmpty(opts.VideoModel, DefaultVideoModel),
		chatModel:  firstNonEmpty(opts.ChatModel, DefaultChatModel),
		tipModel:   firstNonEmpty(opts.TipModel, DefaultTipModel),
		httpClient: client,
		logger:     logger,
	}
}

// EditImage sends the image and instruction to generateContent and returns
// the first inline image part.
func (c *Client) EditImage(ctx context.Context, req studio.MediaJobRequest) (*studio.InlineImage, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: req.Image.MIMEType, Data: req.Image.Encoded}},
				{Text: req.Instruction()},
			},
		}},
	}

	var resp geminiGenerateContentResponse
	path := "/models/" + c.imageModel + ":generateContent"
	if err := c.invoke(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				c.logger.Debug().
					Str("model", c.imageModel).
					Str("mime", part.InlineData.MimeType).
					Msg("genai: received edited image")
				return &studio.InlineImage{MIMEType: part.InlineData.MimeType, Data: part.InlineData.Data}, nil
			}
		}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		c.logger.Info().Str("block_reason", resp.PromptFeedback.BlockReason).Msg("genai: edit prompt blocked")
	}
	return nil, nil
}

// Chat continues a stylist conversation on the chat model.
func (c *Client) Chat(ctx context.Context, req studio.ChatRequest) (string, error) {
	payload := geminiGenerateContentRequest{Contents: make([]geminiContent, 0, len(req.History)+1)}
	if req.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	for _, turn := range req.History {
		payload.Contents = append(payload.Contents, geminiContent{Role: string(turn.Role), Parts: []geminiPart{{Text: turn.Text}}})
	}
	payload.Contents = append(payload.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: req.Message}}})
	return c.generateText(ctx, c.chatModel, payload)
}

// QuickText answers a single prompt on the lightweight tip model.
func (c *Client) QuickText(ctx context.Context, prompt string) (string, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	return c.generateText(ctx, c.tipModel, payload)
}

func (c *Client) generateText(ctx context.Context, model string, payload geminiGenerateContentRequest) (string, error) {
	var resp geminiGenerateContentResponse
	if err := c.invoke(ctx, http.MethodPost, "/models/"+model+":generateContent", payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			c.logger.Info().Str("model", model).Str("block_reason", resp.PromptFeedback.BlockReason).Msg("genai: text prompt blocked")
		}
		return "", nil
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// SubmitVideo starts a Veo long-running prediction.
func (c *Client) SubmitVideo(ctx context.Context, req studio.MediaJobRequest) (*studio.Operation, error) {
	instance := veoInstance{Prompt: req.Prompt}
	if req.HasImage() {
		instance.Image = &veoImage{BytesBase64Encoded: req.Image.Encoded, MimeType: req.Image.MIMEType}
	}
	count := req.Count
	if count <= 0 {
		count = studio.VideoCount
	}
	payload := veoPredictRequest{
		Instances: []veoInstance{instance},
		Parameters: veoParameters{
			AspectRatio: string(req.AspectRatio),
			Resolution:  firstNonEmpty(req.Resolution, studio.VideoResolution),
			SampleCount: count,
		},
	}

	var op veoOperation
	path := "/models/" + c.videoModel + ":predictLongRunning"
	if err := c.invoke(ctx, http.MethodPost, path, payload, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, fmt.Errorf("genai: predictLongRunning returned no operation name")
	}
	c.logger.Info().Str("operation", op.Name).Str("model", c.videoModel).Msg("genai: video operation started")
	return op.toOperation(), nil
}

// PollVideo fetches the current state of a video operation.
func (c *Client) PollVideo(ctx context.Context, op *studio.Operation) (*studio.Operation, error) {
	if op == nil || op.Handle == "" {
		return nil, fmt.Errorf("genai: operation handle is required")
	}
	var out veoOperation
	if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(string(op.Handle), "/"), nil, &out); err != nil {
		return nil, err
	}
	if out.Name == "" {
		out.Name = string(op.Handle)
	}
	return out.toOperation(), nil
}

func (o veoOperation) toOperation() *studio.Operation {
	res := &studio.Operation{Handle: studio.JobHandle(o.Name), Done: o.Done}
	if o.Error != nil {
		res.Error = &studio.OperationError{Code: o.Error.Code, Message: o.Error.Message}
	}
	if o.Response == nil {
		return res
	}
	videos := o.Response.GeneratedVideos
	if gvr := o.Response.GenerateVideoResponse; gvr != nil {
		videos = append(videos, gvr.GeneratedSamples...)
		res.FilteredReasons = gvr.RAIMediaFilteredReasons
	}
	for _, v := range videos {
		if v.Video.URI != "" {
			res.VideoURI = v.Video.URI
			break
		}
	}
	return res
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("genai: resolve api key: %w", err)
	}
	if key == "" {
		return fmt.Errorf("genai: %w: no api key selected", studio.ErrAuthRequired)
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("genai: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", key)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}

func decodeStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(data))
	var apiErr geminiErrorResponse
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}

	auth := resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden ||
		apiErr.Error.Status == "UNAUTHENTICATED" ||
		apiErr.Error.Status == "PERMISSION_DENIED" ||
		strings.Contains(msg, "API key not valid")
	if auth {
		return fmt.Errorf("genai: %w: status %d: %s", studio.ErrAuthRequired, resp.StatusCode, msg)
	}
	if msg == "" {
		return fmt.Errorf("genai: status %d", resp.StatusCode)
	}
	return fmt.Errorf("genai: status %d: %s", resp.StatusCode, msg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var (
	_ studio.Provider     = (*Client)(nil)
	_ studio.TextProvider = (*Client)(nil)
)
