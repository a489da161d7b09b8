// Package genaisdk implements the studio provider on top of the official
// google.golang.org/genai SDK.
package genaisdk

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

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

// Client builds an SDK client per API key and rebuilds it when the selected
// key changes.
type Client struct {
	opts   Options
	logger *infra.Logger

	mu     sync.Mutex
	key    string
	client *genai.Client
}

func New(opts Options) *Client {
	if opts.Keys == nil {
		opts.Keys = studio.StaticKey("")
	}
	if opts.ImageModel == "" {
		opts.ImageModel = "gemini-2.5-flash-image"
	}
	if opts.VideoModel == "" {
		opts.VideoModel = "veo-3.1-fast-generate-preview"
	}
	if opts.ChatModel == "" {
		opts.ChatModel = "gemini-3-pro-preview"
	}
	if opts.TipModel == "" {
		opts.TipModel = "gemini-2.5-flash-lite"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{opts: opts, logger: logger}
}

func (c *Client) sdk(ctx context.Context) (*genai.Client, error) {
	key, err := c.opts.Keys.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("genaisdk: resolve api key: %w", err)
	}
	if key == "" {
		return nil, fmt.Errorf("genaisdk: %w: no api key selected", studio.ErrAuthRequired)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil && c.key == key {
		return c.client, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.opts.HTTPClient,
	}
	if c.opts.BaseURL != "" {
		cfg.HTTPOptions = httpOptions(c.opts.BaseURL)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genaisdk: create client: %w", err)
	}
	c.client, c.key = client, key
	return client, nil
}

// httpOptions splits a versioned REST base URL such as ".../v1beta" into the
// host part and the API version the SDK expects separately.
func httpOptions(baseURL string) genai.HTTPOptions {
	base := strings.TrimRight(baseURL, "/")
	if i := strings.LastIndex(base, "/"); i > 0 {
		if v := base[i+1:]; strings.HasPrefix(v, "v1") {
			return genai.HTTPOptions{BaseURL: base[:i] + "/", APIVersion: v}
		}
	}
	return genai.HTTPOptions{BaseURL: base + "/"}
}

func (c *Client) EditImage(ctx context.Context, req studio.MediaJobRequest) (*studio.InlineImage, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return nil, err
	}
	data, err := req.Image.Bytes()
	if err != nil {
		return nil, fmt.Errorf("genaisdk: decode source image: %w", err)
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: req.Image.MIMEType, Data: data}},
		genai.NewPartFromText(req.Instruction()),
	}
	resp, err := client.Models.GenerateContent(ctx, c.opts.ImageModel, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, nil)
	if err != nil {
		return nil, classify(err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &studio.InlineImage{
					MIMEType: part.InlineData.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
				}, nil
			}
		}
	}
	return nil, nil
}

func (c *Client) Chat(ctx context.Context, req studio.ChatRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		contents = append(contents, genai.NewContentFromText(turn.Text, genai.Role(turn.Role)))
	}
	contents = append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))

	var cfg *genai.GenerateContentConfig
	if req.System != "" {
		cfg = &genai.GenerateContentConfig{SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser)}
	}
	return c.generateText(ctx, c.opts.ChatModel, contents, cfg)
}

func (c *Client) QuickText(ctx context.Context, prompt string) (string, error) {
	return c.generateText(ctx, c.opts.TipModel, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
}

func (c *Client) generateText(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", classify(err)
	}
	return responseText(resp), nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func (c *Client) SubmitVideo(ctx context.Context, req studio.MediaJobRequest) (*studio.Operation, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return nil, err
	}

	var image *genai.Image
	if req.HasImage() {
		data, err := req.Image.Bytes()
		if err != nil {
			return nil, fmt.Errorf("genaisdk: decode source image: %w", err)
		}
		image = &genai.Image{ImageBytes: data, MIMEType: req.Image.MIMEType}
	}
	cfg := &genai.GenerateVideosConfig{
		AspectRatio:    string(req.AspectRatio),
		Resolution:     req.Resolution,
		NumberOfVideos: int32(max(req.Count, 1)),
	}

	op, err := client.Models.GenerateVideos(ctx, c.opts.VideoModel, req.Prompt, image, cfg)
	if err != nil {
		return nil, classify(err)
	}
	c.logger.Info().Str("operation", op.Name).Str("model", c.opts.VideoModel).Msg("genaisdk: video operation started")
	return toOperation(op), nil
}

func (c *Client) PollVideo(ctx context.Context, op *studio.Operation) (*studio.Operation, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return nil, err
	}
	next, err := client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: string(op.Handle)}, nil)
	if err != nil {
		return nil, classify(err)
	}
	return toOperation(next), nil
}

func toOperation(op *genai.GenerateVideosOperation) *studio.Operation {
	out := &studio.Operation{Handle: studio.JobHandle(op.Name), Done: op.Done}
	if len(op.Error) > 0 {
		out.Error = &studio.OperationError{Message: fmt.Sprint(op.Error["message"])}
		if code, ok := op.Error["code"].(float64); ok {
			out.Error.Code = int(code)
		}
	}
	if op.Response == nil {
		return out
	}
	out.FilteredReasons = op.Response.RAIMediaFilteredReasons
	for _, v := range op.Response.GeneratedVideos {
		if v != nil && v.Video != nil && v.Video.URI != "" {
			out.VideoURI = v.Video.URI
			break
		}
	}
	return out
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden ||
			apiErr.Status == "UNAUTHENTICATED" || apiErr.Status == "PERMISSION_DENIED" {
			return fmt.Errorf("genaisdk: %w: %v", studio.ErrAuthRequired, err)
		}
	}
	return fmt.Errorf("genaisdk: %w", err)
}

var (
	_ studio.Provider     = (*Client)(nil)
	_ studio.TextProvider = (*Client)(nil)
)
