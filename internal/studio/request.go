package studio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

// Kind distinguishes the two media operations the studio performs.
type Kind string

const (
	KindEdit  Kind = "edit"
	KindVideo Kind = "video"
)

// AspectRatio is the closed set of video framings the provider accepts.
type AspectRatio string

const (
	AspectWide AspectRatio = "16:9"
	AspectTall AspectRatio = "9:16"
)

const (
	VideoResolution      = "720p"
	VideoCount           = 1
	DefaultAnimatePrompt = "Animate this fashion item naturally."

	DefaultMaxImageBytes     = 10 << 20
	DefaultMaxImageDimension = 2048
)

// ParseAspectRatio accepts the canonical ratios plus the wide/tall and
// landscape/portrait aliases used by the form and the CLI. Empty means wide.
func ParseAspectRatio(raw string) (AspectRatio, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "16:9", "wide", "landscape":
		return AspectWide, nil
	case "9:16", "tall", "portrait":
		return AspectTall, nil
	default:
		return "", invalidInput(fmt.Sprintf("unsupported aspect ratio %q", raw))
	}
}

// SourceImage is a normalized, base64-encoded input image.
type SourceImage struct {
	MIMEType string
	Encoded  string
	Width    int
	Height   int
}

// Bytes decodes the base64 payload.
func (s SourceImage) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(s.Encoded)
}

// DataURI renders the image as a data: URI for previews.
func (s SourceImage) DataURI() string {
	if s.Encoded == "" {
		return ""
	}
	return "data:" + s.MIMEType + ";base64," + s.Encoded
}

// MediaJobRequest is an immutable description of one media job.
type MediaJobRequest struct {
	Kind        Kind
	Prompt      string
	Image       SourceImage
	AspectRatio AspectRatio
	Resolution  string
	Count       int
}

// HasImage reports whether a source image is attached.
func (r MediaJobRequest) HasImage() bool {
	return r.Image.Encoded != ""
}

// Instruction is the text part sent to the provider alongside the image.
func (r MediaJobRequest) Instruction() string {
	if r.Kind == KindEdit {
		return fmt.Sprintf("Edit this image: %s. Return the image only.", r.Prompt)
	}
	return r.Prompt
}

// EditInput is the raw form input of an image edit.
type EditInput struct {
	Image    []byte
	MIMEType string
	Prompt   string
}

// VideoInput is the raw form input of a video generation.
type VideoInput struct {
	Image       []byte
	MIMEType    string
	Prompt      string
	AspectRatio string
}

// BuilderOptions bounds accepted uploads.
type BuilderOptions struct {
	MaxImageBytes     int
	MaxImageDimension int
}

// RequestBuilder validates raw inputs and produces MediaJobRequests. It
// performs no I/O.
type RequestBuilder struct {
	maxBytes int
	maxDim   int
}

func NewRequestBuilder(opts BuilderOptions) *RequestBuilder {
	b := &RequestBuilder{maxBytes: opts.MaxImageBytes, maxDim: opts.MaxImageDimension}
	if b.maxBytes <= 0 {
		b.maxBytes = DefaultMaxImageBytes
	}
	if b.maxDim <= 0 {
		b.maxDim = DefaultMaxImageDimension
	}
	return b
}

// BuildEdit requires both an image and a non-blank instruction.
func (b *RequestBuilder) BuildEdit(in EditInput) (MediaJobRequest, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if len(in.Image) == 0 {
		return MediaJobRequest{}, invalidInput("edit requires a source image")
	}
	if prompt == "" {
		return MediaJobRequest{}, invalidInput("edit requires an instruction")
	}
	img, err := b.normalizeImage(in.Image, in.MIMEType)
	if err != nil {
		return MediaJobRequest{}, err
	}
	return MediaJobRequest{Kind: KindEdit, Prompt: prompt, Image: img}, nil
}

// BuildVideo requires a prompt or an image. An image without a prompt gets
// the default animation prompt.
func (b *RequestBuilder) BuildVideo(in VideoInput) (MediaJobRequest, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" && len(in.Image) == 0 {
		return MediaJobRequest{}, invalidInput("video requires a prompt or an image")
	}
	aspect, err := ParseAspectRatio(in.AspectRatio)
	if err != nil {
		return MediaJobRequest{}, err
	}
	req := MediaJobRequest{
		Kind:        KindVideo,
		Prompt:      prompt,
		AspectRatio: aspect,
		Resolution:  VideoResolution,
		Count:       VideoCount,
	}
	if len(in.Image) > 0 {
		img, err := b.normalizeImage(in.Image, in.MIMEType)
		if err != nil {
			return MediaJobRequest{}, err
		}
		req.Image = img
		if req.Prompt == "" {
			req.Prompt = DefaultAnimatePrompt
		}
	}
	return req, nil
}

func (b *RequestBuilder) normalizeImage(data []byte, declared string) (SourceImage, error) {
	if len(data) > b.maxBytes {
		return SourceImage{}, invalidInput(fmt.Sprintf("image exceeds %d bytes", b.maxBytes))
	}
	mimeType := sniffImageType(data, declared)
	if mimeType == "" {
		return SourceImage{}, invalidInput("upload is not an image")
	}

	out := SourceImage{MIMEType: mimeType}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// Formats without a registered decoder (webp) pass through untouched.
		out.Encoded = base64.StdEncoding.EncodeToString(data)
		return out, nil
	}
	out.Width, out.Height = cfg.Width, cfg.Height

	if cfg.Width > b.maxDim || cfg.Height > b.maxDim {
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return SourceImage{}, invalidInput(fmt.Sprintf("decode image: %v", err))
		}
		fitted := imaging.Fit(img, b.maxDim, b.maxDim, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, fitted, imaging.PNG); err != nil {
			return SourceImage{}, invalidInput(fmt.Sprintf("encode image: %v", err))
		}
		data = buf.Bytes()
		out.MIMEType = "image/png"
		out.Width, out.Height = fitted.Bounds().Dx(), fitted.Bounds().Dy()
	}

	out.Encoded = base64.StdEncoding.EncodeToString(data)
	return out, nil
}

func sniffImageType(data []byte, declared string) string {
	detected := http.DetectContentType(data)
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if strings.HasPrefix(declared, "image/") && detected == "application/octet-stream" {
		return declared
	}
	return ""
}
