package studio

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
)

// ImagePayload is an edited image ready for display.
type ImagePayload struct {
	MIMEType string
	Data     string
	DataURI  string
}

// Editor performs single-shot image edits.
type Editor struct {
	provider Provider
	logger   *infra.Logger
	observer Observer
}

func NewEditor(provider Provider, observer Observer, logger *infra.Logger) *Editor {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Editor{provider: provider, logger: ensureLogger(logger), observer: observer}
}

// EditImage sends req to the provider once. A nil payload with a nil error
// means the provider returned no image part. Every provider failure is
// reported as ErrRequestFailed; there are no retries.
func (e *Editor) EditImage(ctx context.Context, req MediaJobRequest) (*ImagePayload, error) {
	if req.Kind != KindEdit || !req.HasImage() || strings.TrimSpace(req.Prompt) == "" {
		return nil, invalidInput("edit requires a source image and an instruction")
	}

	start := time.Now()
	img, err := e.provider.EditImage(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			e.observer.EditFinished("canceled", time.Since(start))
			return nil, sessionClosed(ctx.Err())
		}
		e.observer.EditFinished("failed", time.Since(start))
		e.logger.Warn().Err(err).Msg("studio: image edit failed")
		return nil, requestFailed(err)
	}
	if img == nil || img.Data == "" {
		e.observer.EditFinished("empty", time.Since(start))
		e.logger.Info().Msg("studio: image edit returned no image")
		return nil, nil
	}

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	e.observer.EditFinished("succeeded", time.Since(start))
	return &ImagePayload{
		MIMEType: mimeType,
		Data:     img.Data,
		DataURI:  "data:" + mimeType + ";base64," + img.Data,
	}, nil
}

func ensureLogger(logger *infra.Logger) *infra.Logger {
	if logger != nil {
		return logger
	}
	l := zerolog.New(io.Discard)
	return &l
}
