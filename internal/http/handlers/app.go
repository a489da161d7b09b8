package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
	"github.com/imranraza-AI/Clothing-brand-website/internal/middleware"
	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

// ResultReader loads archived results by storage key.
type ResultReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// JobHistory lists persisted video jobs of a session.
type JobHistory interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]studio.JobRecord, error)
}

type App struct {
	Config  *infra.Config
	Logger  *infra.Logger
	Studio  *studio.Registry
	Keys    *studio.Keyring
	Results ResultReader
	Jobs    JobHistory
	Stylist *studio.Stylist
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errCode, Message: message})
}

// studioError maps a studio error to a status code and a localized message.
func (a *App) studioError(w http.ResponseWriter, r *http.Request, kind studio.Kind, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	notice := a.Studio.Messages().FromError(locale, kind, err)
	switch studio.KindOf(err) {
	case studio.ErrInvalidInput:
		a.json(w, http.StatusBadRequest, errorBody{Error: notice.Code, Message: notice.Message})
	case studio.ErrBusy:
		a.json(w, http.StatusConflict, errorBody{Error: notice.Code, Message: notice.Message})
	case studio.ErrUnknownSession:
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	case studio.ErrSessionClosed:
		a.error(w, http.StatusGone, "session_closed", "session closed")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("studio request failed")
		a.error(w, http.StatusInternalServerError, "internal", notice.Message)
	}
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	if a.Logger != nil {
		return a.Logger
	}
	discard := zerolog.New(io.Discard)
	return &discard
}
