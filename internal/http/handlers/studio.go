package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/imranraza-AI/Clothing-brand-website/internal/middleware"
	"github.com/imranraza-AI/Clothing-brand-website/internal/storage"
	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
	"github.com/imranraza-AI/Clothing-brand-website/pkg/zip"
)

const multipartOverhead = 1 << 20

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := a.Studio.Create(middleware.LocaleFromContext(r.Context()))
	w.Header().Set("Location", "/v1/studio/sessions/"+sess.ID())
	a.json(w, http.StatusCreated, sess.Snapshot())
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, sess.Snapshot())
}

func (a *App) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Studio.Close(chi.URLParam(r, "id")); err != nil {
		a.studioError(w, r, studio.KindEdit, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tabRequest struct {
	Tab string `json:"tab"`
}

func (a *App) SetTab(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req tabRequest
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := sess.SetTab(req.Tab); err != nil {
		a.studioError(w, r, studio.KindEdit, err)
		return
	}
	a.json(w, http.StatusOK, sess.Snapshot())
}

// SubmitEdit accepts multipart fields "image" and "prompt".
func (a *App) SubmitEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	image, mimeType, err := a.readUpload(w, r)
	if err != nil {
		a.studioError(w, r, studio.KindEdit, err)
		return
	}
	in := studio.EditInput{Image: image, MIMEType: mimeType, Prompt: r.FormValue("prompt")}
	if err := sess.SubmitEdit(in); err != nil {
		a.studioError(w, r, studio.KindEdit, err)
		return
	}
	a.json(w, http.StatusAccepted, sess.Snapshot())
}

// SubmitVideo accepts multipart fields "image" (optional), "prompt" and
// "aspect_ratio".
func (a *App) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	image, mimeType, err := a.readUpload(w, r)
	if err != nil {
		a.studioError(w, r, studio.KindVideo, err)
		return
	}
	in := studio.VideoInput{
		Image:       image,
		MIMEType:    mimeType,
		Prompt:      r.FormValue("prompt"),
		AspectRatio: r.FormValue("aspect_ratio"),
	}
	if err := sess.SubmitVideo(in); err != nil {
		a.studioError(w, r, studio.KindVideo, err)
		return
	}
	a.json(w, http.StatusAccepted, sess.Snapshot())
}

// Archive streams every archived edit of the session as a zip file.
func (a *App) Archive(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if a.Results == nil {
		a.error(w, http.StatusNotFound, "not_found", "archive storage not configured")
		return
	}
	keys := sess.ArchivedKeys()
	if len(keys) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no archived results")
		return
	}

	entries := make([]zip.Entry, 0, len(keys))
	for _, key := range keys {
		data, err := a.Results.Read(r.Context(), key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			a.logger(r).Warn().Err(err).Str("key", key).Msg("read archived result")
			continue
		}
		entries = append(entries, zip.Entry{Name: key, Data: data, Modified: time.Now()})
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=studio-%s.zip", sess.ID()))
	w.WriteHeader(http.StatusOK)
	if err := zip.Write(w, entries); err != nil {
		a.logger(r).Warn().Err(err).Msg("write archive")
	}
}

// ListJobs lists the persisted video job history of the session.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if a.Jobs == nil {
		a.json(w, http.StatusOK, map[string]any{"items": []any{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := a.Jobs.ListBySession(r.Context(), sess.ID(), limit)
	if err != nil {
		a.logger(r).Error().Err(err).Msg("list studio jobs")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load jobs")
		return
	}
	items := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		items = append(items, map[string]any{
			"id":         rec.ID,
			"kind":       rec.Kind,
			"state":      rec.State,
			"operation":  rec.Handle,
			"prompt":     rec.Prompt,
			"error":      rec.Error,
			"started_at": rec.StartedAt,
			"updated_at": rec.UpdatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) session(w http.ResponseWriter, r *http.Request) (*studio.Session, bool) {
	sess, err := a.Studio.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.studioError(w, r, studio.KindEdit, err)
		return nil, false
	}
	return sess, true
}

// readUpload returns the optional "image" file of a multipart form.
func (a *App) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	maxBytes := int64(studio.DefaultMaxImageBytes)
	if a.Config != nil && a.Config.MaxImageBytes > 0 {
		maxBytes = int64(a.Config.MaxImageBytes)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		return nil, "", &studio.JobError{Kind: studio.ErrInvalidInput, Detail: "invalid multipart form", Err: err}
	}
	file, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", &studio.JobError{Kind: studio.ErrInvalidInput, Detail: "invalid image upload", Err: err}
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", &studio.JobError{Kind: studio.ErrInvalidInput, Detail: "read image upload", Err: err}
	}
	return data, hdr.Header.Get("Content-Type"), nil
}
