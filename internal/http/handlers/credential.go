package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

// CredentialStatus reports whether a provider key is selected and whether
// any session is waiting for one. The key itself is never returned.
func (a *App) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	selected, _ := a.Keys.IsSelected(r.Context())
	a.json(w, http.StatusOK, map[string]any{
		"selected": selected,
		"pending":  a.Keys.Pending(),
	})
}

// SelectCredential is the completion step of the key selection flow.
func (a *App) SelectCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Keys.Select(r.Context(), req.APIKey); err != nil {
		if errors.Is(err, studio.ErrInvalidInput) {
			a.error(w, http.StatusBadRequest, "bad_request", "api_key is required")
			return
		}
		a.logger(r).Error().Err(err).Msg("persist api key")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store api key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
