package handlers

import (
	"net/http"

	"github.com/imranraza-AI/Clothing-brand-website/internal/middleware"
	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

type chatRequest struct {
	History []studio.ChatTurn `json:"history"`
	Message string            `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type greetingResponse struct {
	Greeting string `json:"greeting"`
}

type styleTipRequest struct {
	Product string `json:"product"`
}

// StylistGreeting returns the opening line of a stylist conversation.
func (a *App) StylistGreeting(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, greetingResponse{Greeting: a.Stylist.Greeting(locale)})
}

// Chat forwards one message and the client-held history to the stylist.
func (a *App) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	reply, err := a.Stylist.Chat(r.Context(), req.History, req.Message)
	if err != nil {
		notice := a.Stylist.ChatNotice(middleware.LocaleFromContext(r.Context()), err)
		switch studio.KindOf(err) {
		case studio.ErrInvalidInput:
			a.json(w, http.StatusBadRequest, errorBody{Error: notice.Code, Message: notice.Message})
		case studio.ErrSessionClosed:
			a.error(w, http.StatusServiceUnavailable, "canceled", "request canceled")
		default:
			a.logger(r).Warn().Err(err).Msg("stylist chat failed")
			a.json(w, http.StatusBadGateway, errorBody{Error: notice.Code, Message: notice.Message})
		}
		return
	}
	a.json(w, http.StatusOK, chatResponse{Reply: reply})
}

// StyleTip returns a one-sentence tip for a product. Provider failures still
// answer 200 with the stock tip and fallback set.
func (a *App) StyleTip(w http.ResponseWriter, r *http.Request) {
	var req styleTipRequest
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	tip, err := a.Stylist.StyleTip(r.Context(), middleware.LocaleFromContext(r.Context()), req.Product)
	if err != nil {
		if studio.KindOf(err) == studio.ErrInvalidInput {
			a.error(w, http.StatusBadRequest, "invalid_product", err.Error())
			return
		}
		a.error(w, http.StatusServiceUnavailable, "canceled", "request canceled")
		return
	}
	a.json(w, http.StatusOK, tip)
}
