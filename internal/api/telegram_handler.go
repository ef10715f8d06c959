package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/swipevocab/internal/linkcode"
)

// TelegramHandler serves the link-code bridge between the web client and the
// Telegram bot.
type TelegramHandler struct {
	codes *linkcode.Store
}

// NewTelegramHandler creates a telegram bridge handler
func NewTelegramHandler(codes *linkcode.Store) *TelegramHandler {
	return &TelegramHandler{codes: codes}
}

// CreateLinkCode wraps the caller's own bearer token in a short-lived
// single-use code the bot can redeem.
func (h *TelegramHandler) CreateLinkCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.codes.Create(RawTokenFromContext(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"code":      code,
		"expiresIn": int(h.codes.TTL().Seconds()),
	})
}

type exchangeRequest struct {
	Code string `json:"code"`
}

// ExchangeLinkCode redeems a code for the token it wraps. Unknown or already
// used codes answer 404; expired ones 410.
func (h *TelegramHandler) ExchangeLinkCode(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	token, err := h.codes.Exchange(req.Code)
	if errors.Is(err, linkcode.ErrNotFound) {
		respondError(w, http.StatusNotFound, "link code not found")
		return
	}
	if errors.Is(err, linkcode.ErrExpired) {
		respondError(w, http.StatusGone, "link code expired")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
