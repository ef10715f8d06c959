package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/internal/spaced_repetition"
	"github.com/example/swipevocab/pkg/models"
)

// ProgressHandler serves the per-user word progress endpoints
type ProgressHandler struct {
	progress *database.ProgressRepository
}

// NewProgressHandler creates a progress handler
func NewProgressHandler(progress *database.ProgressRepository) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

func wordIDParam(r *http.Request) (int, bool) {
	wordID, err := strconv.Atoi(chi.URLParam(r, "wordId"))
	if err != nil || wordID <= 0 {
		return 0, false
	}
	return wordID, true
}

func parseStatus(raw string) (models.WordStatus, bool) {
	switch models.WordStatus(raw) {
	case models.WordStatusKnown:
		return models.WordStatusKnown, true
	case models.WordStatusUnknown:
		return models.WordStatusUnknown, true
	}
	return "", false
}

// List returns all progress records for the authenticated user
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.progress.ListByUser(UserIDFromContext(r.Context()))
	if err != nil {
		log.Printf("Failed to list progress: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []models.WordProgress{}
	}
	respondJSON(w, http.StatusOK, records)
}

// ListDue returns records whose review date has arrived
func (h *ProgressHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	records, err := h.progress.ListDue(UserIDFromContext(r.Context()), time.Now())
	if err != nil {
		log.Printf("Failed to list due progress: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []models.WordProgress{}
	}
	respondJSON(w, http.StatusOK, records)
}

type addProgressRequest struct {
	Status  string `json:"status"`
	Quality *int   `json:"quality,omitempty"`
}

// Add puts a word into the user's rotation. Without an explicit quality the
// initial quality follows the swipe decision the status encodes.
func (h *ProgressHandler) Add(w http.ResponseWriter, r *http.Request) {
	wordID, ok := wordIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "wordId must be a positive integer")
		return
	}

	// Тело необязательно: по умолчанию слово попадает в ротацию как unknown
	req := addProgressRequest{Status: string(models.WordStatusUnknown)}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, ok := parseStatus(req.Status)
	if !ok {
		respondError(w, http.StatusBadRequest, "status must be \"known\" or \"unknown\"")
		return
	}

	quality := spaced_repetition.QualityForDecision(status == models.WordStatusKnown)
	if req.Quality != nil {
		if *req.Quality < 0 || *req.Quality > 5 {
			respondError(w, http.StatusBadRequest, "quality must be between 0 and 5")
			return
		}
		quality = spaced_repetition.QualityResponse(*req.Quality)
	}

	record, err := h.progress.Add(UserIDFromContext(r.Context()), wordID, status, quality)
	if err != nil {
		log.Printf("Failed to add progress: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

type reviewRequest struct {
	Quality int    `json:"quality"`
	Status  string `json:"status,omitempty"`
}

// Review records one review of an existing record. Answers 404 when the word
// was never added.
func (h *ProgressHandler) Review(w http.ResponseWriter, r *http.Request) {
	wordID, ok := wordIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "wordId must be a positive integer")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quality < 0 || req.Quality > 5 {
		respondError(w, http.StatusBadRequest, "quality must be between 0 and 5")
		return
	}
	var statusOverride models.WordStatus
	if req.Status != "" {
		status, ok := parseStatus(req.Status)
		if !ok {
			respondError(w, http.StatusBadRequest, "status must be \"known\" or \"unknown\"")
			return
		}
		statusOverride = status
	}

	record, err := h.progress.RecordReview(
		UserIDFromContext(r.Context()), wordID,
		spaced_repetition.QualityResponse(req.Quality), statusOverride,
	)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "word progress not found")
		return
	}
	if err != nil {
		log.Printf("Failed to record review: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// Remove drops one word from the rotation. Removing an absent word still
// answers 204.
func (h *ProgressHandler) Remove(w http.ResponseWriter, r *http.Request) {
	wordID, ok := wordIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "wordId must be a positive integer")
		return
	}
	if err := h.progress.Remove(UserIDFromContext(r.Context()), wordID); err != nil {
		log.Printf("Failed to remove progress: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveAll clears the user's entire rotation
func (h *ProgressHandler) RemoveAll(w http.ResponseWriter, r *http.Request) {
	if err := h.progress.RemoveAll(UserIDFromContext(r.Context())); err != nil {
		log.Printf("Failed to remove progress: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
