package api

import (
	"log"
	"net/http"

	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/pkg/models"
)

// WordsHandler serves the word catalog
type WordsHandler struct {
	words *database.WordRepository
}

// NewWordsHandler creates a words handler
func NewWordsHandler(words *database.WordRepository) *WordsHandler {
	return &WordsHandler{words: words}
}

// List returns the full catalog in id order. Clients rely on this order to
// address words by index during hydration.
func (h *WordsHandler) List(w http.ResponseWriter, r *http.Request) {
	words, err := h.words.GetAll()
	if err != nil {
		log.Printf("Failed to list words: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if words == nil {
		words = []models.Word{}
	}
	respondJSON(w, http.StatusOK, words)
}
