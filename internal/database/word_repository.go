package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/swipevocab/pkg/models"
)

// WordRepository handles database operations for the word catalog
type WordRepository struct{}

// NewWordRepository creates a new repository instance
func NewWordRepository() *WordRepository {
	return &WordRepository{}
}

// GetAll returns all words ordered by id, matching the catalog order clients index into
func (r *WordRepository) GetAll() ([]models.Word, error) {
	var words []models.Word
	err := DB.Select(&words, "SELECT * FROM words ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get words: %v", err)
	}
	return words, nil
}

// GetByID returns a word by ID
func (r *WordRepository) GetByID(id int) (*models.Word, error) {
	var word models.Word
	err := DB.Get(&word, "SELECT * FROM words WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %v", err)
	}
	return &word, nil
}

// GetByWordAndPos returns a word by its text and part of speech
func (r *WordRepository) GetByWordAndPos(word, pos string) (*models.Word, error) {
	var w models.Word
	err := DB.Get(&w, "SELECT * FROM words WHERE word = $1 AND pos = $2", word, pos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %v", err)
	}
	return &w, nil
}

// Count returns the catalog size
func (r *WordRepository) Count() (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM words")
	if err != nil {
		return 0, fmt.Errorf("failed to count words: %v", err)
	}
	return count, nil
}

// Create inserts a new word
func (r *WordRepository) Create(word *models.Word) error {
	now := time.Now()
	word.CreatedAt = now
	word.UpdatedAt = now

	if DB.DriverName() == "postgres" {
		return DB.QueryRow(
			`INSERT INTO words (word, pos, level, translation, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			word.Word, word.Pos, word.Level, word.Translation, word.CreatedAt, word.UpdatedAt,
		).Scan(&word.ID)
	}

	// SQLite: получаем ID через LastInsertId
	result, err := DB.Exec(
		`INSERT INTO words (word, pos, level, translation, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		word.Word, word.Pos, word.Level, word.Translation, word.CreatedAt, word.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create word: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	word.ID = int(id)
	return nil
}

// Update modifies an existing word
func (r *WordRepository) Update(word *models.Word) error {
	word.UpdatedAt = time.Now()
	_, err := DB.Exec(
		`UPDATE words SET translation = $1, level = $2, updated_at = $3 WHERE id = $4`,
		word.Translation, word.Level, word.UpdatedAt, word.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update word: %v", err)
	}
	return nil
}
