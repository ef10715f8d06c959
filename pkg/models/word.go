package models

import "time"

// Word represents a vocabulary catalog entry to be learned
type Word struct {
	ID          int       `json:"id" db:"id"`
	Word        string    `json:"word" db:"word"`
	Pos         string    `json:"pos" db:"pos"`     // Part of speech (noun, verb, ...)
	Level       string    `json:"level" db:"level"` // CEFR level (A1-C2)
	Translation string    `json:"translation" db:"translation"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
