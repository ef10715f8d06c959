package models

import "time"

// WordStatus describes whether a word is still being reviewed or mastered
type WordStatus string

const (
	// WordStatusUnknown means the word is in the review rotation
	WordStatusUnknown WordStatus = "unknown"
	// WordStatusKnown means the word is mastered and excluded from due queries
	WordStatusKnown WordStatus = "known"
)

// WordProgress tracks a user's progress with a specific word using the SM-2 algorithm.
// There is at most one record per (user, word) pair.
type WordProgress struct {
	ID             string     `json:"id" db:"id"` // UUID, immutable after creation
	UserID         string     `json:"user_id" db:"user_id"`
	WordID         int        `json:"word_id" db:"word_id"`
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`   // SM-2 EF parameter, never below 1.3
	Interval       int        `json:"interval" db:"interval"`         // Current interval in days
	Repetitions    int        `json:"repetitions" db:"repetitions"`   // Consecutive qualifying reviews
	Status         WordStatus `json:"status" db:"status"`
	NextReviewDate *time.Time `json:"next_review_date" db:"next_review_date"`
	LastReviewDate *time.Time `json:"last_review_date" db:"last_review_date"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
