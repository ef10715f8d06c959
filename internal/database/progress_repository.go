package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/swipevocab/internal/spaced_repetition"
	"github.com/example/swipevocab/pkg/models"
)

// ProgressRepository handles database operations for per-user word progress.
// All mutations are persisted synchronously; concurrent reviews of the same
// record are last-write-wins (reviews are human-paced).
type ProgressRepository struct {
	sm2 *spaced_repetition.SM2
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{
		sm2: spaced_repetition.NewSM2(),
	}
}

// GetByUserAndWord returns progress for a specific user and word
func (r *ProgressRepository) GetByUserAndWord(userID string, wordID int) (*models.WordProgress, error) {
	var progress models.WordProgress
	err := DB.Get(&progress, "SELECT * FROM word_progress WHERE user_id = $1 AND word_id = $2", userID, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word progress: %v", err)
	}
	return &progress, nil
}

// Add puts a word into the user's review rotation. If a record already exists
// the call degrades to a quality-1 review (a lapse) instead of failing - the
// word was re-swiped "unknown", so it should come back sooner, not error out.
func (r *ProgressRepository) Add(userID string, wordID int, status models.WordStatus, initialQuality spaced_repetition.QualityResponse) (*models.WordProgress, error) {
	existing, err := r.GetByUserAndWord(userID, wordID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		// Слово уже в повторении - засчитываем как неудачный ответ
		return r.RecordReview(userID, wordID, spaced_repetition.QualityIncorrect, "")
	}

	now := time.Now()
	progress := &models.WordProgress{
		ID:             uuid.NewString(),
		UserID:         userID,
		WordID:         wordID,
		EaseFactor:     2.5,
		Interval:       1,
		Repetitions:    0,
		Status:         status,
		NextReviewDate: &now,
		LastReviewDate: &now,
		CreatedAt:      now,
	}
	// A qualifying initial quality seeds the record one ladder step in
	if int(initialQuality) >= r.sm2.PassThreshold {
		progress.Interval = 6
		progress.Repetitions = 1
	}

	_, err = DB.Exec(
		`INSERT INTO word_progress (
			id, user_id, word_id, ease_factor, "interval", repetitions,
			status, next_review_date, last_review_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		progress.ID, progress.UserID, progress.WordID,
		progress.EaseFactor, progress.Interval, progress.Repetitions,
		progress.Status, progress.NextReviewDate, progress.LastReviewDate, progress.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create word progress: %v", err)
	}
	return progress, nil
}

// RecordReview applies one SM-2 review to an existing record. statusOverride,
// when non-empty, replaces the stored status. Returns ErrNotFound when the
// (user, word) pair has no record.
func (r *ProgressRepository) RecordReview(userID string, wordID int, quality spaced_repetition.QualityResponse, statusOverride models.WordStatus) (*models.WordProgress, error) {
	progress, err := r.GetByUserAndWord(userID, wordID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := r.sm2.Process(spaced_repetition.State{
		EaseFactor:  progress.EaseFactor,
		Interval:    progress.Interval,
		Repetitions: progress.Repetitions,
	}, quality, now)

	progress.EaseFactor = result.EaseFactor
	progress.Interval = result.Interval
	progress.Repetitions = result.Repetitions
	progress.NextReviewDate = &result.NextReviewDate
	progress.LastReviewDate = &now
	if statusOverride != "" {
		progress.Status = statusOverride
	}

	_, err = DB.Exec(
		`UPDATE word_progress SET
			ease_factor = $1, "interval" = $2, repetitions = $3,
			status = $4, next_review_date = $5, last_review_date = $6
		WHERE id = $7`,
		progress.EaseFactor, progress.Interval, progress.Repetitions,
		progress.Status, progress.NextReviewDate, progress.LastReviewDate, progress.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update word progress: %v", err)
	}
	return progress, nil
}

// ListByUser returns all progress records for a user, unordered
func (r *ProgressRepository) ListByUser(userID string) ([]models.WordProgress, error) {
	var progress []models.WordProgress
	err := DB.Select(&progress, "SELECT * FROM word_progress WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get word progress: %v", err)
	}
	return progress, nil
}

// ListDue returns records due for review as of the given time. Records with
// status "known" never surface here, even when their review date has passed -
// mastery suppresses resurfacing until an explicit reset.
func (r *ProgressRepository) ListDue(userID string, asOf time.Time) ([]models.WordProgress, error) {
	var progress []models.WordProgress
	err := DB.Select(&progress, `
		SELECT * FROM word_progress
		WHERE user_id = $1 AND status = $2 AND next_review_date <= $3
		ORDER BY next_review_date ASC
	`, userID, models.WordStatusUnknown, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to get due words: %v", err)
	}
	return progress, nil
}

// Remove deletes the record for a single word. Deleting a missing record is
// not an error.
func (r *ProgressRepository) Remove(userID string, wordID int) error {
	_, err := DB.Exec("DELETE FROM word_progress WHERE user_id = $1 AND word_id = $2", userID, wordID)
	if err != nil {
		return fmt.Errorf("failed to remove word progress: %v", err)
	}
	return nil
}

// RemoveAll deletes every progress record for the user
func (r *ProgressRepository) RemoveAll(userID string) error {
	_, err := DB.Exec("DELETE FROM word_progress WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to remove word progress: %v", err)
	}
	return nil
}
