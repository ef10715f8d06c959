package bot

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/internal/review"
	"github.com/example/swipevocab/internal/spaced_repetition"
	"github.com/example/swipevocab/pkg/models"
)

func newTestBot(t *testing.T) (*Bot, *models.User) {
	t.Helper()
	require.NoError(t, database.Connect("", ":memory:"))
	t.Cleanup(func() { database.Close() })

	user := &models.User{Email: "bot@example.com", PasswordHash: "hash"}
	require.NoError(t, database.NewUserRepository().Create(user))

	return &Bot{
		users:    database.NewUserRepository(),
		words:    database.NewWordRepository(),
		progress: database.NewProgressRepository(),
		links:    make(map[int64]string),
		sessions: make(map[int64]reviewSession),
		decks:    make(map[int64]*chatDeck),
	}, user
}

func createTestWords(t *testing.T, b *Bot, count int) []models.Word {
	t.Helper()
	for i := 0; i < count; i++ {
		word := &models.Word{Word: fmt.Sprintf("word%02d", i), Pos: "noun", Level: "B1"}
		require.NoError(t, b.words.Create(word))
	}
	catalog, err := b.words.GetAll()
	require.NoError(t, err)
	require.Len(t, catalog, count)
	return catalog
}

func TestDeckSwipeKnownMarksExistingRecordKnown(t *testing.T) {
	b, user := newTestBot(t)
	catalog := createTestWords(t, b, 1)
	wordID := catalog[0].ID

	// The word entered the rotation earlier via an "unknown" swipe
	_, err := b.progress.Add(user.ID, wordID, models.WordStatusUnknown, spaced_repetition.QualityIncorrect)
	require.NoError(t, err)

	// A "known" deck swipe must be a qualifying quality-4 review that
	// classifies the word, not a lapse on the existing record
	require.NoError(t, b.applyDecision(user.ID, wordID, true, true))

	record, err := b.progress.GetByUserAndWord(user.ID, wordID)
	require.NoError(t, err)
	assert.Equal(t, models.WordStatusKnown, record.Status)
	assert.Equal(t, 1, record.Repetitions)
	assert.Equal(t, 1, record.Interval)
	assert.Equal(t, 2.5, record.EaseFactor) // quality 4 leaves the ease factor unchanged
}

func TestReviewAnswerKeepsWordInRotation(t *testing.T) {
	b, user := newTestBot(t)
	catalog := createTestWords(t, b, 1)
	wordID := catalog[0].ID

	_, err := b.progress.Add(user.ID, wordID, models.WordStatusUnknown, spaced_repetition.QualityIncorrect)
	require.NoError(t, err)

	// A "know it" answer during review reschedules the word but does not
	// master it; only the explicit "learned" action removes it
	require.NoError(t, b.applyDecision(user.ID, wordID, true, false))

	record, err := b.progress.GetByUserAndWord(user.ID, wordID)
	require.NoError(t, err)
	assert.Equal(t, models.WordStatusUnknown, record.Status)
	assert.Equal(t, 1, record.Repetitions)

	due, err := b.progress.ListDue(user.ID, time.Now().AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, due, 1, "the reviewed word must come back when its interval elapses")
	assert.Equal(t, wordID, due[0].WordID)
}

func TestDecisionCreatesMissingRecord(t *testing.T) {
	b, user := newTestBot(t)
	catalog := createTestWords(t, b, 1)
	wordID := catalog[0].ID

	// The record may have been removed from another client
	require.NoError(t, b.applyDecision(user.ID, wordID, false, false))

	record, err := b.progress.GetByUserAndWord(user.ID, wordID)
	require.NoError(t, err)
	assert.Equal(t, models.WordStatusUnknown, record.Status)
	assert.Equal(t, 0, record.Repetitions)
	assert.Equal(t, 1, record.Interval)
}

func TestConcurrentDeckActionsKeepDeckConsistent(t *testing.T) {
	b, user := newTestBot(t)
	catalog := createTestWords(t, b, 12)

	cd := &chatDeck{deck: review.NewSession()}
	cd.deck.EnsureSession(len(catalog))

	actions := []string{callbackLearnKnown, callbackLearnUnknown, callbackLearnSkip, callbackLearnReset}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(action string) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				assert.NoError(t, b.deckAction(cd, user.ID, action, catalog))
			}
		}(actions[i%len(actions)])
	}
	wg.Wait()

	// The deck stays a duplicate-free set of in-range indexes
	cd.mu.Lock()
	defer cd.mu.Unlock()
	seen := make(map[int]bool)
	for _, idx := range cd.deck.WordOrder {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, len(catalog))
		assert.False(t, seen[idx], "duplicate index %d in deck", idx)
		seen[idx] = true
	}
}
