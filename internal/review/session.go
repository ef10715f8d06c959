// Package review implements the client-local swipe deck: a shuffled pass over
// the word catalog where "unknown" words loop back until cleared within the
// sitting. The server-side progress store stays the source of truth for
// scheduling; this package only decides what to show next.
package review

import (
	"math/rand"
	"time"
)

// Decision is the outcome of one swipe
type Decision string

const (
	// DecisionKnown means the user recognized the word
	DecisionKnown Decision = "known"
	// DecisionUnknown means the user did not recognize the word
	DecisionUnknown Decision = "unknown"
)

// Session holds the deck state for one client instance. It is not safe for
// concurrent use; each client runs a single session.
type Session struct {
	WordOrder      []int
	CurrentIndex   int
	KnownWordIDs   map[int]bool
	UnknownWordIDs map[int]bool
	SessionDate    string // YYYY-MM-DD, local
	ReviewedToday  map[int]bool

	rnd *rand.Rand
	now func() time.Time
}

// NewSession creates an empty session; the deck is established lazily on the
// first operation that knows the catalog size.
func NewSession() *Session {
	s := &Session{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	s.clearSets()
	s.SessionDate = s.todayKey()
	return s
}

func (s *Session) clearSets() {
	s.KnownWordIDs = make(map[int]bool)
	s.UnknownWordIDs = make(map[int]bool)
	s.ReviewedToday = make(map[int]bool)
}

func (s *Session) todayKey() string {
	return s.now().Format("2006-01-02")
}

// rolloverDay clears only the reviewed-today tracking when the calendar day
// changed. The deck and the known/unknown sets survive the day boundary.
func (s *Session) rolloverDay() {
	key := s.todayKey()
	if s.SessionDate == key {
		return
	}
	s.SessionDate = key
	s.ReviewedToday = make(map[int]bool)
}

// shuffleRange returns a uniform random permutation of [0, length)
func (s *Session) shuffleRange(length int) []int {
	order := make([]int, length)
	for i := range order {
		order[i] = i
	}
	s.rnd.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

func (s *Session) shuffleSet(set map[int]bool) []int {
	order := make([]int, 0, len(set))
	for idx := range set {
		order = append(order, idx)
	}
	s.rnd.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// EnsureSession (re)initializes the deck when none exists or the catalog size
// changed. An established matching deck is left untouched.
func (s *Session) EnsureSession(totalWords int) {
	if totalWords == 0 {
		return
	}
	s.rolloverDay()
	if len(s.WordOrder) == totalWords {
		return
	}
	s.WordOrder = s.shuffleRange(totalWords)
	s.CurrentIndex = 0
	s.KnownWordIDs = make(map[int]bool)
	s.UnknownWordIDs = make(map[int]bool)
}

// Current returns the word index under the cursor, or ok=false when the deck
// is exhausted or not yet established.
func (s *Session) Current() (int, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.WordOrder) {
		return 0, false
	}
	return s.WordOrder[s.CurrentIndex], true
}

// Swipe records a known/unknown decision for the current word and advances the
// deck. Reaching the end of the deck with unknown words pending reshuffles
// them into a fresh sub-deck, so unknowns repeat until cleared in one sitting.
func (s *Session) Swipe(decision Decision, totalWords int) {
	if totalWords == 0 {
		return
	}
	s.rolloverDay()

	if len(s.WordOrder) == 0 {
		s.WordOrder = s.shuffleRange(totalWords)
		s.CurrentIndex = 0
	}

	current, ok := s.Current()
	if !ok {
		return
	}

	// Защита от двойного учета: убираем из обоих множеств
	delete(s.KnownWordIDs, current)
	delete(s.UnknownWordIDs, current)
	if decision == DecisionKnown {
		s.KnownWordIDs[current] = true
	} else {
		s.UnknownWordIDs[current] = true
	}
	s.ReviewedToday[current] = true

	next := s.CurrentIndex + 1
	if next >= len(s.WordOrder) {
		if len(s.UnknownWordIDs) > 0 {
			s.WordOrder = s.shuffleSet(s.UnknownWordIDs)
			next = 0
		} else {
			next = len(s.WordOrder)
		}
	}
	s.CurrentIndex = next
}

// Skip moves the current word to a random later position in the deck without
// classifying it. No-op when fewer than two words remain.
func (s *Session) Skip(totalWords int) {
	if totalWords == 0 {
		return
	}
	s.rolloverDay()

	if len(s.WordOrder) == 0 {
		s.WordOrder = s.shuffleRange(totalWords)
		s.CurrentIndex = 0
	}

	current, ok := s.Current()
	if !ok || len(s.WordOrder) <= 1 {
		return
	}

	order := append([]int{}, s.WordOrder[:s.CurrentIndex]...)
	order = append(order, s.WordOrder[s.CurrentIndex+1:]...)

	// Вставляем не раньше текущей позиции
	base := s.CurrentIndex
	if base > len(order) {
		base = len(order)
	}
	insertAt := base
	if len(order)-base > 0 {
		insertAt = base + s.rnd.Intn(len(order)-base+1)
	}

	order = append(order, 0)
	copy(order[insertAt+1:], order[insertAt:])
	order[insertAt] = current
	s.WordOrder = order
}

// Reset discards everything: fresh permutation, empty sets, today's stamp.
// Irreversible; callers confirm with the user before invoking.
func (s *Session) Reset(totalWords int) {
	s.WordOrder = s.shuffleRange(totalWords)
	s.CurrentIndex = 0
	s.clearSets()
	s.SessionDate = s.todayKey()
}

// Hydrate seeds the session from server-side progress: a one-way pull that
// replaces the known/unknown sets with the de-duplicated, range-checked
// server sets and deals a fresh deck. Local-only progress that was never
// pushed to the server is discarded here.
func (s *Session) Hydrate(knownIndexes, unknownIndexes []int, totalWords int) {
	known := make(map[int]bool)
	for _, idx := range knownIndexes {
		if idx >= 0 && idx < totalWords {
			known[idx] = true
		}
	}
	unknown := make(map[int]bool)
	for _, idx := range unknownIndexes {
		if idx >= 0 && idx < totalWords {
			unknown[idx] = true
		}
	}

	s.WordOrder = s.shuffleRange(totalWords)
	s.CurrentIndex = 0
	s.KnownWordIDs = known
	s.UnknownWordIDs = unknown
	s.ReviewedToday = make(map[int]bool)
	s.SessionDate = s.todayKey()
}
