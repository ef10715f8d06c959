// Package linkcode issues short-lived single-use codes that a secondary
// client (the Telegram bot) exchanges for the bearer credential of an
// already-authenticated primary client. The code travels through a low-trust
// channel (a chat deep link) so it must expire fast and redeem at most once.
package linkcode

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when a code does not exist or was already redeemed
	ErrNotFound = errors.New("link code not found")
	// ErrExpired is returned when a code exists but its TTL has elapsed
	ErrExpired = errors.New("link code expired")
)

// codeBytes yields 8 hex characters per code
const codeBytes = 4

type entry struct {
	token     string
	expiresAt time.Time
}

// Store keeps pending link codes in memory. It is created once at process
// start and injected into the API and the sweep job; codes do not survive a
// restart, which is fine for a two-minute TTL.
type Store struct {
	mu    sync.Mutex
	codes map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a store with the given code lifetime
func NewStore(ttl time.Duration) *Store {
	return &Store{
		codes: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL returns the configured code lifetime
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create stores the token under a fresh random code and returns the code
func (s *Store) Create(token string) (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate link code: %v", err)
	}
	code := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = entry{
		token:     token,
		expiresAt: s.now().Add(s.ttl),
	}
	return code, nil
}

// Exchange redeems a code for its token. The lookup, expiry check and delete
// happen under one lock, so concurrent redemption attempts see exactly one
// winner. A second call with the same code returns ErrNotFound.
func (s *Store) Exchange(code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.codes[code]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.codes, code)

	if s.now().After(e.expiresAt) {
		return "", ErrExpired
	}
	return e.token, nil
}

// Sweep evicts expired codes and returns how many were dropped. Called on a
// coarse interval; Exchange enforces expiry precisely regardless.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for code, e := range s.codes {
		if now.After(e.expiresAt) {
			delete(s.codes, code)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of pending codes
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}
