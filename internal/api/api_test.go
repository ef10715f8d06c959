package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/swipevocab/internal/auth"
	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/internal/linkcode"
	"github.com/example/swipevocab/pkg/models"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func setupAPI(t *testing.T) (http.Handler, *linkcode.Store) {
	t.Helper()
	require.NoError(t, database.Connect("", ":memory:"))
	t.Cleanup(func() { database.Close() })

	jwtService, err := auth.NewJWTService(testJWTSecret, time.Hour)
	require.NoError(t, err)
	codes := linkcode.NewStore(2 * time.Minute)

	router := NewRouter(
		jwtService,
		database.NewUserRepository(),
		database.NewWordRepository(),
		database.NewProgressRepository(),
		codes,
	)
	return router, codes
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func signupUser(t *testing.T, handler http.Handler, email string) string {
	t.Helper()
	rec := doRequest(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignupAndSignin(t *testing.T) {
	handler, _ := setupAPI(t)

	token := signupUser(t, handler, "user@example.com")

	// Duplicate email
	rec := doRequest(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "user@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Signin with correct credentials
	rec = doRequest(t, handler, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "user@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Wrong password and unknown email answer the same 401
	rec = doRequest(t, handler, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "user@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doRequest(t, handler, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// /auth/me returns the signed-up user
	rec = doRequest(t, handler, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Email string `json:"email"`
	}
	decodeBody(t, rec, &me)
	assert.Equal(t, "user@example.com", me.Email)
}

func TestSignupValidation(t *testing.T) {
	handler, _ := setupAPI(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "not-an-email",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "user@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	handler, _ := setupAPI(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/progress", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/progress", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProgressFlow(t *testing.T) {
	handler, _ := setupAPI(t)
	token := signupUser(t, handler, "user@example.com")

	// Add a word swiped "unknown"
	rec := doRequest(t, handler, http.MethodPost, "/api/progress/1", token, map[string]string{
		"status": "unknown",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var record struct {
		WordID      int     `json:"word_id"`
		Interval    int     `json:"interval"`
		Repetitions int     `json:"repetitions"`
		EaseFactor  float64 `json:"ease_factor"`
	}
	decodeBody(t, rec, &record)
	assert.Equal(t, 1, record.WordID)
	assert.Equal(t, 1, record.Interval)
	assert.Equal(t, 0, record.Repetitions)

	// The word shows up in both lists
	rec = doRequest(t, handler, http.MethodGet, "/api/progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []json.RawMessage
	decodeBody(t, rec, &records)
	assert.Len(t, records, 1)

	rec = doRequest(t, handler, http.MethodGet, "/api/progress/due", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &records)
	assert.Len(t, records, 1)

	// A successful review advances the record
	rec = doRequest(t, handler, http.MethodPut, "/api/progress/1", token, map[string]interface{}{
		"quality": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &record)
	assert.Equal(t, 1, record.Repetitions)

	// Reviewing a word that was never added answers 404
	rec = doRequest(t, handler, http.MethodPut, "/api/progress/99", token, map[string]interface{}{
		"quality": 4,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Deletes answer 204, even for absent records
	rec = doRequest(t, handler, http.MethodDelete, "/api/progress/1", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, handler, http.MethodDelete, "/api/progress/1", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, handler, http.MethodDelete, "/api/progress", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &records)
	assert.Empty(t, records)
}

func TestAddWithoutBodyDefaultsToUnknown(t *testing.T) {
	handler, _ := setupAPI(t)
	token := signupUser(t, handler, "user@example.com")

	// No body at all: the word enters the rotation as "unknown"
	rec := doRequest(t, handler, http.MethodPost, "/api/progress/1", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var record struct {
		Status      string `json:"status"`
		Interval    int    `json:"interval"`
		Repetitions int    `json:"repetitions"`
	}
	decodeBody(t, rec, &record)
	assert.Equal(t, "unknown", record.Status)
	assert.Equal(t, 1, record.Interval)
	assert.Equal(t, 0, record.Repetitions)

	// An empty JSON object behaves the same
	rec = doRequest(t, handler, http.MethodPost, "/api/progress/2", token, map[string]string{})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestProgressValidation(t *testing.T) {
	handler, _ := setupAPI(t)
	token := signupUser(t, handler, "user@example.com")

	// wordId must be a positive integer
	rec := doRequest(t, handler, http.MethodPost, "/api/progress/abc", token, map[string]string{"status": "unknown"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doRequest(t, handler, http.MethodPost, "/api/progress/0", token, map[string]string{"status": "unknown"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// status must be one of the two decisions
	rec = doRequest(t, handler, http.MethodPost, "/api/progress/1", token, map[string]string{"status": "mastered"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// quality is bounded to the SM-2 scale
	rec = doRequest(t, handler, http.MethodPost, "/api/progress/1", token, map[string]interface{}{
		"status": "unknown", "quality": 6,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPut, "/api/progress/1", token, map[string]interface{}{"quality": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressIsPerUser(t *testing.T) {
	handler, _ := setupAPI(t)
	tokenA := signupUser(t, handler, "a@example.com")
	tokenB := signupUser(t, handler, "b@example.com")

	rec := doRequest(t, handler, http.MethodPost, "/api/progress/1", tokenA, map[string]string{"status": "unknown"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/progress", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []json.RawMessage
	decodeBody(t, rec, &records)
	assert.Empty(t, records)
}

func TestLinkCodeFlow(t *testing.T) {
	handler, _ := setupAPI(t)
	token := signupUser(t, handler, "user@example.com")

	rec := doRequest(t, handler, http.MethodPost, "/api/telegram/link-code", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Code      string `json:"code"`
		ExpiresIn int    `json:"expiresIn"`
	}
	decodeBody(t, rec, &created)
	assert.Len(t, created.Code, 8)
	assert.Equal(t, 120, created.ExpiresIn)

	// The exchanged token is the caller's own bearer token
	rec = doRequest(t, handler, http.MethodPost, "/api/telegram/exchange", "", map[string]string{"code": created.Code})
	require.Equal(t, http.StatusOK, rec.Code)
	var exchanged struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &exchanged)
	assert.Equal(t, token, exchanged.Token)

	// Codes are single-use
	rec = doRequest(t, handler, http.MethodPost, "/api/telegram/exchange", "", map[string]string{"code": created.Code})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/telegram/exchange", "", map[string]string{"code": "deadbeef"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/telegram/exchange", "", map[string]string{"code": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWordsCatalogOrder(t *testing.T) {
	handler, _ := setupAPI(t)
	token := signupUser(t, handler, "user@example.com")

	repo := database.NewWordRepository()
	for _, text := range []string{"apple", "brisk", "candid"} {
		require.NoError(t, repo.Create(&models.Word{Word: text, Pos: "adj", Level: "B1"}))
	}

	rec := doRequest(t, handler, http.MethodGet, "/api/words", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var words []models.Word
	decodeBody(t, rec, &words)
	require.Len(t, words, 3)
	// Catalog order is id order; hydrating clients index into it
	for i := 1; i < len(words); i++ {
		assert.Greater(t, words[i].ID, words[i-1].ID)
	}
}
