package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/example/swipevocab/internal/auth"
	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/pkg/models"
)

// AuthHandler serves signup, signin and the current-user endpoint
type AuthHandler struct {
	users *database.UserRepository
	jwt   *auth.JWTService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(users *database.UserRepository, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwtService}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (c *credentialsRequest) validate() error {
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return fmt.Errorf("valid email is required")
	}
	if len(c.Password) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	return nil
}

// Signup registers a new user. A duplicate email answers 409.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.users.GetByEmail(req.Email); err == nil {
		respondError(w, http.StatusConflict, "email already registered")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		log.Printf("Signup lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Signup hash failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := &models.User{Email: req.Email, PasswordHash: hash}
	if err := h.users.Create(user); err != nil {
		log.Printf("Signup create failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := h.jwt.GenerateToken(user.ID)
	if err != nil {
		log.Printf("Signup token failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Signin authenticates an existing user. Unknown email and wrong password
// both answer the same 401.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.users.GetByEmail(req.Email)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		log.Printf("Signin lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.jwt.GenerateToken(user.ID)
	if err != nil {
		log.Printf("Signin token failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(UserIDFromContext(r.Context()))
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Printf("Me lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
