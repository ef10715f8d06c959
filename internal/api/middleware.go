package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/swipevocab/internal/auth"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	rawTokenKey contextKey = "rawToken"
)

// Authenticator validates the Bearer token and puts the user id (and the raw
// token, which the link-code endpoint re-wraps) on the request context.
func Authenticator(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			userID, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, rawTokenKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user id set by Authenticator
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// RawTokenFromContext returns the bearer token the request was made with
func RawTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(rawTokenKey).(string)
	return token
}
