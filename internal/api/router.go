package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/swipevocab/internal/auth"
	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/internal/linkcode"
)

// NewRouter wires all HTTP routes
func NewRouter(
	jwtService *auth.JWTService,
	users *database.UserRepository,
	words *database.WordRepository,
	progress *database.ProgressRepository,
	codes *linkcode.Store,
) http.Handler {
	authHandler := NewAuthHandler(users, jwtService)
	wordsHandler := NewWordsHandler(words)
	progressHandler := NewProgressHandler(progress)
	telegramHandler := NewTelegramHandler(codes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/signin", authHandler.Signin)
		r.Post("/telegram/exchange", telegramHandler.ExchangeLinkCode)

		r.Group(func(r chi.Router) {
			r.Use(Authenticator(jwtService))

			r.Get("/auth/me", authHandler.Me)
			r.Get("/words", wordsHandler.List)

			r.Get("/progress", progressHandler.List)
			r.Get("/progress/due", progressHandler.ListDue)
			r.Post("/progress/{wordId}", progressHandler.Add)
			r.Put("/progress/{wordId}", progressHandler.Review)
			r.Delete("/progress/{wordId}", progressHandler.Remove)
			r.Delete("/progress", progressHandler.RemoveAll)

			r.Post("/telegram/link-code", telegramHandler.CreateLinkCode)
		})
	})

	return r
}
