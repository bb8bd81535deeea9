/*
Package handler provides the development server's HTTP handlers and routing.

This file defines the main Router, applying logging, CORS and per-IP rate
limiting middleware before delegating to the endpoint handlers. The route
table mirrors the REST contract the client engine consumes.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"parley/internal/pkg/auth/jwt"
	"parley/internal/pkg/limiter"
	"parley/internal/pkg/logx"
	"parley/internal/pkg/resp"
)

const (
	// AuthRate and AuthBurst bound login/signup attempts per IP. Everything
	// else is unlimited; the client polls aggressively by design.
	AuthRate  = 1.0
	AuthBurst = 5
)

// Router builds the development server's routing table.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondOK(w, r, map[string]string{
			"status":  "ok",
			"service": "parleyd",
		})
	})

	// Public: account creation, login, and the avatar upload that precedes signup.
	r.Group(func(public chi.Router) {
		public.Use(authLimiter.Middleware)
		public.Post("/auth/login", HandleLogin(deps))
		public.Post("/auth/signup", HandleSignup(deps))
	})
	r.Post("/avatar", HandleUploadAvatar(deps))
	r.Get("/avatar/{key}", HandleGetAvatar(deps))

	// Everything else carries the session credential.
	r.Group(func(authed chi.Router) {
		authed.Use(jwt.RequireAuth(deps.Config.JWTSecret))

		authed.Get("/auth/profile", HandleProfile(deps))
		authed.Get("/user", HandleListUsers(deps))

		authed.Post("/chat", HandleCreateChat(deps))
		authed.Get("/chat/{id}", HandleGetChat(deps))
		authed.Put("/chat/{id}", HandleUpdateChat(deps))
		authed.Get("/chat/user/{userId}", HandleChatsForUser(deps))

		authed.Post("/message", HandlePostMessage(deps))
	})

	return r
}
