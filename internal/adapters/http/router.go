// Package http exposes the catalog over a JSON REST API.
package http

import (
	"net/http"

	"catalog-server/internal/adapters/http/middleware"
	"catalog-server/internal/adapters/ws/userws"
	"catalog-server/internal/config"
	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

type RouterDeps struct {
	WsUser *userws.Handler

	Auth      *AuthHandler
	Book      *BookHandler
	User      *UserHandler
	Ownership *OwnershipHandler

	AuthService domain.AuthService
	Policy      domain.Policy
	Limiter     *middleware.RateLimiter
	Log         logger.Logger
}

func NewRouter(cfg *config.Config, deps *RouterDeps) http.Handler {
	mux := http.NewServeMux()

	globalMw := middleware.New()
	globalMw.Use(middleware.RequestID())
	globalMw.Use(middleware.Logging(deps.Log))
	globalMw.Use(middleware.Recover(deps.Log))
	globalMw.Use(middleware.CORS(cfg.AllowedOrigins))
	if deps.Limiter != nil {
		globalMw.Use(deps.Limiter.Middleware())
	}

	userStack := middleware.New()
	userStack.Use(middleware.Authenticate(deps.AuthService))

	publicStack := middleware.New()
	publicStack.Use(middleware.Identify(deps.AuthService))

	can := func(action domain.Action, h http.HandlerFunc) http.Handler {
		return userStack.Extend(middleware.Permission(deps.Policy, action)).ThenFunc(h)
	}

	// HEALTH
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// WEBSOCKET
	if deps.WsUser != nil {
		mux.Handle("GET /ws", can(domain.ActionEventStream, deps.WsUser.Serve))
	}

	// AUTH
	mux.HandleFunc("POST /api/auth/login", deps.Auth.Login)
	mux.Handle("POST /api/auth/logout", userStack.ThenFunc(deps.Auth.Logout))

	// BOOKS
	mux.Handle("GET /api/books", can(domain.ActionBookRead, deps.Book.Index))
	mux.Handle("GET /api/books/{id}", can(domain.ActionBookRead, deps.Book.Show))
	mux.Handle("GET /api/books/isbn/{isbn}", can(domain.ActionBookRead, deps.Book.ShowByISBN))
	mux.Handle("POST /api/books", publicStack.ThenFunc(deps.Book.Store))
	mux.Handle("PUT /api/books/{id}", can(domain.ActionBookWrite, deps.Book.Update))
	mux.Handle("DELETE /api/books/{id}", can(domain.ActionBookDelete, deps.Book.Destroy))

	// USERS
	mux.Handle("GET /api/users", can(domain.ActionUserRead, deps.User.Index))
	mux.Handle("GET /api/users/{id}", can(domain.ActionUserRead, deps.User.Show))
	mux.Handle("POST /api/users", publicStack.ThenFunc(deps.User.Store))
	mux.Handle("PUT /api/users/{id}", can(domain.ActionUserWrite, deps.User.Update))
	mux.Handle("PUT /api/users/{id}/password", can(domain.ActionUserWrite, deps.User.ChangePassword))
	mux.Handle("DELETE /api/users/{id}", can(domain.ActionUserDelete, deps.User.Destroy))

	// OWNERSHIP
	mux.Handle("POST /api/users/{userId}/books/{bookId}", can(domain.ActionOwnership, deps.Ownership.Assign))
	mux.Handle("DELETE /api/users/{userId}/books/{bookId}", can(domain.ActionOwnership, deps.Ownership.Deassign))

	return globalMw.Apply(mux)
}
