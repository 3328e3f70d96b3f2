// Package chi provides Chi middleware for gofeed identities.
// Chi uses standard net/http middleware, so this package provides
// aliases and helpers for convenience.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aloks98/gofeed/middleware"
	"github.com/aloks98/gofeed/token"
)

// Config is an alias for middleware.Config.
type Config = middleware.Config

// Identifier is an alias for middleware.Identifier.
type Identifier = middleware.Identifier

// DefaultConfig returns a default middleware configuration.
func DefaultConfig() *Config {
	return middleware.DefaultConfig()
}

// Identify creates a Chi middleware that stores the request identity. It never rejects.
func Identify(identifier Identifier, cfg *Config) func(http.Handler) http.Handler {
	return middleware.Identify(identifier, cfg)
}

// RequireAuth creates a Chi middleware that rejects anonymous requests.
func RequireAuth(cfg *Config) func(http.Handler) http.Handler {
	return middleware.RequireAuth(cfg)
}

// Identity retrieves the identity from request context.
func Identity(r *http.Request) token.Identity {
	return middleware.GetIdentity(r.Context())
}

// UserID retrieves the authenticated user ID from request context.
func UserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}

// RouteContext returns Chi's route context from the request.
func RouteContext(r *http.Request) *chi.Context {
	return chi.RouteContext(r.Context())
}

// URLParam returns a URL parameter from Chi's route context.
func URLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
