package middleware

import (
	"net/http"

	"github.com/aloks98/gofeed"
)

// ErrNotAuthenticated is written by RequireAuth for anonymous requests.
var ErrNotAuthenticated = gofeed.NewError(gofeed.CodeAuthenticationRequired, "Not authenticated", nil)

// Identify creates a middleware that stores the request identity in the context.
// It never rejects: a missing or invalid credential yields the anonymous identity.
func Identify(identifier Identifier, cfg *Config) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := identifier.Identify(cfg.CredentialExtractor(r))
			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth creates a middleware that rejects anonymous requests with 401.
// It must run after Identify.
func RequireAuth(cfg *Config) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ShouldSkip(r, cfg.SkipPaths) || GetIdentity(r.Context()).IsAuthenticated {
				next.ServeHTTP(w, r)
				return
			}
			cfg.ErrorHandler(w, r, ErrNotAuthenticated)
		})
	}
}

// AnswerOptions creates a middleware that answers every OPTIONS request with 200 and an
// empty body. Put it after the CORS middleware so the CORS headers are already set.
func AnswerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
