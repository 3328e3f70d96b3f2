// Package echo provides Echo middleware for gofeed identities.
package echo

import (
	"github.com/labstack/echo/v4"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/middleware"
	"github.com/aloks98/gofeed/token"
)

// ContextKey is the key the identity is stored under in Echo's context.
const ContextKey = "identity"

// Config holds Echo-specific middleware configuration.
type Config struct {
	// CredentialExtractor extracts the credential from the Echo context.
	// Defaults to the Authorization header.
	CredentialExtractor CredentialExtractor

	// ErrorHandler handles rejected requests.
	ErrorHandler ErrorHandler

	// SkipPaths are paths that RequireAuth lets through anonymously.
	SkipPaths []string
}

// CredentialExtractor extracts a "scheme credential" value from an Echo context.
type CredentialExtractor func(c echo.Context) string

// ErrorHandler handles rejected requests in Echo.
type ErrorHandler func(c echo.Context, err error) error

// DefaultConfig returns a default Echo middleware configuration.
func DefaultConfig() *Config {
	return &Config{
		CredentialExtractor: ExtractFromHeader("Authorization"),
		ErrorHandler:        DefaultErrorHandler,
	}
}

// ExtractFromHeader creates a credential extractor that reads a header verbatim.
func ExtractFromHeader(header string) CredentialExtractor {
	return func(c echo.Context) string {
		return c.Request().Header.Get(header)
	}
}

// ExtractFromCookie creates a credential extractor for a bare token in a cookie.
func ExtractFromCookie(name string) CredentialExtractor {
	return func(c echo.Context) string {
		cookie, err := c.Cookie(name)
		if err != nil || cookie.Value == "" {
			return ""
		}
		return "Bearer " + cookie.Value
	}
}

// DefaultErrorHandler is the default error handler for Echo.
func DefaultErrorHandler(c echo.Context, err error) error {
	e := gofeed.Classify(err)
	return c.JSON(e.Status(), middleware.ErrorBody{Message: e.Message, Data: e.Data})
}

// Identify creates an Echo middleware that stores the request identity in both Echo's context
// and the request context. It never rejects.
func Identify(identifier middleware.Identifier, cfg *Config) echo.MiddlewareFunc {
	cfg = withDefaults(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := identifier.Identify(cfg.CredentialExtractor(c))

			c.Set(ContextKey, id)
			c.SetRequest(c.Request().WithContext(middleware.SetIdentity(c.Request().Context(), id)))

			return next(c)
		}
	}
}

// RequireAuth creates an Echo middleware that rejects anonymous requests.
func RequireAuth(cfg *Config) echo.MiddlewareFunc {
	cfg = withDefaults(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if shouldSkip(c, cfg.SkipPaths) || Identity(c).IsAuthenticated {
				return next(c)
			}
			return cfg.ErrorHandler(c, middleware.ErrNotAuthenticated)
		}
	}
}

// Identity retrieves the identity from Echo context.
func Identity(c echo.Context) token.Identity {
	if id, ok := c.Get(ContextKey).(token.Identity); ok {
		return id
	}
	return token.Anonymous()
}

// UserID retrieves the authenticated user ID from Echo context.
func UserID(c echo.Context) string {
	return Identity(c).UserID
}

func withDefaults(cfg *Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	out := *cfg
	if out.CredentialExtractor == nil {
		out.CredentialExtractor = ExtractFromHeader("Authorization")
	}
	if out.ErrorHandler == nil {
		out.ErrorHandler = DefaultErrorHandler
	}
	return &out
}

// shouldSkip checks if the Echo request path should skip authentication.
func shouldSkip(c echo.Context, skipPaths []string) bool {
	path := c.Request().URL.Path
	for _, skip := range skipPaths {
		if middleware.MatchPath(skip, path) {
			return true
		}
	}
	return false
}
