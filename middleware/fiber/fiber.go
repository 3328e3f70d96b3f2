// Package fiber provides Fiber middleware for gofeed identities.
package fiber

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/middleware"
	"github.com/aloks98/gofeed/token"
)

// ContextKey is the key the identity is stored under in Fiber's Locals.
const ContextKey = "identity"

// Config holds Fiber-specific middleware configuration.
type Config struct {
	// CredentialExtractor extracts the credential from the Fiber context.
	// Defaults to the Authorization header.
	CredentialExtractor CredentialExtractor

	// ErrorHandler handles rejected requests.
	ErrorHandler ErrorHandler

	// SkipPaths are paths that RequireAuth lets through anonymously.
	SkipPaths []string
}

// CredentialExtractor extracts a "scheme credential" value from a Fiber context.
type CredentialExtractor func(c *fiber.Ctx) string

// ErrorHandler handles rejected requests in Fiber.
type ErrorHandler func(c *fiber.Ctx, err error) error

// DefaultConfig returns a default Fiber middleware configuration.
func DefaultConfig() *Config {
	return &Config{
		CredentialExtractor: ExtractFromHeader("Authorization"),
		ErrorHandler:        DefaultErrorHandler,
	}
}

// ExtractFromHeader creates a credential extractor that reads a header verbatim.
func ExtractFromHeader(header string) CredentialExtractor {
	return func(c *fiber.Ctx) string {
		return c.Get(header)
	}
}

// ExtractFromCookie creates a credential extractor for a bare token in a cookie.
func ExtractFromCookie(name string) CredentialExtractor {
	return func(c *fiber.Ctx) string {
		if v := c.Cookies(name); v != "" {
			return "Bearer " + v
		}
		return ""
	}
}

// DefaultErrorHandler is the default error handler for Fiber.
func DefaultErrorHandler(c *fiber.Ctx, err error) error {
	e := gofeed.Classify(err)
	return c.Status(e.Status()).JSON(middleware.ErrorBody{Message: e.Message, Data: e.Data})
}

// Identify creates a Fiber middleware that stores the request identity in Locals and the
// user context. It never rejects.
func Identify(identifier middleware.Identifier, cfg *Config) fiber.Handler {
	cfg = withDefaults(cfg)

	return func(c *fiber.Ctx) error {
		id := identifier.Identify(cfg.CredentialExtractor(c))

		c.Locals(ContextKey, id)
		c.SetUserContext(middleware.SetIdentity(c.UserContext(), id))

		return c.Next()
	}
}

// RequireAuth creates a Fiber middleware that rejects anonymous requests.
func RequireAuth(cfg *Config) fiber.Handler {
	cfg = withDefaults(cfg)

	return func(c *fiber.Ctx) error {
		if shouldSkip(c, cfg.SkipPaths) || Identity(c).IsAuthenticated {
			return c.Next()
		}
		return cfg.ErrorHandler(c, middleware.ErrNotAuthenticated)
	}
}

// Identity retrieves the identity from Fiber context.
func Identity(c *fiber.Ctx) token.Identity {
	if id, ok := c.Locals(ContextKey).(token.Identity); ok {
		return id
	}
	return token.Anonymous()
}

// UserID retrieves the authenticated user ID from Fiber context.
func UserID(c *fiber.Ctx) string {
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

// shouldSkip checks if the Fiber request path should skip authentication.
func shouldSkip(c *fiber.Ctx, skipPaths []string) bool {
	path := c.Path()
	for _, skip := range skipPaths {
		if middleware.MatchPath(skip, path) {
			return true
		}
	}
	return false
}
