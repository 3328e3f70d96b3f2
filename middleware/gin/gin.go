// Package gin provides Gin middleware for gofeed identities.
package gin

import (
	"github.com/gin-gonic/gin"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/middleware"
	"github.com/aloks98/gofeed/token"
)

// ContextKey is the key the identity is stored under in Gin's context.
const ContextKey = "identity"

// Config holds Gin-specific middleware configuration.
type Config struct {
	// CredentialExtractor extracts the credential from the Gin context.
	// Defaults to the Authorization header.
	CredentialExtractor CredentialExtractor

	// ErrorHandler handles rejected requests.
	ErrorHandler ErrorHandler

	// SkipPaths are paths that RequireAuth lets through anonymously.
	SkipPaths []string
}

// CredentialExtractor extracts a "scheme credential" value from a Gin context.
type CredentialExtractor func(c *gin.Context) string

// ErrorHandler handles rejected requests in Gin.
type ErrorHandler func(c *gin.Context, err error)

// DefaultConfig returns a default Gin middleware configuration.
func DefaultConfig() *Config {
	return &Config{
		CredentialExtractor: ExtractFromHeader("Authorization"),
		ErrorHandler:        DefaultErrorHandler,
	}
}

// ExtractFromHeader creates a credential extractor that reads a header verbatim.
func ExtractFromHeader(header string) CredentialExtractor {
	return func(c *gin.Context) string {
		return c.GetHeader(header)
	}
}

// ExtractFromQuery creates a credential extractor for a bare token in a query parameter.
func ExtractFromQuery(param string) CredentialExtractor {
	return func(c *gin.Context) string {
		if v := c.Query(param); v != "" {
			return "Bearer " + v
		}
		return ""
	}
}

// DefaultErrorHandler is the default error handler for Gin.
func DefaultErrorHandler(c *gin.Context, err error) {
	e := gofeed.Classify(err)
	c.AbortWithStatusJSON(e.Status(), middleware.ErrorBody{Message: e.Message, Data: e.Data})
}

// Identify creates a Gin middleware that stores the request identity in both Gin's context
// and the request context. It never rejects.
func Identify(identifier middleware.Identifier, cfg *Config) gin.HandlerFunc {
	cfg = withDefaults(cfg)

	return func(c *gin.Context) {
		id := identifier.Identify(cfg.CredentialExtractor(c))

		c.Set(ContextKey, id)
		c.Request = c.Request.WithContext(middleware.SetIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// RequireAuth creates a Gin middleware that rejects anonymous requests.
func RequireAuth(cfg *Config) gin.HandlerFunc {
	cfg = withDefaults(cfg)

	return func(c *gin.Context) {
		if shouldSkip(c, cfg.SkipPaths) || Identity(c).IsAuthenticated {
			c.Next()
			return
		}
		cfg.ErrorHandler(c, middleware.ErrNotAuthenticated)
	}
}

// Identity retrieves the identity from Gin context.
func Identity(c *gin.Context) token.Identity {
	if v, exists := c.Get(ContextKey); exists {
		if id, ok := v.(token.Identity); ok {
			return id
		}
	}
	return token.Anonymous()
}

// UserID retrieves the authenticated user ID from Gin context.
func UserID(c *gin.Context) string {
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

// shouldSkip checks if the Gin request path should skip authentication.
func shouldSkip(c *gin.Context, skipPaths []string) bool {
	path := c.Request.URL.Path
	for _, skip := range skipPaths {
		if middleware.MatchPath(skip, path) {
			return true
		}
	}
	return false
}
