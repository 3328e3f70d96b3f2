// Package middleware carries the request identity through HTTP handlers.
//
// Identify derives the identity from the request's credential and never rejects a request;
// operations decide for themselves whether they need an authenticated identity.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/token"
)

// contextKey is a type for context keys to avoid collisions.
type contextKey string

// IdentityKey is the context key for storing the request identity.
const IdentityKey contextKey = "gofeed_identity"

// Identifier derives an identity from a raw "scheme credential" value.
// Both *gofeed.Feed and *token.Service implement it.
type Identifier interface {
	Identify(header string) token.Identity
}

// CredentialExtractor returns the raw "scheme credential" value of a request.
type CredentialExtractor func(r *http.Request) string

// ErrorHandler handles rejected requests.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Config holds middleware configuration.
type Config struct {
	// CredentialExtractor extracts the credential from the request.
	// Defaults to the Authorization header.
	CredentialExtractor CredentialExtractor

	// ErrorHandler writes rejections. Defaults to DefaultErrorHandler.
	ErrorHandler ErrorHandler

	// SkipPaths are paths that RequireAuth lets through anonymously.
	SkipPaths []string
}

// DefaultConfig returns a default middleware configuration.
func DefaultConfig() *Config {
	return &Config{
		CredentialExtractor: ExtractFromHeader("Authorization"),
		ErrorHandler:        DefaultErrorHandler,
	}
}

func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.CredentialExtractor == nil {
		out.CredentialExtractor = ExtractFromHeader("Authorization")
	}
	if out.ErrorHandler == nil {
		out.ErrorHandler = DefaultErrorHandler
	}
	return &out
}

// ExtractFromHeader creates a CredentialExtractor that reads a header verbatim.
func ExtractFromHeader(header string) CredentialExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(header)
	}
}

// ExtractFromQuery creates a CredentialExtractor for a bare token in a query parameter.
func ExtractFromQuery(param string) CredentialExtractor {
	return func(r *http.Request) string {
		return bearer(r.URL.Query().Get(param))
	}
}

// ExtractFromCookie creates a CredentialExtractor for a bare token in a cookie.
func ExtractFromCookie(name string) CredentialExtractor {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return bearer(cookie.Value)
	}
}

// ChainExtractors chains multiple extractors, returning the first non-empty result.
func ChainExtractors(extractors ...CredentialExtractor) CredentialExtractor {
	return func(r *http.Request) string {
		for _, extractor := range extractors {
			if cred := extractor(r); cred != "" {
				return cred
			}
		}
		return ""
	}
}

func bearer(raw string) string {
	if raw == "" {
		return ""
	}
	return "Bearer " + raw
}

// ErrorBody is the JSON body written for a rejected request.
type ErrorBody struct {
	Message string              `json:"message"`
	Data    []gofeed.FieldError `json:"data,omitempty"`
}

// DefaultErrorHandler is the default error handler.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, err)
}

// WriteError writes err as a JSON body with the status of its classification.
// Unclassified errors are written as a generic internal error.
func WriteError(w http.ResponseWriter, err error) {
	e := gofeed.Classify(err)
	WriteJSON(w, e.Status(), ErrorBody{Message: e.Message, Data: e.Data})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ShouldSkip checks if the request path should skip authentication.
func ShouldSkip(r *http.Request, skipPaths []string) bool {
	path := r.URL.Path
	for _, skip := range skipPaths {
		if MatchPath(skip, path) {
			return true
		}
	}
	return false
}

// MatchPath checks if a path matches a pattern.
// Supports * as a wildcard for path segments.
func MatchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}

	// Handle wildcard patterns like /images/*
	if strings.HasSuffix(pattern, "/*") {
		prefix := pattern[:len(pattern)-2]
		return strings.HasPrefix(path, prefix)
	}

	// Handle wildcard patterns like /feed/*/comments
	if strings.Contains(pattern, "*") {
		patternParts := strings.Split(pattern, "/")
		pathParts := strings.Split(path, "/")

		if len(patternParts) != len(pathParts) {
			return false
		}

		for i, part := range patternParts {
			if part != "*" && part != pathParts[i] {
				return false
			}
		}
		return true
	}

	return false
}

// SetIdentity stores the identity in the context.
func SetIdentity(ctx context.Context, id token.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity retrieves the identity from the context. A context without one is anonymous.
func GetIdentity(ctx context.Context) token.Identity {
	if id, ok := ctx.Value(IdentityKey).(token.Identity); ok {
		return id
	}
	return token.Anonymous()
}

// GetUserID retrieves the authenticated user ID from the context, or "".
func GetUserID(ctx context.Context) string {
	return GetIdentity(ctx).UserID
}
