// Package ratelimit limits requests per client with a sliding window.
package ratelimit

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/middleware"
)

// Defaults used when a limiter is built from configuration.
const (
	DefaultRate   = 120
	DefaultWindow = time.Minute
)

// ErrRateLimited is written for rejected requests.
var ErrRateLimited = gofeed.NewError(gofeed.CodeRateLimited, "Too many requests.", nil)

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter defines the interface for rate limiters.
type Limiter interface {
	// Allow records one request for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (Result, error)

	// AllowN records n requests for key.
	AllowN(ctx context.Context, key string, n int) (Result, error)

	// Reset clears the history of key.
	Reset(ctx context.Context, key string) error

	// Close releases any resources held by the limiter.
	Close() error
}

// Config holds rate limit middleware configuration.
type Config struct {
	// KeyFunc extracts the rate limit key from an HTTP request.
	// Defaults to client IP address.
	KeyFunc func(r *http.Request) string

	// SkipFunc determines if a request should skip rate limiting.
	SkipFunc func(r *http.Request) bool

	// OnLimited writes the response for a rejected request.
	// Defaults to a 429 JSON error.
	OnLimited func(w http.ResponseWriter, r *http.Request, res Result)

	// Logger receives limiter failures. Defaults to a standard logger prefixed "[ratelimit] ".
	Logger gofeed.Logger
}

// DefaultConfig returns a default middleware configuration.
func DefaultConfig() *Config {
	return &Config{
		KeyFunc:   GetClientIP,
		OnLimited: DefaultOnLimited,
		Logger:    log.New(os.Stderr, "[ratelimit] ", log.LstdFlags),
	}
}

// DefaultOnLimited writes a RATE_LIMITED error.
func DefaultOnLimited(w http.ResponseWriter, r *http.Request, res Result) {
	middleware.WriteError(w, ErrRateLimited)
}

// GetClientIP extracts the client IP from an HTTP request.
// Checks X-Forwarded-For and X-Real-IP headers first.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware creates an HTTP middleware that applies rate limiting.
// Limiter failures are logged and the request is let through.
func Middleware(limiter Limiter, cfg *Config) func(http.Handler) http.Handler {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}

	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = defaults.KeyFunc
	}
	onLimited := cfg.OnLimited
	if onLimited == nil {
		onLimited = defaults.OnLimited
	}
	logger := cfg.Logger
	if logger == nil {
		logger = defaults.Logger
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.SkipFunc != nil && cfg.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Printf("error checking rate limit for key %s: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}

			setHeaders(w, res)
			if !res.Allowed {
				retryAfter := int(time.Until(res.ResetAt).Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 0)))
				onLimited(w, r, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setHeaders(w http.ResponseWriter, res Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}
