package gofeed

import (
	"time"

	"github.com/aloks98/gofeed/files"
	"github.com/aloks98/gofeed/password"
	"github.com/aloks98/gofeed/store"
)

// Option is a function that modifies the configuration.
type Option func(*Config)

// WithSecret sets the secret key for HMAC signing.
// The secret must be at least 32 characters long.
func WithSecret(secret string) Option {
	return func(c *Config) {
		c.Secret = secret
	}
}

// WithSigningMethod sets the JWT signing algorithm.
func WithSigningMethod(method SigningMethod) Option {
	return func(c *Config) {
		c.SigningMethod = method
	}
}

// WithTokenTTL sets how long issued tokens are valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.TokenTTL = ttl
	}
}

// WithClockSkew sets the leeway applied when checking token expiry.
func WithClockSkew(skew time.Duration) Option {
	return func(c *Config) {
		c.ClockSkew = skew
	}
}

// WithPerPage sets the feed page size.
func WithPerPage(n int) Option {
	return func(c *Config) {
		c.PerPage = n
	}
}

// WithAutoMigrate enables or disables store migration in New.
func WithAutoMigrate(enabled bool) Option {
	return func(c *Config) {
		c.AutoMigrate = enabled
	}
}

// WithStore sets the user and post store. This is a required option.
func WithStore(s store.Store) Option {
	return func(c *Config) {
		c.store = s
	}
}

// WithFileStore sets where post images are kept. Without it images are never released.
func WithFileStore(fs files.Store) Option {
	return func(c *Config) {
		c.files = fs
	}
}

// WithHasher sets the password hasher. Defaults to bcrypt with cost 12.
func WithHasher(h password.Hasher) Option {
	return func(c *Config) {
		c.hasher = h
	}
}

// WithLogger sets the logger for background failures.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		c.logger = l
	}
}

// WithNotifier sets the receiver of post change events.
func WithNotifier(n Notifier) Option {
	return func(c *Config) {
		c.notifier = n
	}
}

// WithClock sets the clock used for timestamps and token lifetimes.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.now = now
	}
}
