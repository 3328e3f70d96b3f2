package gofeed

import (
	"fmt"
	"time"

	"github.com/aloks98/gofeed/files"
	"github.com/aloks98/gofeed/password"
	"github.com/aloks98/gofeed/store"
)

// SigningMethod represents the JWT signing algorithm.
type SigningMethod string

const (
	// SigningMethodHS256 uses HMAC-SHA256 for signing.
	SigningMethodHS256 SigningMethod = "HS256"

	// SigningMethodHS384 uses HMAC-SHA384 for signing.
	SigningMethodHS384 SigningMethod = "HS384"

	// SigningMethodHS512 uses HMAC-SHA512 for signing.
	SigningMethodHS512 SigningMethod = "HS512"
)

// Default configuration values.
const (
	DefaultTokenTTL = time.Hour
	DefaultPerPage  = 2

	// MinSecretLength is the minimum required length for the secret key.
	MinSecretLength = 32
)

// Config holds all configuration for a Feed.
type Config struct {
	// Secret is the key used for signing tokens.
	Secret string

	// SigningMethod is the JWT signing algorithm to use.
	SigningMethod SigningMethod

	// TokenTTL is how long issued tokens are valid.
	TokenTTL time.Duration

	// ClockSkew is the leeway applied to token time claims.
	ClockSkew time.Duration

	// PerPage is the fixed feed page size.
	PerPage int

	// AutoMigrate runs store migrations in New.
	AutoMigrate bool

	store    store.Store
	files    files.Store
	hasher   password.Hasher
	logger   Logger
	notifier Notifier
	now      func() time.Time
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		SigningMethod: SigningMethodHS256,
		TokenTTL:      DefaultTokenTTL,
		PerPage:       DefaultPerPage,
		now:           time.Now,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.SigningMethod {
	case SigningMethodHS256, SigningMethodHS384, SigningMethodHS512:
	default:
		return fmt.Errorf("%w: unsupported signing method: %s", ErrConfigInvalid, c.SigningMethod)
	}

	if c.Secret == "" {
		return fmt.Errorf("%w: secret is required", ErrConfigInvalid)
	}
	if len(c.Secret) < MinSecretLength {
		return fmt.Errorf("%w: secret must be at least %d characters", ErrConfigInvalid, MinSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: token TTL must be positive", ErrConfigInvalid)
	}
	if c.ClockSkew < 0 {
		return fmt.Errorf("%w: clock skew cannot be negative", ErrConfigInvalid)
	}
	if c.PerPage <= 0 {
		return fmt.Errorf("%w: page size must be positive", ErrConfigInvalid)
	}
	if c.store == nil {
		return ErrStoreRequired
	}

	return nil
}
