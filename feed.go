// Package gofeed is the core of a small social-posting backend: accounts, stateless token
// authentication, ownership-checked post management and a paginated feed.
//
// Basic usage:
//
//	feed, err := gofeed.New(
//	    gofeed.WithSecret("a-secret-of-at-least-32-characters"),
//	    gofeed.WithStore(memory.New()),
//	)
//
//	user, err := feed.CreateUser(ctx, gofeed.UserInput{Email: "a@b.com", Password: "12345", Name: "A"})
//	auth, err := feed.Login(ctx, "a@b.com", "12345")
//	who := feed.Identify("Bearer " + auth.Token)
//	post, err := feed.CreatePost(ctx, who, gofeed.PostInput{Title: "Hello", Content: "World!"})
package gofeed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/aloks98/gofeed/files"
	"github.com/aloks98/gofeed/password"
	"github.com/aloks98/gofeed/store"
	"github.com/aloks98/gofeed/token"
)

// Feed runs every user and post operation. It is safe for concurrent use.
type Feed struct {
	config   *Config
	store    store.Store
	files    files.Store
	tokens   *token.Service
	hasher   password.Hasher
	validate *Validator
	logger   Logger
	notifier Notifier
	now      func() time.Time

	mu     sync.Mutex
	closed bool
}

// New creates a Feed with the given options.
// At minimum, WithSecret and WithStore must be provided.
func New(opts ...Option) (*Feed, error) {
	cfg := NewConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.hasher == nil {
		cfg.hasher = password.NewMulti(
			password.NewBcryptHasher(password.DefaultBcryptCost),
			password.NewArgon2Hasher(password.DefaultArgon2Params()),
		)
	}
	if cfg.logger == nil {
		cfg.logger = log.New(os.Stderr, "[gofeed] ", log.LstdFlags)
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	if cfg.AutoMigrate {
		if err := cfg.store.Migrate(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to migrate store: %w", err)
		}
	}

	return &Feed{
		config: cfg,
		store:  cfg.store,
		files:  cfg.files,
		tokens: token.NewService(&token.Config{
			Secret:        cfg.Secret,
			SigningMethod: string(cfg.SigningMethod),
			TTL:           cfg.TokenTTL,
			ClockSkew:     cfg.ClockSkew,
			Now:           cfg.now,
		}),
		hasher:   cfg.hasher,
		validate: NewValidator(),
		logger:   cfg.logger,
		notifier: cfg.notifier,
		now:      cfg.now,
	}, nil
}

// Config returns the current configuration. The returned config should not be modified.
func (f *Feed) Config() *Config {
	return f.config
}

// Store returns the underlying store.
func (f *Feed) Store() store.Store {
	return f.store
}

// Tokens returns the token service.
func (f *Feed) Tokens() *token.Service {
	return f.tokens
}

// Identify derives the request identity from an Authorization header value. It never fails.
func (f *Feed) Identify(header string) token.Identity {
	return f.tokens.Identify(header)
}

// Ping verifies the store connection is alive.
func (f *Feed) Ping(ctx context.Context) error {
	return f.store.Ping(ctx)
}

// Close releases the store. After Close the Feed should not be used.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.store.Close()
}

// timestamp returns the current time truncated to the millisecond precision every store keeps.
func (f *Feed) timestamp() time.Time {
	return f.now().UTC().Truncate(time.Millisecond)
}

func (f *Feed) notify(ctx context.Context, e Event) {
	if f.notifier == nil {
		return
	}
	if err := f.notifier.Notify(ctx, e); err != nil {
		f.logger.Printf("notify %s %s: %v", e.Action, e.PostID, err)
	}
}

// storeError maps store sentinels onto classified errors.
func storeError(err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return NewError(CodeNotFound, notFound, err)
	}
	return Classify(err)
}
