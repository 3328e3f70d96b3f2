// Package store defines the persistence contract for users and posts.
package store

import (
	"context"
	"errors"
	"time"
)

// Store errors.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateEmail indicates a user with the same email already exists.
	ErrDuplicateEmail = errors.New("store: duplicate email")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")
)

// Store is the full persistence surface used by the feed.
// All methods must be safe for concurrent use.
type Store interface {
	// Close releases any resources held by the store.
	Close() error

	// Ping verifies the store connection is alive.
	Ping(ctx context.Context) error

	// Migrate creates or updates the schema (tables, indexes).
	Migrate(ctx context.Context) error

	UserStore
	PostStore
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts u and assigns u.ID. Returns ErrDuplicateEmail if the email is taken.
	CreateUser(ctx context.Context, u *User) error

	// GetUser returns the user with the given id or ErrNotFound.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByEmail returns the user with the given email or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateUserStatus sets the status of a user.
	UpdateUserStatus(ctx context.Context, id, status string, at time.Time) error

	// UpdatePasswordHash replaces the stored password hash of a user.
	UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error
}

// PostStore persists posts.
type PostStore interface {
	// CreatePost inserts p and assigns p.ID. Only p.Creator.OwnerID() is stored for the creator.
	CreatePost(ctx context.Context, p *Post) error

	// GetPost returns the post with the given id or ErrNotFound.
	// When expand is true the creator reference carries the full user.
	GetPost(ctx context.Context, id string, expand bool) (*Post, error)

	// ListPosts returns the window of all posts ordered newest first, creators expanded.
	ListPosts(ctx context.Context, w Window) ([]*Post, error)

	// CountPosts returns the number of posts matched by ListPosts without a window.
	CountPosts(ctx context.Context) (int64, error)

	// ListPostIDsByCreator returns the ids of a user's posts, newest first.
	ListPostIDsByCreator(ctx context.Context, userID string) ([]string, error)

	// UpdatePost writes the title, content, image and update time of p. The creator is never written.
	UpdatePost(ctx context.Context, p *Post) error

	// DeletePost removes a post. Returns ErrNotFound if it does not exist.
	DeletePost(ctx context.Context, id string) error

	// ImageInUse reports whether any post references the given image path.
	ImageInUse(ctx context.Context, path string) (bool, error)
}
