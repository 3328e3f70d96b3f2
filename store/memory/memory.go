// Package memory provides an in-memory store for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aloks98/gofeed/store"
)

// Store is an in-memory implementation of store.Store.
// Values are copied on the way in and out so callers never share state with the store.
type Store struct {
	mu sync.RWMutex

	users   map[string]*store.User
	byEmail map[string]string
	posts   map[string]*store.Post

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[string]*store.User),
		byEmail: make(map[string]string),
		posts:   make(map[string]*store.Post),
	}
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Ping reports ErrClosed after Close.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

// CreateUser stores a copy of u.
func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := u.Email
	if _, ok := s.byEmail[key]; ok {
		return store.ErrDuplicateEmail
	}

	u.ID = uuid.Must(uuid.NewV7()).String()
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[key] = u.ID
	return nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(id)
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.userLocked(id)
}

// UpdateUserStatus sets a user's status.
func (s *Store) UpdateUserStatus(ctx context.Context, id, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Status = status
	u.UpdatedAt = at
	return nil
}

// UpdatePasswordHash replaces a user's password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = at
	return nil
}

// CreatePost stores a copy of p with an unexpanded creator.
func (s *Store) CreatePost(ctx context.Context, p *store.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.Must(uuid.NewV7()).String()
	cp := *p
	cp.Creator = store.CreatorRef{ID: p.Creator.OwnerID()}
	s.posts[p.ID] = &cp
	return nil
}

// GetPost returns a post by id.
func (s *Store) GetPost(ctx context.Context, id string, expand bool) (*store.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.postLocked(p, expand), nil
}

// ListPosts returns a window of all posts, newest first.
func (s *Store) ListPosts(ctx context.Context, w store.Window) ([]*store.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedLocked(func(*store.Post) bool { return true })

	start := min(max(w.Offset, 0), len(all))
	end := len(all)
	if w.Limit > 0 {
		end = min(start+w.Limit, len(all))
	}

	out := make([]*store.Post, 0, end-start)
	for _, p := range all[start:end] {
		out = append(out, s.postLocked(p, true))
	}
	return out, nil
}

// CountPosts returns the number of posts.
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.posts)), nil
}

// ListPostIDsByCreator returns the ids of a user's posts, newest first.
func (s *Store) ListPostIDsByCreator(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mine := s.sortedLocked(func(p *store.Post) bool { return p.Creator.ID == userID })
	ids := make([]string, 0, len(mine))
	for _, p := range mine {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// UpdatePost writes the mutable fields of p.
func (s *Store) UpdatePost(ctx context.Context, p *store.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.posts[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Title = p.Title
	existing.Content = p.Content
	existing.ImageURL = p.ImageURL
	existing.UpdatedAt = p.UpdatedAt
	return nil
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

// ImageInUse reports whether any post references path.
func (s *Store) ImageInUse(ctx context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.ImageURL == path {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) userLocked(id string) (*store.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) postLocked(p *store.Post, expand bool) *store.Post {
	cp := *p
	cp.Creator = store.CreatorRef{ID: p.Creator.ID}
	if expand {
		if u, err := s.userLocked(p.Creator.ID); err == nil {
			cp.Creator.User = u
		}
	}
	return &cp
}

func (s *Store) sortedLocked(keep func(*store.Post) bool) []*store.Post {
	out := make([]*store.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

var _ store.Store = (*Store)(nil)
