package store

import (
	"time"
)

// DefaultStatus is the status of a freshly created user.
const DefaultStatus = "I am new!"

// User is a registered account.
type User struct {
	// ID is the store-assigned identifier.
	ID string `db:"id"`

	// Email is unique across users.
	Email string `db:"email"`

	// Name is the display name.
	Name string `db:"name"`

	// PasswordHash is the encoded password hash. The plaintext is never stored.
	PasswordHash string `db:"password"`

	// Status is a short free-text status line.
	Status string `db:"status"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CreatorRef references the user who created a post.
// User is set only when the store was asked to expand the reference.
type CreatorRef struct {
	ID   string
	User *User
}

// OwnerID returns the creator's identifier regardless of whether the reference is expanded.
func (r CreatorRef) OwnerID() string {
	if r.User != nil && r.User.ID != "" {
		return r.User.ID
	}
	return r.ID
}

// Expanded reports whether the full user is loaded.
func (r CreatorRef) Expanded() bool {
	return r.User != nil
}

// RefUser returns an expanded reference to u.
func RefUser(u *User) CreatorRef {
	return CreatorRef{ID: u.ID, User: u}
}

// Post is a feed entry with an attached image.
type Post struct {
	ID       string     `db:"id"`
	Title    string     `db:"title"`
	Content  string     `db:"content"`
	ImageURL string     `db:"image_url"`
	Creator  CreatorRef `db:"-"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Window selects a slice of an ordered result set.
type Window struct {
	Offset int
	Limit  int
}
