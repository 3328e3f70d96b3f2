// Package password hashes and verifies account passwords.
package password

import "errors"

// Hash errors.
var (
	// ErrInvalidHash indicates a stored hash could not be parsed.
	ErrInvalidHash = errors.New("invalid password hash")

	// ErrUnsupportedHash indicates a stored hash uses an algorithm no configured hasher understands.
	ErrUnsupportedHash = errors.New("unsupported password hash")
)

// Hasher is a one-way password hashing scheme.
type Hasher interface {
	// Hash derives a storable hash from a plaintext password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A mismatch is not an error.
	Verify(password, hash string) (bool, error)

	// NeedsRehash reports whether hash was produced with parameters other than the current ones.
	NeedsRehash(hash string) bool
}

// Scheme is a Hasher that can recognise its own hashes.
type Scheme interface {
	Hasher

	// Recognizes reports whether hash was produced by this scheme.
	Recognizes(hash string) bool
}
