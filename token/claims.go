package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity claim embedded in every issued token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GetUserID returns the user ID from claims.
func (c *Claims) GetUserID() string {
	return c.UserID
}

// ExpiresAtTime returns the expiry as a time.Time, or the zero time if unset.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Identity is the per-request identity context. The zero value is anonymous.
type Identity struct {
	IsAuthenticated bool
	UserID          string
}

// Anonymous returns the unauthenticated identity.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns an identity for the given user.
func Authenticated(userID string) Identity {
	return Identity{IsAuthenticated: true, UserID: userID}
}
