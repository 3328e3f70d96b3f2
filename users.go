package gofeed

import (
	"context"
	"errors"
	"strings"

	"github.com/aloks98/gofeed/store"
	"github.com/aloks98/gofeed/token"
)

// CreateUser registers a new account.
func (f *Feed) CreateUser(ctx context.Context, in UserInput) (*UserPayload, error) {
	in.Email = normalizeEmail(in.Email)
	if err := f.validate.User(in); err != nil {
		return nil, err
	}

	hash, err := f.hasher.Hash(in.Password)
	if err != nil {
		return nil, Classify(err)
	}

	now := f.timestamp()
	u := &store.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Status:       store.DefaultStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, NewError(CodeConflict, "User with this email already exists.", err)
		}
		return nil, Classify(err)
	}

	return NewUserPayload(u, nil), nil
}

// Login checks credentials and issues a token. Outdated password hashes are upgraded in place.
func (f *Feed) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	u, err := f.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewError(CodeAuthenticationRequired, "A user with this email could not be found.", err)
	}
	if err != nil {
		return nil, Classify(err)
	}

	ok, err := f.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, Classify(err)
	}
	if !ok {
		return nil, NewError(CodeAuthenticationRequired, "Wrong password.", nil)
	}

	if f.hasher.NeedsRehash(u.PasswordHash) {
		f.rehash(ctx, u.ID, password)
	}

	issued, err := f.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, Classify(err)
	}

	return &AuthPayload{Token: issued.Token, UserID: u.ID}, nil
}

func (f *Feed) rehash(ctx context.Context, userID, password string) {
	hash, err := f.hasher.Hash(password)
	if err == nil {
		err = f.store.UpdatePasswordHash(ctx, userID, hash, f.timestamp())
	}
	if err != nil {
		f.logger.Printf("rehash password for user %s: %v", userID, err)
	}
}

// User returns the acting user with the ids of their posts.
func (f *Feed) User(ctx context.Context, who token.Identity) (*UserPayload, error) {
	if !who.IsAuthenticated {
		return nil, notAuthenticated()
	}
	return f.userPayload(ctx, who.UserID)
}

// UpdateStatus sets the acting user's status.
func (f *Feed) UpdateStatus(ctx context.Context, who token.Identity, status string) (*UserPayload, error) {
	if !who.IsAuthenticated {
		return nil, notAuthenticated()
	}
	if err := f.validate.Status(status); err != nil {
		return nil, err
	}

	if err := f.store.UpdateUserStatus(ctx, who.UserID, status, f.timestamp()); err != nil {
		return nil, storeError(err, "User not found.")
	}
	return f.userPayload(ctx, who.UserID)
}

func (f *Feed) userPayload(ctx context.Context, userID string) (*UserPayload, error) {
	u, err := f.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User not found.")
	}

	ids, err := f.store.ListPostIDsByCreator(ctx, u.ID)
	if err != nil {
		return nil, Classify(err)
	}
	return NewUserPayload(u, ids), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
