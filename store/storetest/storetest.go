// Package storetest is a conformance suite run against every store.Store implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aloks98/gofeed/store"
)

// Factory returns an empty, migrated store. Cleanup is registered on t.
type Factory func(t *testing.T) store.Store

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("Posts", func(t *testing.T) { testPosts(t, newStore(t)) })
	t.Run("ListPostsWindow", func(t *testing.T) { testListPostsWindow(t, newStore(t)) })
	t.Run("ListPostsSameTimestamp", func(t *testing.T) { testListPostsSameTimestamp(t, newStore(t)) })
	t.Run("PostIDsByCreator", func(t *testing.T) { testPostIDsByCreator(t, newStore(t)) })
	t.Run("ImageInUse", func(t *testing.T) { testImageInUse(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
}

// MustCreateUser inserts a user with the given email.
func MustCreateUser(t *testing.T, s store.Store, email string) *store.User {
	t.Helper()
	u := &store.User{
		Email:        email,
		Name:         "User " + email,
		PasswordHash: "hash",
		Status:       store.DefaultStatus,
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s) error = %v", email, err)
	}
	return u
}

// MustCreatePost inserts a post created at base+offset.
func MustCreatePost(t *testing.T, s store.Store, owner *store.User, title string, offset time.Duration) *store.Post {
	t.Helper()
	p := &store.Post{
		Title:     title,
		Content:   "content of " + title,
		ImageURL:  "images/" + title + ".png",
		Creator:   store.RefUser(owner),
		CreatedAt: base.Add(offset),
		UpdatedAt: base.Add(offset),
	}
	if err := s.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("CreatePost(%s) error = %v", title, err)
	}
	if p.ID == "" {
		t.Fatal("CreatePost should assign an id")
	}
	return p
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := MustCreateUser(t, s, "a@b.com")
	if u.ID == "" {
		t.Fatal("CreateUser should assign an id")
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Email != "a@b.com" || got.Status != store.DefaultStatus || got.PasswordHash != "hash" {
		t.Errorf("GetUser() = %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
	}

	byEmail, err := s.GetUserByEmail(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("GetUserByEmail() id = %q, want %q", byEmail.ID, u.ID)
	}

	later := base.Add(time.Minute)
	if err := s.UpdateUserStatus(ctx, u.ID, "busy today", later); err != nil {
		t.Fatalf("UpdateUserStatus() error = %v", err)
	}
	if err := s.UpdatePasswordHash(ctx, u.ID, "rehashed", later); err != nil {
		t.Fatalf("UpdatePasswordHash() error = %v", err)
	}

	got, err = s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Status != "busy today" {
		t.Errorf("Status = %q, want %q", got.Status, "busy today")
	}
	if got.PasswordHash != "rehashed" {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "rehashed")
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	MustCreateUser(t, s, "dup@b.com")

	err := s.CreateUser(context.Background(), &store.User{
		Email: "dup@b.com", Name: "Other", PasswordHash: "x", Status: store.DefaultStatus,
		CreatedAt: base, UpdatedAt: base,
	})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Errorf("CreateUser() error = %v, want ErrDuplicateEmail", err)
	}
}

func testPosts(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := MustCreateUser(t, s, "owner@b.com")
	p := MustCreatePost(t, s, owner, "First", 0)

	bare, err := s.GetPost(ctx, p.ID, false)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if bare.Creator.Expanded() {
		t.Error("GetPost(expand=false) should not expand the creator")
	}
	if bare.Creator.OwnerID() != owner.ID {
		t.Errorf("creator = %q, want %q", bare.Creator.OwnerID(), owner.ID)
	}

	full, err := s.GetPost(ctx, p.ID, true)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if !full.Creator.Expanded() || full.Creator.User.Name != owner.Name {
		t.Errorf("GetPost(expand=true) creator = %+v", full.Creator)
	}
	if full.Title != "First" || full.ImageURL != "images/First.png" {
		t.Errorf("GetPost() = %+v", full)
	}

	other := MustCreateUser(t, s, "other@b.com")
	full.Title = "Renamed"
	full.Content = "new content"
	full.ImageURL = "images/new.png"
	full.UpdatedAt = base.Add(time.Hour)
	full.Creator = store.RefUser(other)
	if err := s.UpdatePost(ctx, full); err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}

	got, err := s.GetPost(ctx, p.ID, false)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if got.Title != "Renamed" || got.Content != "new content" || got.ImageURL != "images/new.png" {
		t.Errorf("after update = %+v", got)
	}
	if !got.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt changed to %v", got.CreatedAt)
	}
	if got.Creator.OwnerID() != owner.ID {
		t.Errorf("UpdatePost must not change the creator, got %q", got.Creator.OwnerID())
	}

	if err := s.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	if _, err := s.GetPost(ctx, p.ID, false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetPost() after delete error = %v, want ErrNotFound", err)
	}
	if n, _ := s.CountPosts(ctx); n != 0 {
		t.Errorf("CountPosts() = %d, want 0", n)
	}
}

func testListPostsWindow(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := MustCreateUser(t, s, "pager@b.com")

	var titles []string
	for i := range 5 {
		title := fmt.Sprintf("Post%d", i+1)
		MustCreatePost(t, s, owner, title, time.Duration(i)*time.Minute)
		titles = append(titles, title)
	}

	n, err := s.CountPosts(ctx)
	if err != nil {
		t.Fatalf("CountPosts() error = %v", err)
	}
	if n != 5 {
		t.Errorf("CountPosts() = %d, want 5", n)
	}

	tests := []struct {
		name string
		w    store.Window
		want []string
	}{
		{"first page", store.Window{Offset: 0, Limit: 2}, []string{"Post5", "Post4"}},
		{"second page", store.Window{Offset: 2, Limit: 2}, []string{"Post3", "Post2"}},
		{"last page", store.Window{Offset: 4, Limit: 2}, []string{"Post1"}},
		{"beyond the end", store.Window{Offset: 18, Limit: 2}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := s.ListPosts(ctx, tt.w)
			if err != nil {
				t.Fatalf("ListPosts() error = %v", err)
			}
			if len(posts) != len(tt.want) {
				t.Fatalf("ListPosts() returned %d posts, want %d", len(posts), len(tt.want))
			}
			for i, p := range posts {
				if p.Title != tt.want[i] {
					t.Errorf("posts[%d] = %q, want %q", i, p.Title, tt.want[i])
				}
				if !p.Creator.Expanded() || p.Creator.User.ID != owner.ID {
					t.Errorf("posts[%d] creator not expanded: %+v", i, p.Creator)
				}
			}
		})
	}
}

func testListPostsSameTimestamp(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := MustCreateUser(t, s, "burst@b.com")

	for i := range 5 {
		MustCreatePost(t, s, owner, fmt.Sprintf("Post%d", i+1), 0)
	}

	posts, err := s.ListPosts(ctx, store.Window{Offset: 0, Limit: 5})
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	want := []string{"Post5", "Post4", "Post3", "Post2", "Post1"}
	if len(posts) != len(want) {
		t.Fatalf("ListPosts() returned %d posts, want %d", len(posts), len(want))
	}
	for i, p := range posts {
		if p.Title != want[i] {
			t.Errorf("posts[%d] = %q, want %q", i, p.Title, want[i])
		}
	}

	page, err := s.ListPosts(ctx, store.Window{Offset: 0, Limit: 2})
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(page) != 2 || page[0].Title != "Post5" || page[1].Title != "Post4" {
		t.Errorf("first page = %v, want [Post5 Post4]", titlesOf(page))
	}

	ids, err := s.ListPostIDsByCreator(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListPostIDsByCreator() error = %v", err)
	}
	if len(ids) != 5 || ids[0] != posts[0].ID || ids[4] != posts[4].ID {
		t.Errorf("ListPostIDsByCreator() = %v, want the ListPosts order", ids)
	}
}

func titlesOf(posts []*store.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func testPostIDsByCreator(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := MustCreateUser(t, s, "ida@b.com")
	b := MustCreateUser(t, s, "idb@b.com")

	a1 := MustCreatePost(t, s, a, "a-one", 0)
	MustCreatePost(t, s, b, "b-one", time.Minute)
	a2 := MustCreatePost(t, s, a, "a-two", 2*time.Minute)

	ids, err := s.ListPostIDsByCreator(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListPostIDsByCreator() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != a2.ID || ids[1] != a1.ID {
		t.Errorf("ListPostIDsByCreator() = %v, want [%s %s]", ids, a2.ID, a1.ID)
	}

	none, err := s.ListPostIDsByCreator(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListPostIDsByCreator() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListPostIDsByCreator(nobody) = %v, want empty", none)
	}
}

func testImageInUse(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := MustCreateUser(t, s, "img@b.com")
	MustCreatePost(t, s, owner, "pic", 0)

	used, err := s.ImageInUse(ctx, "images/pic.png")
	if err != nil {
		t.Fatalf("ImageInUse() error = %v", err)
	}
	if !used {
		t.Error("expected image to be in use")
	}

	used, err = s.ImageInUse(ctx, "images/orphan.png")
	if err != nil {
		t.Fatalf("ImageInUse() error = %v", err)
	}
	if used {
		t.Error("expected orphan image not to be in use")
	}
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	missing := "000000000000000000000000"

	if _, err := s.GetUser(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUser() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByEmail(ctx, "nobody@b.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetPost(ctx, missing, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetPost() error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateUserStatus(ctx, missing, "status", base); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateUserStatus() error = %v, want ErrNotFound", err)
	}
	if err := s.UpdatePost(ctx, &store.Post{ID: missing, UpdatedAt: base}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdatePost() error = %v, want ErrNotFound", err)
	}
	if err := s.DeletePost(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeletePost() error = %v, want ErrNotFound", err)
	}
}
