package gofeed

import (
	"context"
	"errors"

	"github.com/aloks98/gofeed/store"
	"github.com/aloks98/gofeed/token"
)

// imageUnchanged is sent by clients that keep the current image on update.
const imageUnchanged = "undefined"

// CreatePost publishes a post owned by the acting user.
func (f *Feed) CreatePost(ctx context.Context, who token.Identity, in PostInput) (*PostPayload, error) {
	if !who.IsAuthenticated {
		return nil, notAuthenticated()
	}
	if err := f.validate.Post(in); err != nil {
		return nil, err
	}

	u, err := f.store.GetUser(ctx, who.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewError(CodeAuthenticationRequired, "Invalid user", err)
	}
	if err != nil {
		return nil, Classify(err)
	}

	now := f.timestamp()
	p := &store.Post{
		Title:     in.Title,
		Content:   in.Content,
		ImageURL:  in.ImageURL,
		Creator:   store.RefUser(u),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.store.CreatePost(ctx, p); err != nil {
		return nil, Classify(err)
	}

	payload := NewPostPayload(p)
	f.notify(ctx, Event{Action: ActionCreate, PostID: p.ID, Post: payload})
	return payload, nil
}

// Posts returns one page of the feed, newest first, and the total number of posts.
func (f *Feed) Posts(ctx context.Context, who token.Identity, page int) (*PostsPage, error) {
	if !who.IsAuthenticated {
		return nil, notAuthenticated()
	}

	total, err := f.store.CountPosts(ctx)
	if err != nil {
		return nil, Classify(err)
	}

	posts, err := f.store.ListPosts(ctx, PageWindow(page, f.config.PerPage))
	if err != nil {
		return nil, Classify(err)
	}

	out := make([]*PostPayload, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostPayload(p))
	}
	return &PostsPage{Posts: out, TotalPosts: total}, nil
}

// Post returns a single post with its creator.
func (f *Feed) Post(ctx context.Context, who token.Identity, id string) (*PostPayload, error) {
	if !who.IsAuthenticated {
		return nil, notAuthenticated()
	}

	p, err := f.store.GetPost(ctx, id, true)
	if err != nil {
		return nil, storeError(err, "Post not found.")
	}
	return NewPostPayload(p), nil
}

// UpdatePost edits a post owned by the acting user. The image is replaced only when
// in.ImageURL is set to something other than "undefined"; the replaced image is released
// once no post references it.
func (f *Feed) UpdatePost(ctx context.Context, who token.Identity, id string, in PostInput) (*PostPayload, error) {
	if !who.IsAuthenticated {
		return nil, notAuthenticated()
	}
	if err := f.validate.Post(in); err != nil {
		return nil, err
	}

	p, err := f.store.GetPost(ctx, id, true)
	if err != nil {
		return nil, storeError(err, "Post not found.")
	}
	if err := AssertOwner(p.Creator, who.UserID); err != nil {
		return nil, err
	}

	var released string
	if in.ImageURL != "" && in.ImageURL != imageUnchanged && in.ImageURL != p.ImageURL {
		released = p.ImageURL
		p.ImageURL = in.ImageURL
	}
	p.Title = in.Title
	p.Content = in.Content
	p.UpdatedAt = f.timestamp()

	if err := f.store.UpdatePost(ctx, p); err != nil {
		return nil, storeError(err, "Post not found.")
	}
	f.ReleaseUnusedImage(ctx, released)

	payload := NewPostPayload(p)
	f.notify(ctx, Event{Action: ActionUpdate, PostID: p.ID, Post: payload})
	return payload, nil
}

// DeletePost removes a post owned by the acting user and releases its image unless
// another post still references it.
func (f *Feed) DeletePost(ctx context.Context, who token.Identity, id string) (bool, error) {
	if !who.IsAuthenticated {
		return false, notAuthenticated()
	}

	p, err := f.store.GetPost(ctx, id, false)
	if err != nil {
		return false, storeError(err, "Post not found.")
	}
	if err := AssertOwner(p.Creator, who.UserID); err != nil {
		return false, err
	}

	if err := f.store.DeletePost(ctx, id); err != nil {
		return false, storeError(err, "Post not found.")
	}
	f.ReleaseUnusedImage(ctx, p.ImageURL)

	f.notify(ctx, Event{Action: ActionDelete, PostID: id})
	return true, nil
}
