package gofeed

import (
	"time"

	"github.com/aloks98/gofeed/store"
)

// TimeLayout is the wire format of every timestamp: RFC 3339 with milliseconds, always UTC.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// UserPayload is the public view of a user. The password hash is never included.
type UserPayload struct {
	ID        string   `json:"_id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Posts     []string `json:"posts"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// CreatorPayload is the view of a post's creator.
type CreatorPayload struct {
	ID     string `json:"_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Status string `json:"status,omitempty"`
}

// PostPayload is the public view of a post.
type PostPayload struct {
	ID        string         `json:"_id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	ImageURL  string         `json:"imageUrl"`
	Creator   CreatorPayload `json:"creator"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

// PostsPage is one page of the feed.
type PostsPage struct {
	Posts      []*PostPayload `json:"posts"`
	TotalPosts int64          `json:"totalPosts"`
}

// AuthPayload is returned by a successful login.
type AuthPayload struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// NewUserPayload shapes u with the ids of its posts.
func NewUserPayload(u *store.User, postIDs []string) *UserPayload {
	if postIDs == nil {
		postIDs = []string{}
	}
	return &UserPayload{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Status:    u.Status,
		Posts:     postIDs,
		CreatedAt: FormatTime(u.CreatedAt),
		UpdatedAt: FormatTime(u.UpdatedAt),
	}
}

// NewPostPayload shapes p. An unexpanded creator is rendered as its id only.
func NewPostPayload(p *store.Post) *PostPayload {
	creator := CreatorPayload{ID: p.Creator.OwnerID()}
	if u := p.Creator.User; u != nil {
		creator.Name = u.Name
		creator.Email = u.Email
		creator.Status = u.Status
	}
	return &PostPayload{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Creator:   creator,
		CreatedAt: FormatTime(p.CreatedAt),
		UpdatedAt: FormatTime(p.UpdatedAt),
	}
}
