package gofeed

import "context"

// Action names a post change.
type Action string

// Post change actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event describes a committed post change. Post is nil for deletes.
type Event struct {
	Action Action       `json:"action"`
	PostID string       `json:"postId"`
	Post   *PostPayload `json:"post,omitempty"`
}

// Notifier receives post change events after the write has succeeded.
// A failing Notify is logged and never fails the operation.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Logger is the logging interface used by Feed.
type Logger interface {
	Printf(format string, v ...any)
}
