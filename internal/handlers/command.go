package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/middleware"
	mwchi "github.com/aloks98/gofeed/middleware/chi"
	"github.com/aloks98/gofeed/token"
)

// CommandRequest is the body of the command endpoint.
type CommandRequest struct {
	Operation string          `json:"operation"`
	Variables json.RawMessage `json:"variables,omitempty"`
}

// CommandError is one entry of a failed command response.
type CommandError struct {
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Data    []gofeed.FieldError `json:"data,omitempty"`
}

// CommandResponse is the body written by the command endpoint. Data is keyed by operation.
type CommandResponse struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors []CommandError `json:"errors,omitempty"`
}

type command func(ctx context.Context, who token.Identity, vars json.RawMessage) (any, error)

type idVars struct {
	ID string `json:"id"`
}

func (h *Handler) commandTable() map[string]command {
	f := h.feed
	return map[string]command{
		"createUser": func(ctx context.Context, _ token.Identity, raw json.RawMessage) (any, error) {
			var v struct {
				UserInput gofeed.UserInput `json:"userInput"`
			}
			if err := decodeVars(raw, &v); err != nil {
				return nil, err
			}
			return f.CreateUser(ctx, v.UserInput)
		},
		"login": func(ctx context.Context, _ token.Identity, raw json.RawMessage) (any, error) {
			var v struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := decodeVars(raw, &v); err != nil {
				return nil, err
			}
			return f.Login(ctx, v.Email, v.Password)
		},
		"user": func(ctx context.Context, who token.Identity, _ json.RawMessage) (any, error) {
			return f.User(ctx, who)
		},
		"updateStatus": func(ctx context.Context, who token.Identity, raw json.RawMessage) (any, error) {
			var v struct {
				Status string `json:"status"`
			}
			if err := decodeVars(raw, &v); err != nil {
				return nil, err
			}
			return f.UpdateStatus(ctx, who, v.Status)
		},
		"createPost": func(ctx context.Context, who token.Identity, raw json.RawMessage) (any, error) {
			var v struct {
				PostInput gofeed.PostInput `json:"postInput"`
			}
			if err := decodeVars(raw, &v); err != nil {
				return nil, err
			}
			return f.CreatePost(ctx, who, v.PostInput)
		},
		"posts": func(ctx context.Context, who token.Identity, raw json.RawMessage) (any, error) {
			var v struct {
				Page int `json:"page"`
			}
			if err := decodeVars(raw, &v); err != nil {
				return nil, err
			}
			return f.Posts(ctx, who, v.Page)
		},
		"post": func(ctx context.Context, who token.Identity, raw json.RawMessage) (any, error) {
			var v idVars
			if err := decodeVars(raw, &v); err != nil {
				return nil, err
			}
			return f.Post(ctx, who, v.ID)
		},
		"updatePost": func(ctx context.Context, who token.Identity, raw json.RawMessage) (any, error) {
			var v struct {
				ID        string           `json:"id"`
				PostInput gofeed.PostInput `json:"postInput"`
			}
			if err := decodeVars(raw, &v); err != nil {
				return nil, err
			}
			return f.UpdatePost(ctx, who, v.ID, v.PostInput)
		},
		"deletePost": func(ctx context.Context, who token.Identity, raw json.RawMessage) (any, error) {
			var v idVars
			if err := decodeVars(raw, &v); err != nil {
				return nil, err
			}
			return f.DeletePost(ctx, who, v.ID)
		},
	}
}

// Command runs one named operation with the request identity.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeCommandError(w, r, err)
		return
	}

	cmd, ok := h.commands[req.Operation]
	if !ok {
		h.writeCommandError(w, r, gofeed.NewError(gofeed.CodeValidationFailed, "Unknown operation.", nil))
		return
	}

	result, err := cmd(r.Context(), mwchi.Identity(r), req.Variables)
	if err != nil {
		h.writeCommandError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, CommandResponse{Data: map[string]any{req.Operation: result}})
}

func (h *Handler) writeCommandError(w http.ResponseWriter, r *http.Request, err error) {
	e := gofeed.Classify(err)
	if e.Code == gofeed.CodeInternal {
		h.logger.Printf("command: %v", err)
	}
	middleware.WriteJSON(w, e.Status(), CommandResponse{
		Errors: []CommandError{{Message: e.Message, Status: e.Status(), Data: e.Data}},
	})
}

func decodeVars(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return gofeed.NewError(gofeed.CodeValidationFailed, "Invalid variables.", err)
	}
	return nil
}
