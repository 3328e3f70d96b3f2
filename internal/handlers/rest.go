package handlers

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/middleware"
	mwchi "github.com/aloks98/gofeed/middleware/chi"
)

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// SignupResponse is written by Signup.
type SignupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// StatusResponse carries a user's status.
type StatusResponse struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}

// PostsResponse is one page of the feed.
type PostsResponse struct {
	Message    string                `json:"message"`
	Posts      []*gofeed.PostPayload `json:"posts"`
	TotalItems int64                 `json:"totalItems"`
}

// PostResponse carries a single post.
type PostResponse struct {
	Message string                 `json:"message"`
	Post    *gofeed.PostPayload    `json:"post"`
	Creator *gofeed.CreatorPayload `json:"creator,omitempty"`
}

// Signup creates an account.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in gofeed.UserInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.feed.CreateUser(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, SignupResponse{Message: "User created.", UserID: user.ID})
}

// Login issues a token for valid credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	auth, err := h.feed.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, auth)
}

// GetStatus returns the acting user's status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.feed.User(r.Context(), mwchi.Identity(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, StatusResponse{Status: user.Status})
}

// UpdateStatus sets the acting user's status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.feed.UpdateStatus(r.Context(), mwchi.Identity(r), in.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, StatusResponse{Message: "Status updated.", Status: user.Status})
}

// ListPosts returns the page given by the "page" query parameter.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	result, err := h.feed.Posts(r.Context(), mwchi.Identity(r), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, PostsResponse{
		Message:    "Fetched posts.",
		Posts:      result.Posts,
		TotalItems: result.TotalPosts,
	})
}

// GetPost returns one post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.feed.Post(r.Context(), mwchi.Identity(r), mwchi.URLParam(r, "postId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, PostResponse{Message: "Post fetched", Post: post})
}

// CreatePost publishes a post from a multipart form. An image file is required.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	in, stored, err := h.readPostForm(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if stored == "" {
		h.writeError(w, r, gofeed.NewError(gofeed.CodeValidationFailed, "No image provided.", nil))
		return
	}

	post, err := h.feed.CreatePost(r.Context(), mwchi.Identity(r), in)
	if err != nil {
		h.feed.ReleaseImage(r.Context(), stored)
		h.writeError(w, r, err)
		return
	}

	creator := gofeed.CreatorPayload{ID: post.Creator.ID, Name: post.Creator.Name}
	middleware.WriteJSON(w, http.StatusCreated, PostResponse{
		Message: "Post created successfully.",
		Post:    post,
		Creator: &creator,
	})
}

// UpdatePost replaces a post's fields. The image is a new file or the "image" form value.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	in, stored, err := h.readPostForm(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.ImageURL == "" {
		h.writeError(w, r, gofeed.NewError(gofeed.CodeValidationFailed, "No file picked", nil))
		return
	}

	post, err := h.feed.UpdatePost(r.Context(), mwchi.Identity(r), mwchi.URLParam(r, "postId"), in)
	if err != nil {
		h.feed.ReleaseImage(r.Context(), stored)
		h.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, PostResponse{Message: "Post updated.", Post: post})
}

// DeletePost removes a post owned by the acting user.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if _, err := h.feed.DeletePost(r.Context(), mwchi.Identity(r), mwchi.URLParam(r, "postId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Deleted Post."})
}

// readPostForm reads title, content and image from a JSON or multipart body. stored is the
// path of an image file saved from this request, if any.
func (h *Handler) readPostForm(w http.ResponseWriter, r *http.Request) (in gofeed.PostInput, stored string, err error) {
	if isJSON(r) {
		var v struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Image   string `json:"image"`
		}
		if err := decodeJSON(r, &v); err != nil {
			return in, "", err
		}
		return gofeed.PostInput{Title: v.Title, Content: v.Content, ImageURL: v.Image}, "", nil
	}

	stored, err = h.storeFormImage(w, r)
	if err != nil {
		return in, "", err
	}

	in = gofeed.PostInput{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		ImageURL: r.FormValue(ImageField),
	}
	if stored != "" {
		in.ImageURL = stored
	}
	return in, stored, nil
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}
