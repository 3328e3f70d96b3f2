package handlers

import (
	"net/http"
	"os"
	"testing"

	"github.com/aloks98/gofeed/middleware"
)

func (s *server) restSignup(t *testing.T, email, name string) (string, string) {
	t.Helper()
	rec := s.doJSON(t, http.MethodPut, "/auth/signup", "", map[string]string{
		"email": email, "name": name, "password": "12345",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	signup := decodeBody[SignupResponse](t, rec)
	if signup.Message != "User created." || signup.UserID == "" {
		t.Fatalf("unexpected signup response %+v", signup)
	}

	rec = s.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "12345"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	auth := decodeBody[map[string]string](t, rec)
	if auth["userId"] != signup.UserID {
		t.Fatalf("login returned user %q, want %q", auth["userId"], signup.UserID)
	}
	return auth["token"], auth["userId"]
}

func (s *server) restCreatePost(t *testing.T, token, title string) PostResponse {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{"title": title, "content": "Some content"}, png("post.png"))
	rec := s.do(t, http.MethodPost, "/feed/post", token, contentType, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[PostResponse](t, rec)
}

func TestREST_Auth(t *testing.T) {
	s := newServer(t)
	token, _ := s.restSignup(t, "a@b.com", "A")

	rec := s.do(t, http.MethodGet, "/auth/status", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody[StatusResponse](t, rec); got.Status != "I am new!" {
		t.Errorf("expected the default status, got %q", got.Status)
	}

	rec = s.doJSON(t, http.MethodPatch, "/auth/status", token, map[string]string{"status": "Writing Go"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody[StatusResponse](t, rec); got.Message != "Status updated." || got.Status != "Writing Go" {
		t.Errorf("unexpected response %+v", got)
	}

	rec = s.doJSON(t, http.MethodPatch, "/auth/status", token, map[string]string{"status": "no"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for a short status, got %d", rec.Code)
	}
}

func TestREST_AuthErrors(t *testing.T) {
	s := newServer(t)
	s.restSignup(t, "a@b.com", "A")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{"duplicate", http.MethodPut, "/auth/signup", map[string]string{"email": "A@B.com", "name": "A", "password": "12345"},
			http.StatusConflict, "User with this email already exists."},
		{"invalid signup", http.MethodPut, "/auth/signup", map[string]string{"email": "a"},
			http.StatusUnprocessableEntity, "Invalid user input."},
		{"wrong password", http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "54321"},
			http.StatusUnauthorized, "Wrong password."},
		{"status anonymous", http.MethodGet, "/auth/status", nil, http.StatusUnauthorized, "Not authenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.doJSON(t, tt.method, tt.path, "", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if body := decodeBody[middleware.ErrorBody](t, rec); body.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, body.Message)
			}
		})
	}
}

func TestREST_Posts(t *testing.T) {
	s := newServer(t)
	tokenA, userA := s.restSignup(t, "a@b.com", "A")
	tokenB, _ := s.restSignup(t, "c@d.com", "B")

	created := s.restCreatePost(t, tokenA, "First post")
	if created.Message != "Post created successfully." {
		t.Errorf("unexpected message %q", created.Message)
	}
	if created.Creator == nil || created.Creator.ID != userA || created.Creator.Name != "A" {
		t.Errorf("unexpected creator %+v", created.Creator)
	}
	if !s.exists(t, created.Post.ImageURL) {
		t.Errorf("expected %s to be stored", created.Post.ImageURL)
	}
	s.restCreatePost(t, tokenA, "Second post")
	s.restCreatePost(t, tokenB, "Third post")

	rec := s.do(t, http.MethodGet, "/feed/posts?page=1", tokenB, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	page := decodeBody[PostsResponse](t, rec)
	if page.TotalItems != 3 || len(page.Posts) != 2 {
		t.Fatalf("expected 2 of 3 posts, got %d of %d", len(page.Posts), page.TotalItems)
	}
	if page.Posts[0].Title != "Third post" {
		t.Errorf("expected newest first, got %q", page.Posts[0].Title)
	}

	rec = s.do(t, http.MethodGet, "/feed/posts?page=abc", tokenB, "", nil)
	if got := decodeBody[PostsResponse](t, rec); len(got.Posts) != 2 {
		t.Errorf("expected an invalid page to default to the first, got %d posts", len(got.Posts))
	}

	id := created.Post.ID
	rec = s.do(t, http.MethodGet, "/feed/post/"+id, tokenB, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody[PostResponse](t, rec); got.Post.ID != id || got.Message != "Post fetched" {
		t.Errorf("unexpected response %+v", got)
	}

	rec = s.do(t, http.MethodDelete, "/feed/post/"+id, tokenB, "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user's post, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodDelete, "/feed/post/"+id, tokenA, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody[MessageResponse](t, rec); got.Message != "Deleted Post." {
		t.Errorf("unexpected message %q", got.Message)
	}
	if s.exists(t, created.Post.ImageURL) {
		t.Errorf("expected the image of a deleted post to be released")
	}

	if rec := s.do(t, http.MethodGet, "/feed/post/"+id, tokenA, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestREST_CreatePostErrors(t *testing.T) {
	s := newServer(t)
	token, _ := s.restSignup(t, "a@b.com", "A")

	t.Run("no image", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"title": "Hello", "content": "World!"}, nil)
		rec := s.do(t, http.MethodPost, "/feed/post", token, contentType, body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if got := decodeBody[middleware.ErrorBody](t, rec); got.Message != "No image provided." {
			t.Errorf("unexpected message %q", got.Message)
		}
	})

	t.Run("invalid input releases the upload", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"title": "Hi", "content": "World!"}, png("x.png"))
		rec := s.do(t, http.MethodPost, "/feed/post", token, contentType, body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		got := decodeBody[middleware.ErrorBody](t, rec)
		if got.Message != "Invalid input" || len(got.Data) != 1 {
			t.Errorf("unexpected body %+v", got)
		}

		entries, err := os.ReadDir(s.dir)
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected the upload to be released, found %v", entries)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"title": "Hello", "content": "World!"}, png("x.png"))
		rec := s.do(t, http.MethodPost, "/feed/post", "", contentType, body)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestREST_UpdatePost(t *testing.T) {
	s := newServer(t)
	token, _ := s.restSignup(t, "a@b.com", "A")
	created := s.restCreatePost(t, token, "First post")
	id := created.Post.ID
	oldImage := created.Post.ImageURL

	rec := s.doJSON(t, http.MethodPut, "/feed/post/"+id, token, map[string]string{
		"title": "Edited post", "content": "Some content",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without an image, got %d", rec.Code)
	}
	if got := decodeBody[middleware.ErrorBody](t, rec); got.Message != "No file picked" {
		t.Errorf("unexpected message %q", got.Message)
	}

	rec = s.doJSON(t, http.MethodPut, "/feed/post/"+id, token, map[string]string{
		"title": "Edited post", "content": "Some content", "image": oldImage,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[PostResponse](t, rec); got.Post.Title != "Edited post" || got.Post.ImageURL != oldImage {
		t.Errorf("unexpected post %+v", got.Post)
	}
	if !s.exists(t, oldImage) {
		t.Fatal("keeping the same image must not release it")
	}

	body, contentType := multipartBody(t, map[string]string{"title": "Edited again", "content": "Some content"}, png("new.png"))
	rec = s.do(t, http.MethodPut, "/feed/post/"+id, token, contentType, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[PostResponse](t, rec)
	if got.Post.ImageURL == oldImage || !s.exists(t, got.Post.ImageURL) {
		t.Errorf("expected a new stored image, got %q", got.Post.ImageURL)
	}
	if s.exists(t, oldImage) {
		t.Error("expected the replaced image to be released")
	}
}

func TestREST_Anonymous(t *testing.T) {
	s := newServer(t)

	for _, path := range []string{"/feed/posts", "/feed/post/abc"} {
		rec := s.do(t, http.MethodGet, path, "", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, rec.Code)
		}
	}
}
