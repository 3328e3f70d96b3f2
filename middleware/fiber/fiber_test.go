package fiber

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/aloks98/gofeed/middleware"
	"github.com/aloks98/gofeed/token"
)

type mockIdentifier struct {
	header string
	userID string
}

func (m *mockIdentifier) Identify(header string) token.Identity {
	if header != "" && header == m.header {
		return token.Authenticated(m.userID)
	}
	return token.Anonymous()
}

func newApp(cfg *Config) *fiber.App {
	identifier := &mockIdentifier{header: "Bearer good", userID: "user123"}

	app := fiber.New()
	app.Use(Identify(identifier, cfg))
	app.Get("/feed/posts", func(c *fiber.Ctx) error {
		return c.SendString(UserID(c) + "|" + middleware.GetUserID(c.UserContext()))
	})

	protected := app.Group("/auth", RequireAuth(cfg))
	protected.Get("/status", func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	protected.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestFiberIdentify(t *testing.T) {
	app := newApp(nil)

	tests := []struct {
		name     string
		header   string
		wantBody string
	}{
		{"authenticated", "Bearer good", "user123|user123"},
		{"anonymous", "", "|"},
		{"invalid", "Bearer bad", "|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed/posts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			status, body := doRequest(t, app, req)
			if status != http.StatusOK {
				t.Errorf("expected status 200, got %d", status)
			}
			if body != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, body)
			}
		})
	}
}

func TestFiberRequireAuth(t *testing.T) {
	app := newApp(&Config{SkipPaths: []string{"/auth/ping"}})

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"authenticated", "/auth/status", "Bearer good", http.StatusOK},
		{"anonymous", "/auth/status", "", http.StatusUnauthorized},
		{"skipped", "/auth/ping", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			status, _ := doRequest(t, app, req)
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
		})
	}
}

func TestFiberRequireAuth_Body(t *testing.T) {
	app := newApp(nil)

	_, raw := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/auth/status", nil))

	var body middleware.ErrorBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Message != "Not authenticated" {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestFiberExtractFromCookie(t *testing.T) {
	app := newApp(&Config{CredentialExtractor: ExtractFromCookie("token")})

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "good"})

	status, body := doRequest(t, app, req)
	if status != http.StatusOK || body != "user123" {
		t.Errorf("unexpected response %d %q", status, body)
	}
}
