// Package handlers exposes a Feed over HTTP: the command endpoint, the image upload endpoint,
// static images and REST routes for accounts and posts.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/middleware"
	mwchi "github.com/aloks98/gofeed/middleware/chi"
	"github.com/aloks98/gofeed/ratelimit"
)

// DefaultMaxUploadSize bounds multipart request bodies.
const DefaultMaxUploadSize = 10 << 20

// Config holds handler dependencies.
type Config struct {
	// Feed runs every operation. Required.
	Feed *gofeed.Feed

	// ImagesDir is served under /images/. Empty disables static images.
	ImagesDir string

	// Limiter rate limits every route except /healthz and /images/. Nil disables rate limiting.
	Limiter ratelimit.Limiter

	// Logger receives internal errors. Defaults to a standard logger prefixed "[http] ".
	Logger gofeed.Logger

	// MaxUploadSize bounds multipart bodies. Defaults to DefaultMaxUploadSize.
	MaxUploadSize int64
}

// Handler serves the feed API.
type Handler struct {
	feed      *gofeed.Feed
	imagesDir string
	limiter   ratelimit.Limiter
	logger    gofeed.Logger
	maxUpload int64
	commands  map[string]command
}

// New creates a Handler.
func New(cfg *Config) *Handler {
	h := &Handler{
		feed:      cfg.Feed,
		imagesDir: cfg.ImagesDir,
		limiter:   cfg.Limiter,
		logger:    cfg.Logger,
		maxUpload: cfg.MaxUploadSize,
	}
	if h.logger == nil {
		h.logger = log.New(os.Stderr, "[http] ", log.LstdFlags)
	}
	if h.maxUpload <= 0 {
		h.maxUpload = DefaultMaxUploadSize
	}
	h.commands = h.commandTable()
	return h
}

// Router returns the routes with CORS, OPTIONS handling, rate limiting and identity applied.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	r.Use(middleware.AnswerOptions)
	if h.limiter != nil {
		r.Use(ratelimit.Middleware(h.limiter, &ratelimit.Config{
			SkipFunc: skipRateLimit,
			Logger:   h.logger,
		}))
	}
	r.Use(mwchi.Identify(h.feed, nil))

	r.Get("/healthz", h.Health)
	if h.imagesDir != "" {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(h.imagesDir))))
	}

	r.Post("/graphql", h.Command)
	r.Put("/post-image", h.UploadImage)

	r.Route("/auth", func(r chi.Router) {
		r.Put("/signup", h.Signup)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(mwchi.RequireAuth(nil))
			r.Get("/status", h.GetStatus)
			r.Patch("/status", h.UpdateStatus)
		})
	})

	r.Route("/feed", func(r chi.Router) {
		r.Use(mwchi.RequireAuth(nil))
		r.Get("/posts", h.ListPosts)
		r.Post("/post", h.CreatePost)
		r.Get("/post/{postId}", h.GetPost)
		r.Put("/post/{postId}", h.UpdatePost)
		r.Delete("/post/{postId}", h.DeletePost)
	})

	return r
}

func skipRateLimit(r *http.Request) bool {
	return r.URL.Path == "/healthz" || strings.HasPrefix(r.URL.Path, "/images/")
}

// Health reports whether the store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.feed.Ping(ctx); err != nil {
		h.logger.Printf("health check failed: %v", err)
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError writes err as a JSON error body and logs the cause of internal errors.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := gofeed.Classify(err)
	if e.Code == gofeed.CodeInternal {
		h.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	middleware.WriteError(w, e)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return gofeed.NewError(gofeed.CodeValidationFailed, "Invalid request body.", err)
	}
	return nil
}
