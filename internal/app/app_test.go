package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/notify"
	"github.com/aloks98/gofeed/ratelimit"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ImagesDir = t.TempDir()
	return cfg
}

func TestNew_Memory(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, ok := a.Limiter.(*ratelimit.MemoryLimiter); !ok {
		t.Errorf("expected a memory limiter, got %T", a.Limiter)
	}
	if a.Cleanup == nil {
		t.Error("expected a cleanup worker")
	}

	ctx := context.Background()
	if _, err := a.Feed.CreateUser(ctx, gofeed.UserInput{Email: "a@b.com", Name: "A", Password: "12345"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := a.Feed.Login(ctx, "a@b.com", "12345"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	a.Start()
}

func TestNew_SQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = StoreSQLite
	cfg.DatabaseURL = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.CleanupInterval = 0

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.Cleanup != nil {
		t.Error("expected cleanup to be disabled")
	}
	if err := a.Feed.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNew_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, ok := a.Limiter.(*ratelimit.RedisLimiter); !ok {
		t.Fatalf("expected a redis limiter, got %T", a.Limiter)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub, err := notify.Subscribe(ctx, client, "")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	if _, err := a.Feed.CreateUser(ctx, gofeed.UserInput{Email: "a@b.com", Name: "A", Password: "12345"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	auth, err := a.Feed.Login(ctx, "a@b.com", "12345")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	who := a.Feed.Identify("Bearer " + auth.Token)
	post, err := a.Feed.CreatePost(ctx, who, gofeed.PostInput{Title: "Hello", Content: "World!"})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	select {
	case e := <-sub.Events():
		if e.Action != gofeed.ActionCreate || e.PostID != post.ID {
			t.Errorf("unexpected event %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the create event")
	}
}

func TestNew_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()
	mr.Close()

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected an error when redis is unreachable")
	}
}

func TestOpenStore_Unknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store = "cassandra"
	if _, err := OpenStore(context.Background(), cfg); err == nil {
		t.Error("expected an error for an unknown store")
	}
}
