package gofeed

import (
	"context"
	"testing"

	"github.com/aloks98/gofeed/internal/testutil"
	"github.com/aloks98/gofeed/password"
)

func newBenchFeed(b *testing.B) *Feed {
	b.Helper()
	store := testutil.SetupPostgres(b)

	f, err := New(
		WithSecret(testSecret),
		WithStore(store),
		WithHasher(password.NewBcryptHasher(4)),
	)
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}
	b.Cleanup(func() { f.Close() })
	return f
}

func BenchmarkIdentify(b *testing.B) {
	f := newBenchFeed(b)
	ctx := context.Background()

	if _, err := f.CreateUser(ctx, UserInput{Email: "bench@example.com", Password: "12345", Name: "Bench"}); err != nil {
		b.Fatalf("CreateUser() error = %v", err)
	}
	auth, err := f.Login(ctx, "bench@example.com", "12345")
	if err != nil {
		b.Fatalf("Login() error = %v", err)
	}
	header := "Bearer " + auth.Token

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !f.Identify(header).IsAuthenticated {
			b.Fatal("expected an authenticated identity")
		}
	}
}

func BenchmarkPosts(b *testing.B) {
	f := newBenchFeed(b)
	ctx := context.Background()

	if _, err := f.CreateUser(ctx, UserInput{Email: "bench@example.com", Password: "12345", Name: "Bench"}); err != nil {
		b.Fatalf("CreateUser() error = %v", err)
	}
	auth, err := f.Login(ctx, "bench@example.com", "12345")
	if err != nil {
		b.Fatalf("Login() error = %v", err)
	}
	who := f.Identify("Bearer " + auth.Token)

	for i := 0; i < 20; i++ {
		if _, err := f.CreatePost(ctx, who, PostInput{Title: "Bench post", Content: "Bench content"}); err != nil {
			b.Fatalf("CreatePost() error = %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Posts(ctx, who, i%10+1); err != nil {
			b.Fatalf("Posts() error = %v", err)
		}
	}
}
