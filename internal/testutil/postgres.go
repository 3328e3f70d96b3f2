// Package testutil starts throwaway databases for integration tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	// PostgreSQL driver
	_ "github.com/jackc/pgx/v5/stdlib"

	sqlstore "github.com/aloks98/gofeed/store/sql"
)

// SetupPostgres starts a PostgreSQL container and returns a migrated store.
// The container is terminated when the test finishes.
func SetupPostgres(t testing.TB) *sqlstore.Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("gofeed_test"),
		postgres.WithUsername("gofeed"),
		postgres.WithPassword("gofeed"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	return openSQL(t, sqlstore.PostgreSQL, dsn)
}

func openSQL(t testing.TB, dialect sqlstore.Dialect, dsn string) *sqlstore.Store {
	t.Helper()

	s, err := sqlstore.New(&sqlstore.Config{
		Dialect:     dialect,
		DSN:         dsn,
		TablePrefix: "test_",
	})
	if err != nil {
		t.Fatalf("Failed to create SQL store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("Failed to close store: %v", err)
		}
	})

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return s
}
