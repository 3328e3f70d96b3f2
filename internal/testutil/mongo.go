package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	mongostore "github.com/aloks98/gofeed/store/mongo"
)

// SetupMongo starts a MongoDB container and returns a migrated store backed by a fresh database.
func SetupMongo(t testing.TB) *mongostore.Store {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("Failed to start MongoDB container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MongoDB container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	s, err := mongostore.New(ctx, &mongostore.Config{
		URI:      uri,
		Database: "gofeed_" + uuid.NewString()[:8],
	})
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("Failed to close store: %v", err)
		}
	})

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}
	return s
}
