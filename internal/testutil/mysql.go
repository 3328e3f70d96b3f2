package testutil

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/mysql"

	sqlstore "github.com/aloks98/gofeed/store/sql"
)

// SetupMySQL starts a MySQL container and returns a migrated store.
func SetupMySQL(t testing.TB) *sqlstore.Store {
	t.Helper()
	ctx := context.Background()

	container, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("gofeed_test"),
		mysql.WithUsername("gofeed"),
		mysql.WithPassword("gofeed"),
	)
	if err != nil {
		t.Fatalf("Failed to start MySQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MySQL container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	return openSQL(t, sqlstore.MySQL, dsn)
}
