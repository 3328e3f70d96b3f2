// Package app wires configuration, stores and background workers into a runnable feed server.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	// Import pgx driver for PostgreSQL
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/cleanup"
	"github.com/aloks98/gofeed/files"
	"github.com/aloks98/gofeed/notify"
	"github.com/aloks98/gofeed/ratelimit"
	"github.com/aloks98/gofeed/store"
	"github.com/aloks98/gofeed/store/memory"
	"github.com/aloks98/gofeed/store/mongo"
	"github.com/aloks98/gofeed/store/sql"
)

// App is the main application container.
type App struct {
	Config  *Config
	Feed    *gofeed.Feed
	Files   *files.Disk
	Limiter ratelimit.Limiter
	Cleanup *cleanup.Worker
	Logger  *log.Logger

	redis *redis.Client
}

// New creates a new App instance. Background workers are not started; call Start.
func New(ctx context.Context, cfg *Config) (*App, error) {
	logger := log.New(os.Stderr, "[gofeed] ", log.LstdFlags)

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	disk, err := files.NewDisk(cfg.ImagesDir)
	if err != nil {
		st.Close()
		return nil, err
	}

	a := &App{Config: cfg, Files: disk, Logger: logger}

	opts := []gofeed.Option{
		gofeed.WithSecret(cfg.JWTSecret),
		gofeed.WithTokenTTL(cfg.TokenTTL),
		gofeed.WithStore(st),
		gofeed.WithFileStore(disk),
		gofeed.WithAutoMigrate(true),
		gofeed.WithLogger(logger),
	}

	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			st.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Limiter = ratelimit.NewRedisLimiter(&ratelimit.RedisConfig{
			Client: a.redis,
			Rate:   cfg.RateLimit,
			Window: cfg.RateWindow,
		})
		opts = append(opts, gofeed.WithNotifier(notify.NewPublisher(a.redis)))
	} else {
		a.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow)
	}

	a.Feed, err = gofeed.New(opts...)
	if err != nil {
		a.closeRedis()
		a.Limiter.Close()
		st.Close()
		return nil, fmt.Errorf("failed to create feed: %w", err)
	}

	if cfg.CleanupInterval > 0 {
		a.Cleanup = cleanup.NewWorker(&cleanup.Config{
			Files:    disk,
			Posts:    st,
			Interval: cfg.CleanupInterval,
		})
	}

	logger.Printf("initialized with %s store, images in %s", cfg.Store, disk.Root())
	return a, nil
}

// OpenStore connects to the store selected by cfg.Store.
func OpenStore(ctx context.Context, cfg *Config) (store.Store, error) {
	switch cfg.Store {
	case StoreMemory:
		return memory.New(), nil
	case StoreMongo:
		return mongo.New(ctx, &mongo.Config{
			URI:      cfg.DatabaseURL,
			Database: cfg.MongoDatabase,
		})
	case StorePostgres, StoreMySQL, StoreSQLite:
		return sql.New(&sql.Config{
			Dialect:         sql.Dialect(cfg.Store),
			DSN:             cfg.DatabaseURL,
			TablePrefix:     cfg.TablePrefix,
			MaxOpenConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
		})
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// Start launches the background workers.
func (a *App) Start() {
	if a.Cleanup != nil {
		a.Cleanup.Start()
	}
}

// Close stops the workers and shuts down the application.
func (a *App) Close() error {
	if a.Cleanup != nil {
		a.Cleanup.Stop()
	}
	a.Limiter.Close()
	err := a.Feed.Close()
	a.closeRedis()
	return err
}

func (a *App) closeRedis() {
	if a.redis != nil {
		a.redis.Close()
	}
}
