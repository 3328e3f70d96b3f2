package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("expected memory store, got %s", cfg.Store)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected 1h token TTL, got %v", cfg.TokenTTL)
	}
	if len(cfg.JWTSecret) < 32 {
		t.Errorf("default secret is too short: %d", len(cfg.JWTSecret))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadEnv(envMap(map[string]string{
		"PORT":             "9000",
		"GOFEED_STORE":     "postgres",
		"JWT_SECRET":       "another-secret-that-is-long-enough!!",
		"TOKEN_TTL":        "30m",
		"RATE_LIMIT":       "10",
		"RATE_WINDOW":      "10s",
		"CLEANUP_INTERVAL": "0",
		"REDIS_ADDR":       "localhost:6379",
	}))
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if cfg.Port != "9000" || cfg.Store != StorePostgres {
		t.Errorf("unexpected server settings %+v", cfg)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("expected 30m, got %v", cfg.TokenTTL)
	}
	if cfg.RateLimit != 10 || cfg.RateWindow != 10*time.Second {
		t.Errorf("unexpected rate settings %d/%v", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.CleanupInterval != 0 {
		t.Errorf("expected cleanup to be disabled, got %v", cfg.CleanupInterval)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("unexpected redis addr %q", cfg.RedisAddr)
	}
	if cfg.ImagesDir != "images" {
		t.Errorf("unset keys should keep their defaults, got %q", cfg.ImagesDir)
	}
}

func TestLoadEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"ttl", map[string]string{"TOKEN_TTL": "soon"}},
		{"window", map[string]string{"RATE_WINDOW": "1 minute"}},
		{"rate", map[string]string{"RATE_LIMIT": "many"}},
		{"cleanup", map[string]string{"CLEANUP_INTERVAL": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := DefaultConfig().LoadEnv(envMap(tt.env)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gofeed.yaml")
	content := `
port: "7000"
store: sqlite
database_url: "file:feed.db"
token_ttl: 2h
rate_limit: 50
cleanup_interval: 15m
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Port != "7000" || cfg.Store != StoreSQLite || cfg.DatabaseURL != "file:feed.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.TokenTTL != 2*time.Hour || cfg.CleanupInterval != 15*time.Minute {
		t.Errorf("unexpected durations %v %v", cfg.TokenTTL, cfg.CleanupInterval)
	}
	if cfg.RateLimit != 50 {
		t.Errorf("expected rate 50, got %d", cfg.RateLimit)
	}
	if cfg.MongoDatabase != "network" {
		t.Errorf("keys missing from the file should keep their defaults, got %q", cfg.MongoDatabase)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if err := DefaultConfig().LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := DefaultConfig().LoadFile(path); err == nil {
		t.Error("expected an error for invalid YAML")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gofeed.yaml")
	if err := os.WriteFile(path, []byte("port: \"7000\"\nstore: mysql\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("PORT", "7100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7100" {
		t.Errorf("expected env to win, got port %s", cfg.Port)
	}
	if cfg.Store != StoreMySQL {
		t.Errorf("expected store from file, got %s", cfg.Store)
	}
	if cfg.DatabaseURL == "" {
		t.Error("expected a driver default database url")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"unknown store", func(c *Config) { c.Store = "redis" }, true},
		{"no port", func(c *Config) { c.Port = "" }, true},
		{"no images dir", func(c *Config) { c.ImagesDir = "" }, true},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }, true},
		{"negative cleanup", func(c *Config) { c.CleanupInterval = -time.Second }, true},
		{"cleanup disabled", func(c *Config) { c.CleanupInterval = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
