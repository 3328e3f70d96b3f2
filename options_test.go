package gofeed

import (
	"context"
	"testing"
	"time"

	"github.com/aloks98/gofeed/password"
	"github.com/aloks98/gofeed/store/memory"
)

func TestOptions(t *testing.T) {
	s := memory.New()
	h := password.NewBcryptHasher(4)
	n := &recordingNotifier{}
	l := &recordingLogger{}
	now := func() time.Time { return time.Unix(0, 0) }

	cfg := NewConfig()
	for _, opt := range []Option{
		WithSecret(testSecret),
		WithSigningMethod(SigningMethodHS512),
		WithTokenTTL(2 * time.Hour),
		WithClockSkew(time.Second),
		WithPerPage(10),
		WithAutoMigrate(true),
		WithStore(s),
		WithHasher(h),
		WithNotifier(n),
		WithLogger(l),
		WithClock(now),
	} {
		opt(cfg)
	}

	if cfg.Secret != testSecret {
		t.Errorf("Secret = %q", cfg.Secret)
	}
	if cfg.SigningMethod != SigningMethodHS512 {
		t.Errorf("SigningMethod = %v", cfg.SigningMethod)
	}
	if cfg.TokenTTL != 2*time.Hour || cfg.ClockSkew != time.Second {
		t.Errorf("TokenTTL = %v, ClockSkew = %v", cfg.TokenTTL, cfg.ClockSkew)
	}
	if cfg.PerPage != 10 || !cfg.AutoMigrate {
		t.Errorf("PerPage = %d, AutoMigrate = %v", cfg.PerPage, cfg.AutoMigrate)
	}
	if cfg.store != s || cfg.hasher != h || cfg.notifier != n || cfg.logger != l {
		t.Error("dependencies were not applied")
	}
	if !cfg.now().Equal(time.Unix(0, 0)) {
		t.Error("clock was not applied")
	}
}

func TestNew_Defaults(t *testing.T) {
	f, err := New(WithSecret(testSecret), WithStore(memory.New()), WithAutoMigrate(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer f.Close()

	if _, ok := f.hasher.(*password.Multi); !ok {
		t.Errorf("default hasher = %T, want *password.Multi", f.hasher)
	}
	if f.logger == nil || f.now == nil {
		t.Error("logger and clock should default")
	}
	if f.Tokens().TTL() != DefaultTokenTTL {
		t.Errorf("token TTL = %v", f.Tokens().TTL())
	}
	if err := f.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(WithStore(memory.New())); err == nil {
		t.Error("expected error without a secret")
	}
	if _, err := New(WithSecret(testSecret)); err == nil {
		t.Error("expected error without a store")
	}
}

func TestFeed_CloseIsIdempotent(t *testing.T) {
	f, err := New(WithSecret(testSecret), WithStore(memory.New()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
