package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aloks98/gofeed/files"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// mockFiles is an in-memory files.Store.
type mockFiles struct {
	mu        sync.Mutex
	files     map[string]time.Time
	listErr   error
	removeErr error
}

func newMockFiles() *mockFiles {
	return &mockFiles{files: make(map[string]time.Time)}
}

func (m *mockFiles) add(path string, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = modTime
}

func (m *mockFiles) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (m *mockFiles) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockFiles) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.files, path)
	return nil
}

func (m *mockFiles) List(ctx context.Context) ([]files.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []files.Info
	for p, mod := range m.files {
		out = append(out, files.Info{Path: p, ModTime: mod})
	}
	return out, nil
}

// mockPosts reports the configured paths as referenced.
type mockPosts struct {
	used map[string]bool
	err  error
}

func (m *mockPosts) ImageInUse(ctx context.Context, path string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.used[path], nil
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

func newTestWorker(fs *mockFiles, posts *mockPosts, logger *recordingLogger) *Worker {
	return NewWorker(&Config{
		Files:       fs,
		Posts:       posts,
		GracePeriod: time.Hour,
		Logger:      logger,
		Now:         func() time.Time { return baseTime },
	})
}

func TestWorker_RunNow(t *testing.T) {
	fs := newMockFiles()
	fs.add("images/old-orphan.png", baseTime.Add(-2*time.Hour))
	fs.add("images/old-used.png", baseTime.Add(-2*time.Hour))
	fs.add("images/new-orphan.png", baseTime.Add(-time.Minute))

	posts := &mockPosts{used: map[string]bool{"images/old-used.png": true}}
	logger := &recordingLogger{}
	w := newTestWorker(fs, posts, logger)

	if removed := w.RunNow(context.Background()); removed != 1 {
		t.Errorf("expected 1 removed file, got %d", removed)
	}

	want := []string{"images/new-orphan.png", "images/old-used.png"}
	if got := fs.paths(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v to remain, got %v", want, got)
	}

	stats := w.Stats()
	if stats.Scanned != 3 || stats.Removed != 1 || stats.Errors != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if !stats.LastRun.Equal(baseTime) {
		t.Errorf("unexpected last run %v", stats.LastRun)
	}
	if !logger.contains("removed 1 orphaned images") {
		t.Errorf("expected removal to be logged, got %v", logger.lines)
	}
}

func TestWorker_RunNow_Errors(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		fs := newMockFiles()
		fs.listErr = errors.New("disk gone")
		logger := &recordingLogger{}
		w := newTestWorker(fs, &mockPosts{}, logger)

		if removed := w.RunNow(context.Background()); removed != 0 {
			t.Errorf("expected nothing removed, got %d", removed)
		}
		if w.Stats().Errors != 1 || !logger.contains("disk gone") {
			t.Errorf("expected list error to be counted and logged")
		}
	})

	t.Run("check", func(t *testing.T) {
		fs := newMockFiles()
		fs.add("images/a.png", baseTime.Add(-2*time.Hour))
		w := newTestWorker(fs, &mockPosts{err: errors.New("db down")}, &recordingLogger{})

		w.RunNow(context.Background())
		if len(fs.paths()) != 1 {
			t.Error("an image must not be removed when its use cannot be checked")
		}
		if w.Stats().Errors != 1 {
			t.Errorf("expected 1 error, got %d", w.Stats().Errors)
		}
	})

	t.Run("remove", func(t *testing.T) {
		fs := newMockFiles()
		fs.add("images/a.png", baseTime.Add(-2*time.Hour))
		fs.removeErr = errors.New("permission denied")
		w := newTestWorker(fs, &mockPosts{}, &recordingLogger{})

		if removed := w.RunNow(context.Background()); removed != 0 {
			t.Errorf("expected nothing removed, got %d", removed)
		}
		if w.Stats().Errors != 1 {
			t.Errorf("expected 1 error, got %d", w.Stats().Errors)
		}
	})
}

func TestWorker_WithDisk(t *testing.T) {
	dir := t.TempDir()
	disk, err := files.NewDisk(dir)
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}

	ctx := context.Background()
	p, err := disk.Save(ctx, "a.png", "image/png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	w := NewWorker(&Config{
		Files:  disk,
		Posts:  &mockPosts{},
		Logger: &recordingLogger{},
		Now:    func() time.Time { return time.Now().Add(2 * time.Hour) },
	})

	if removed := w.RunNow(ctx); removed != 1 {
		t.Fatalf("expected 1 removed file, got %d", removed)
	}

	infos, err := disk.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected %s to be removed, still have %v", p, infos)
	}
}

func TestWorker_StartStop(t *testing.T) {
	fs := newMockFiles()
	fs.add("images/a.png", baseTime.Add(-2*time.Hour))

	w := NewWorker(&Config{
		Files:    fs,
		Posts:    &mockPosts{},
		Interval: 10 * time.Millisecond,
		Logger:   &recordingLogger{},
		Now:      func() time.Time { return baseTime },
	})

	w.Start()
	deadline := time.Now().Add(2 * time.Second)
	for len(fs.paths()) > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if len(fs.paths()) != 0 {
		t.Error("expected the ticker to sweep the orphaned image")
	}
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(&Config{Files: newMockFiles(), Posts: &mockPosts{}})

	if w.cfg.Interval != DefaultInterval {
		t.Errorf("expected interval %v, got %v", DefaultInterval, w.cfg.Interval)
	}
	if w.cfg.GracePeriod != DefaultGracePeriod {
		t.Errorf("expected grace period %v, got %v", DefaultGracePeriod, w.cfg.GracePeriod)
	}
	if w.logger == nil || w.cfg.Now == nil {
		t.Error("expected logger and clock defaults")
	}
}
