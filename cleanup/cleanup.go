// Package cleanup provides a background worker that removes orphaned post images.
//
// An image is orphaned when no post references it: an upload that was never attached to a
// post, or a release that failed. Files younger than the grace period are never touched so
// that an upload in flight is not removed before its post is created.
package cleanup

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/aloks98/gofeed/files"
)

// Default worker settings.
const (
	DefaultInterval    = time.Hour
	DefaultGracePeriod = time.Hour
)

// ImageChecker reports whether a post references an image. store.Store implements it.
type ImageChecker interface {
	ImageInUse(ctx context.Context, path string) (bool, error)
}

// Logger is the interface for logging cleanup events.
type Logger interface {
	Printf(format string, v ...any)
}

// Config holds cleanup worker configuration.
type Config struct {
	// Files is the image store to sweep.
	Files files.Store

	// Posts decides whether an image is still referenced.
	Posts ImageChecker

	// Interval is how often to run cleanup. Defaults to 1 hour.
	Interval time.Duration

	// GracePeriod is the minimum age of a file before it may be removed. Defaults to 1 hour.
	GracePeriod time.Duration

	// Logger for cleanup events. Defaults to a standard logger prefixed "[cleanup] ".
	Logger Logger

	// Now is the worker's clock. Defaults to time.Now.
	Now func() time.Time
}

// Worker periodically removes orphaned images.
type Worker struct {
	files  files.Store
	posts  ImageChecker
	cfg    Config
	logger Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.RWMutex
	lastRun time.Time
	scanned int64
	removed int64
	errors  int64
}

// NewWorker creates a new cleanup worker.
func NewWorker(cfg *Config) *Worker {
	c := *cfg
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.Logger == nil {
		c.Logger = log.New(log.Writer(), "[cleanup] ", log.LstdFlags)
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return &Worker{
		files:  c.Files,
		posts:  c.Posts,
		cfg:    c,
		logger: c.Logger,
		done:   make(chan struct{}),
	}
}

// Start begins the cleanup worker.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully stops the cleanup worker. It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
}

// run is the main loop for the cleanup worker.
func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			w.RunNow(ctx)
			cancel()
		}
	}
}

// RunNow sweeps once and returns the number of removed files.
func (w *Worker) RunNow(ctx context.Context) int64 {
	now := w.cfg.Now()

	var scanned, removed, errs int64
	defer func() {
		w.mu.Lock()
		w.lastRun = now
		w.scanned += scanned
		w.removed += removed
		w.errors += errs
		w.mu.Unlock()
	}()

	infos, err := w.files.List(ctx)
	if err != nil {
		w.logger.Printf("error listing images: %v", err)
		errs++
		return 0
	}

	for _, info := range infos {
		if ctx.Err() != nil {
			break
		}
		scanned++

		if now.Sub(info.ModTime) < w.cfg.GracePeriod {
			continue
		}

		used, err := w.posts.ImageInUse(ctx, info.Path)
		if err != nil {
			w.logger.Printf("error checking image %s: %v", info.Path, err)
			errs++
			continue
		}
		if used {
			continue
		}

		if err := w.files.Remove(ctx, info.Path); err != nil {
			w.logger.Printf("error removing image %s: %v", info.Path, err)
			errs++
			continue
		}
		removed++
	}

	if removed > 0 {
		w.logger.Printf("removed %d orphaned images", removed)
	}
	return removed
}

// Stats holds cleanup statistics.
type Stats struct {
	LastRun time.Time
	Scanned int64
	Removed int64
	Errors  int64
}

// Stats returns the current cleanup statistics.
func (w *Worker) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return Stats{
		LastRun: w.lastRun,
		Scanned: w.scanned,
		Removed: w.removed,
		Errors:  w.errors,
	}
}
