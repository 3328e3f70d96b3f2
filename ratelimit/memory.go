package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// MemoryLimiter is an in-memory sliding window limiter. The count of the previous window is
// weighted by how much of it still overlaps the sliding window.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*slidingEntry
	rate    int
	window  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type slidingEntry struct {
	prevCount int
	currCount int
	start     time.Time
}

// MemoryOption configures a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithClock sets the clock used by the limiter.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLimiter) {
		m.now = now
	}
}

// NewMemoryLimiter creates a limiter allowing rate requests per window for each key.
func NewMemoryLimiter(rate int, window time.Duration, opts ...MemoryOption) *MemoryLimiter {
	m := &MemoryLimiter{
		entries: make(map[string]*slidingEntry),
		rate:    rate,
		window:  window,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.cleanup()
	return m
}

// Allow implements Limiter.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	return m.AllowN(ctx, key, 1)
}

// AllowN implements Limiter.
func (m *MemoryLimiter) AllowN(ctx context.Context, key string, n int) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, exists := m.entries[key]
	if !exists {
		e = &slidingEntry{start: now}
		m.entries[key] = e
	}
	m.rotate(e, now)

	weighted := m.weighted(e, now)
	res := Result{Limit: m.rate, ResetAt: e.start.Add(m.window)}

	if weighted+n > m.rate {
		res.Remaining = max(m.rate-weighted, 0)
		return res, nil
	}

	e.currCount += n
	res.Allowed = true
	res.Remaining = m.rate - weighted - n
	return res, nil
}

// Remaining returns the number of requests key may still make now.
func (m *MemoryLimiter) Remaining(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.entries[key]
	if !exists {
		return m.rate
	}
	now := m.now()
	m.rotate(e, now)
	return max(m.rate-m.weighted(e, now), 0)
}

// rotate moves e's windows forward so that now falls inside the current one.
func (m *MemoryLimiter) rotate(e *slidingEntry, now time.Time) {
	elapsed := now.Sub(e.start)
	if elapsed < m.window {
		return
	}

	passed := int(elapsed / m.window)
	if passed == 1 {
		e.prevCount = e.currCount
	} else {
		e.prevCount = 0
	}
	e.currCount = 0
	e.start = e.start.Add(time.Duration(passed) * m.window)
}

// weighted returns the request count of the sliding window ending at now, rounded up.
func (m *MemoryLimiter) weighted(e *slidingEntry, now time.Time) int {
	overlap := float64(m.window-now.Sub(e.start)) / float64(m.window)
	return int(math.Ceil(float64(e.prevCount)*overlap)) + e.currCount
}

// Reset implements Limiter.
func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Close stops the cleanup goroutine.
func (m *MemoryLimiter) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// cleanup periodically removes idle entries.
func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

// removeExpired removes entries idle for more than two windows.
func (m *MemoryLimiter) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	threshold := m.now().Add(-2 * m.window)
	for key, e := range m.entries {
		if e.start.Before(threshold) {
			delete(m.entries, key)
		}
	}
}

var _ Limiter = (*MemoryLimiter)(nil)
