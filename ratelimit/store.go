// Package ratelimit bounds request volume per client with fixed-window counters.
//
// A Store counts hits per key inside a window that starts with the first hit
// and resets once it elapses. Keys combine the route class and the client key,
// so every limiter instance has its own counters. The HTTP middleware in this
// package short-circuits with 429 once a window's ceiling is passed.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is the state of one counter after an increment.
type Window struct {
	Count   int64
	ResetAt time.Time
}

// Store increments the counter for key, opening a new window when none is
// active. Implementations must be safe for concurrent use and the increment
// must be atomic per key.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (Window, error)
}

// MemoryStore keeps counters in process memory, guarded by a mutex.
// Expired windows are dropped lazily on access and by the janitor.
type MemoryStore struct {
	mu           sync.Mutex
	windows      map[string]*Window
	now          func() time.Time
	cleanupEvery time.Duration
}

type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func WithCleanupEvery(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.cleanupEvery = d }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		windows:      make(map[string]*Window),
		now:          time.Now,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Window, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.ResetAt) {
		w = &Window{ResetAt: now.Add(window)}
		s.windows[key] = w
	}
	w.Count++
	return *w, nil
}

// Cleanup removes every window that has already elapsed.
func (s *MemoryStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, w := range s.windows {
		if !now.Before(w.ResetAt) {
			delete(s.windows, k)
		}
	}
}

// Len reports how many windows are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// RunJanitor cleans up elapsed windows periodically until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		<-ctx.Done()
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Cleanup()
		}
	}
}
