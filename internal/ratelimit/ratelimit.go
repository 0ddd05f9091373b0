// Package ratelimit bounds how often a single client may submit the contact
// form, using a fixed window per client key.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store decides whether one more request for key fits in the current window.
// A refused request does not count towards the window.
type Store interface {
	CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps counters in process memory. Each process tracks its own
// counters, so limits are per instance under horizontal scaling.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAndIncrement implements Store.
func (s *MemoryStore) CheckAndIncrement(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		s.entries[key] = &entry{count: 1, resetAt: now.Add(window)}
		return true, nil
	}

	if e.count >= limit {
		return false, nil
	}
	e.count++
	return true, nil
}

// Sweep drops every entry whose window has elapsed and reports how many were
// removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if now.After(e.resetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
