package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. It exists for local
// development and tests; counters do not survive restarts and are not
// shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	now     func() time.Time
}

type memEntry struct {
	count     int64
	expiresAt time.Time // zero means no expiry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an in-memory counter store with an
// injected clock, for tests that need to move time.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memEntry),
		now:     now,
	}
}

// IncrWithTTL increments the counter at key, expiring it first if its
// window has closed, and reports the new count and remaining TTL.
func (m *MemoryStore) IncrWithTTL(ctx context.Context, key string) (int64, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if ok && !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	if !ok {
		e = &memEntry{}
		m.entries[key] = e
	}

	e.count++
	ttl := NoExpiry
	if !e.expiresAt.IsZero() {
		ttl = e.expiresAt.Sub(now)
	}
	return e.count, ttl, nil
}

// Expire sets the key's expiry relative to the current clock.
func (m *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		e.expiresAt = m.now().Add(ttl)
	}
	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close discards all counters.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*memEntry)
	return nil
}
