package notify

import (
	"context"
	"sync"
	"time"
)

// TimestampStore remembers when each identity was last notified about.
type TimestampStore interface {
	// Last returns the last notification time, ok=false when never notified.
	Last(ctx context.Context, identity string) (at time.Time, ok bool, err error)
	// Mark records a notification at the given time.
	Mark(ctx context.Context, identity string, at time.Time) error
	// Claim marks identity at now only if it is due, in one atomic step.
	Claim(ctx context.Context, identity string, now time.Time, window time.Duration) (bool, error)
	// Reset forgets every identity.
	Reset(ctx context.Context) error
}

// due reports whether an identity last notified at last (ok=false: never)
// may be notified again at now. window <= 0 means never again.
func due(last time.Time, ok bool, now time.Time, window time.Duration) bool {
	if !ok {
		return true
	}
	if window <= 0 {
		return false
	}
	return now.UnixMilli()-last.UnixMilli() > window.Milliseconds()
}

// MemoryStore holds timestamps in process memory as Unix milliseconds.
type MemoryStore struct {
	mu   sync.Mutex
	last map[string]int64
}

// NewMemoryStore creates an empty in-memory timestamp store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]int64)}
}

func (m *MemoryStore) Last(_ context.Context, identity string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.last[identity]
	if !ok {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (m *MemoryStore) Mark(_ context.Context, identity string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[identity] = at.UnixMilli()
	return nil
}

func (m *MemoryStore) Claim(_ context.Context, identity string, now time.Time, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.last[identity]
	if !due(time.UnixMilli(ms), ok, now, window) {
		return false, nil
	}
	m.last[identity] = now.UnixMilli()
	return true, nil
}

func (m *MemoryStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = make(map[string]int64)
	return nil
}

var _ TimestampStore = (*MemoryStore)(nil)
