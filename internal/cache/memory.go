package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps blobs in process memory. With a positive limit the oldest
// inserted entries are evicted first.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	order   []string
	limit   int
	closed  bool
}

// NewMemoryStore creates a store holding at most limit entries (0 = unbounded).
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
		limit:   limit,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	dup := make([]byte, len(v))
	copy(dup, v)
	return dup, true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	dup := make([]byte, len(value))
	copy(dup, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = dup
	for m.limit > 0 && len(m.entries) > m.limit {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.entries = nil
	m.order = nil
	m.mu.Unlock()
	return nil
}
