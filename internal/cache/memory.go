package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	shares  map[string]*shareRecord
	clock   Clock
}

type shareRecord struct {
	entry     *Entry
	expiresAt time.Time
	viewCount int64
}

// NewMemoryStore creates an empty in-memory store. clock may be nil.
func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryStore{
		entries: map[string]*Entry{},
		shares:  map[string]*shareRecord{},
		clock:   clock,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.ExpiresAt.IsZero() && m.clock.Now().After(e.ExpiresAt) {
		delete(m.entries, key)
		return nil, ErrNotFound
	}
	e.AccessCount++
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) Put(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries[e.Key] = &cp
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return false, nil
	}
	delete(m.entries, key)
	return true, nil
}

func (m *MemoryStore) ClearAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.entries))
	m.entries = map[string]*Entry{}
	return n, nil
}

func (m *MemoryStore) CreateShareLink(_ context.Context, token string, e *Entry, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.shares[token] = &shareRecord{entry: &cp, expiresAt: expiresAt}
	return nil
}

func (m *MemoryStore) GetSharedEntry(_ context.Context, token string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.shares[token]
	if !ok {
		return nil, ErrNotFound
	}
	if !rec.expiresAt.IsZero() && m.clock.Now().After(rec.expiresAt) {
		delete(m.shares, token)
		return nil, ErrNotFound
	}
	rec.viewCount++
	cp := *rec.entry
	return &cp, nil
}

func (m *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Stats{
		Entries:    int64(len(m.entries)),
		ShareLinks: int64(len(m.shares)),
	}, nil
}

func (m *MemoryStore) Close() error { return nil }
