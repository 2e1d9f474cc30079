package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/playperu/cafefinder/internal/cafefinder"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps sessions in process. Values are stored encoded so
// callers never share pointers with the store.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (cafefinder.Session, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if ok && !m.now().Before(e.expires) {
		delete(m.entries, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return cafefinder.Session{}, ErrNotFound
	}
	var s cafefinder.Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return cafefinder.Session{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return s, nil
}

func (m *MemoryStore) Put(_ context.Context, s cafefinder.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries[s.ID] = memoryEntry{data: data, expires: now.Add(m.ttl)}
	m.sweep(now)
	return nil
}

func (m *MemoryStore) Check(context.Context) error { return nil }

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.now())
	return len(m.entries)
}

func (m *MemoryStore) sweep(now time.Time) {
	for id, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, id)
		}
	}
}
