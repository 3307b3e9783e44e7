package storage

import (
	"context"
	"regexp"
	"sort"
	"sync"
)

// keyPattern matches keys valid in both backends.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-=.]+$`)

// ValidateKey rejects ids that are not usable as storage keys.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || key[0] == '.' || key[len(key)-1] == '.' {
		return ErrInvalidKey
	}
	return nil
}

// Entry is a stored value with its revision.
type Entry struct {
	Value    []byte
	Revision uint64
}

// Backend is a key/value store with optimistic concurrency. Create fails
// with ErrConflict when the key exists; Update fails with ErrConflict when
// the revision is stale.
type Backend interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Create(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryBackend keeps records in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]Entry
	seq     uint64
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]Entry)}
}

// Get implements Backend.
func (m *MemoryBackend) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	value := make([]byte, len(e.Value))
	copy(value, e.Value)
	return &Entry{Value: value, Revision: e.Revision}, nil
}

// Create implements Backend.
func (m *MemoryBackend) Create(_ context.Context, key string, value []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return 0, ErrConflict
	}
	return m.put(key, value), nil
}

// Update implements Backend.
func (m *MemoryBackend) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || e.Revision != revision {
		return 0, ErrConflict
	}
	return m.put(key, value), nil
}

func (m *MemoryBackend) put(key string, value []byte) uint64 {
	m.seq++
	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = Entry{Value: stored, Revision: m.seq}
	return m.seq
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return ErrNotFound
	}
	delete(m.entries, key)
	return nil
}

// Keys implements Backend.
func (m *MemoryBackend) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
