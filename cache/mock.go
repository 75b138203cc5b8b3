package cache

import (
	"fmt"
	"sync"
	"time"
)

// MockStorage is a mock implementation of the Storage interface for
// testing. Overridable *Func fields take precedence; without them,
// entries live in an in-memory map.
type MockStorage struct {
	GetFunc       func(key string) (*Entry, error)
	SetFunc       func(key string, content []byte) error
	IsExpiredFunc func(key string, ttl time.Duration) (bool, error)

	mu      sync.Mutex
	entries map[string]*Entry
}

// Get implements Storage.Get
func (m *MockStorage) Get(key string) (*Entry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, exists := m.entries[key]
	if !exists {
		return nil, fmt.Errorf("cache entry not found: %s", key)
	}
	return entry, nil
}

// Set implements Storage.Set
func (m *MockStorage) Set(key string, content []byte) error {
	if m.SetFunc != nil {
		return m.SetFunc(key, content)
	}

	m.Seed(key, &Entry{Content: content, Timestamp: time.Now()})
	return nil
}

// IsExpired implements Storage.IsExpired
func (m *MockStorage) IsExpired(key string, ttl time.Duration) (bool, error) {
	if m.IsExpiredFunc != nil {
		return m.IsExpiredFunc(key, ttl)
	}

	entry, err := m.Get(key)
	if err != nil {
		return true, nil
	}
	return time.Since(entry.Timestamp) > ttl, nil
}

// Seed installs an entry directly, bypassing any SetFunc override, so
// tests can plant content with an arbitrary timestamp.
func (m *MockStorage) Seed(key string, entry *Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]*Entry)
	}
	m.entries[key] = entry
}
