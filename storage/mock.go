package storage

import "sync"

// MockStore is an in-memory implementation of the Store interface for
// testing. Individual operations can be overridden through the *Func
// fields; unset operations fall through to the in-memory map.
type MockStore struct {
	GetFunc    func(key string) ([]byte, error)
	SetFunc    func(key string, value []byte) error
	DeleteFunc func(key string) error
	ClearFunc  func() error

	mu   sync.Mutex
	data map[string][]byte
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

// Get implements Store.Get
func (m *MockStore) Get(key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

// Set implements Store.Set
func (m *MockStore) Set(key string, value []byte) error {
	if m.SetFunc != nil {
		return m.SetFunc(key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements Store.Delete
func (m *MockStore) Delete(key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Clear implements Store.Clear
func (m *MockStore) Clear() error {
	if m.ClearFunc != nil {
		return m.ClearFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}
