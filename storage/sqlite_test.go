package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return s
}

func TestSQLiteStore_SetGet(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Set("last_channel", []byte("a")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := s.Get("last_channel")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "a" {
		t.Errorf("Expected %q, got %q", "a", string(value))
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestSQLiteStore(t)

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestSQLiteStore_Upsert(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Set("key", []byte("old")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("key", []byte("new")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := s.Get("key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "new" {
		t.Errorf("Expected new value, got %q", string(value))
	}
}

func TestSQLiteStore_DeleteAndClear(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Set("a", []byte("1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("b", []byte("2")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got: %v", err)
	}
	if err := s.Delete("a"); err != nil {
		t.Errorf("Expected no error deleting missing key, got: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := s.Get("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after clear, got: %v", err)
	}
}
