package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore implements Store using one file per key.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file-backed store rooted at baseDir.
// It ensures the directory exists before returning.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage directory cannot be empty")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileStore{baseDir: baseDir}, nil
}

// Get retrieves the value stored under key.
func (fs *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(fs.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}
	return data, nil
}

// Set stores value under key. The value is written to a temp file and
// renamed into place so a crash mid-write never leaves a truncated
// value behind; playlist definitions are the sole source of truth and
// cannot be recomputed if lost.
func (fs *FileStore) Set(key string, value []byte) error {
	filePath := fs.filePath(key)

	tmp, err := os.CreateTemp(fs.baseDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace storage file: %w", err)
	}

	return nil
}

// Delete removes the value stored under key.
func (fs *FileStore) Delete(key string) error {
	if err := os.Remove(fs.filePath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete storage file: %w", err)
	}
	return nil
}

// Clear removes every stored value.
func (fs *FileStore) Clear() error {
	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return fmt.Errorf("failed to list storage directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(fs.baseDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to delete storage file: %w", err)
		}
	}

	return nil
}

// filePath generates a file path from a key. The key is hashed to
// create a safe filename.
func (fs *FileStore) filePath(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(fs.baseDir, hex.EncodeToString(hash[:])+".json")
}
