// Package storage provides the key-value persistence port used for
// playlist definitions, selection state and per-channel volumes.
package storage

import "errors"

// ErrNotFound is returned when no value is stored under a key.
var ErrNotFound = errors.New("storage: key not found")

// Store is the persistence port. Writes are atomic at the granularity
// of a single key; callers must tolerate missing or corrupt values by
// defaulting rather than failing.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes the value stored under key. Deleting a missing
	// key is not an error.
	Delete(key string) error

	// Clear removes every stored value.
	Clear() error
}
