package playlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/acampos/iptv-player/storage"
)

// grantsKey is the storage key holding the file access grants.
const grantsKey = "file_grants"

// ErrGrantNotFound is returned when a grant id has no stored path.
var ErrGrantNotFound = errors.New("playlist: file grant not found")

// Grants maps durable grant ids to local file paths. A grant is
// registered once, when the user picks a file, and stays valid across
// restarts; file-type playlists store the grant id as their
// SourceValue instead of a raw path.
type Grants struct {
	mu    sync.RWMutex
	store storage.Store
	paths map[string]string
}

// NewGrants loads the grant registry from the store. Missing or
// corrupt stored grants yield an empty registry.
func NewGrants(store storage.Store) *Grants {
	g := &Grants{store: store, paths: make(map[string]string)}

	data, err := store.Get(grantsKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Warning: failed to read stored file grants: %v", err)
		}
		return g
	}

	if err := json.Unmarshal(data, &g.paths); err != nil {
		log.Printf("Warning: stored file grants are corrupt, starting empty: %v", err)
		g.paths = make(map[string]string)
	}
	return g
}

// Register records access to the given file and returns a grant id.
// The file must exist and be readable at registration time.
func (g *Grants) Register(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a playlist file", abs)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	id := uuid.New().String()
	g.paths[id] = abs
	if err := g.persist(); err != nil {
		delete(g.paths, id)
		return "", err
	}
	return id, nil
}

// Resolve returns the file path behind a grant id.
func (g *Grants) Resolve(id string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	path, ok := g.paths[id]
	if !ok {
		return "", ErrGrantNotFound
	}
	return path, nil
}

// Revoke drops a grant. Revoking an unknown id is not an error.
func (g *Grants) Revoke(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.paths[id]; !ok {
		return nil
	}
	delete(g.paths, id)
	return g.persist()
}

// Clear drops every grant.
func (g *Grants) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.paths = make(map[string]string)
	if err := g.store.Delete(grantsKey); err != nil {
		return fmt.Errorf("failed to clear file grants: %w", err)
	}
	return nil
}

// persist writes the registry to the store. Called with g.mu held.
func (g *Grants) persist() error {
	data, err := json.Marshal(g.paths)
	if err != nil {
		return fmt.Errorf("failed to marshal file grants: %w", err)
	}
	if err := g.store.Set(grantsKey, data); err != nil {
		return fmt.Errorf("failed to persist file grants: %w", err)
	}
	return nil
}
