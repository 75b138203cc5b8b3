package playlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/acampos/iptv-player/storage"
)

// storeKey is the storage key holding the playlist definition set.
const storeKey = "playlists"

// ErrNotFound is returned when no playlist has the requested id.
var ErrNotFound = errors.New("playlist: not found")

// Definitions provides thread-safe management of the persisted playlist
// set. Every mutation re-persists the full set and renormalizes order
// values to a dense 0..n-1 sequence.
type Definitions struct {
	mu    sync.RWMutex
	store storage.Store
	list  []Playlist
}

// NewDefinitions loads the playlist set from the store. A missing or
// corrupt stored value yields an empty set, never an error; playlist
// definitions must survive a bad read, and an unreadable set is
// recovered by starting over rather than crashing the load path.
func NewDefinitions(store storage.Store) *Definitions {
	d := &Definitions{store: store}

	data, err := store.Get(storeKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Warning: failed to read stored playlists, starting empty: %v", err)
		}
		return d
	}

	var list []Playlist
	if err := json.Unmarshal(data, &list); err != nil {
		log.Printf("Warning: stored playlists are corrupt, starting empty: %v", err)
		return d
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].Order < list[j].Order })
	d.list = normalize(list)
	return d
}

// List returns the playlists ordered by their Order field.
func (d *Definitions) List() []Playlist {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Playlist(nil), d.list...)
}

// Len returns the number of stored playlists.
func (d *Definitions) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.list)
}

// Get returns the playlist with the given id.
func (d *Definitions) Get(id string) (Playlist, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, pl := range d.list {
		if pl.ID == id {
			return pl, nil
		}
	}
	return Playlist{}, ErrNotFound
}

// Add appends a playlist at the end of the order, persists the set and
// returns the stored copy with its assigned order.
func (d *Definitions) Add(pl Playlist) (Playlist, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pl.Order = len(d.list)
	updated := append(append([]Playlist(nil), d.list...), pl)

	if err := d.persist(updated); err != nil {
		return Playlist{}, err
	}
	d.list = updated
	return pl, nil
}

// Update replaces the name, source type and source value of the
// playlist with pl.ID, keeping its order and creation time.
func (d *Definitions) Update(pl Playlist) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	updated := append([]Playlist(nil), d.list...)
	for i := range updated {
		if updated[i].ID != pl.ID {
			continue
		}
		updated[i].Name = pl.Name
		updated[i].SourceType = pl.SourceType
		updated[i].SourceValue = pl.SourceValue

		if err := d.persist(updated); err != nil {
			return err
		}
		d.list = updated
		return nil
	}
	return ErrNotFound
}

// Remove deletes the playlist with the given id, renormalizes the
// remaining order values and persists the set.
func (d *Definitions) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	updated := make([]Playlist, 0, len(d.list))
	found := false
	for _, pl := range d.list {
		if pl.ID == id {
			found = true
			continue
		}
		updated = append(updated, pl)
	}
	if !found {
		return ErrNotFound
	}

	updated = normalize(updated)
	if err := d.persist(updated); err != nil {
		return err
	}
	d.list = updated
	return nil
}

// Reorder rearranges the set to match ids, which must contain every
// stored playlist id exactly once.
func (d *Definitions) Reorder(ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(ids) != len(d.list) {
		return fmt.Errorf("reorder requires all %d playlist ids, got %d", len(d.list), len(ids))
	}

	byID := make(map[string]Playlist, len(d.list))
	for _, pl := range d.list {
		byID[pl.ID] = pl
	}

	updated := make([]Playlist, 0, len(ids))
	for _, id := range ids {
		pl, ok := byID[id]
		if !ok {
			return fmt.Errorf("unknown playlist id %q: %w", id, ErrNotFound)
		}
		delete(byID, id)
		updated = append(updated, pl)
	}

	updated = normalize(updated)
	if err := d.persist(updated); err != nil {
		return err
	}
	d.list = updated
	return nil
}

// Clear removes every playlist definition and persists the empty set.
func (d *Definitions) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.Delete(storeKey); err != nil {
		return fmt.Errorf("failed to clear playlists: %w", err)
	}
	d.list = nil
	return nil
}

// persist writes the given set to the store. Called with d.mu held.
func (d *Definitions) persist(list []Playlist) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal playlists: %w", err)
	}
	if err := d.store.Set(storeKey, data); err != nil {
		return fmt.Errorf("failed to persist playlists: %w", err)
	}
	return nil
}

// normalize rewrites order values into a dense 0..n-1 sequence,
// preserving relative order.
func normalize(list []Playlist) []Playlist {
	for i := range list {
		list[i].Order = i
	}
	return list
}
