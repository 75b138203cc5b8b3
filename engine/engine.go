// Package engine owns the aggregated channel catalog and all playback
// selection state. It is the single writer: every mutation goes through
// one of its methods, while any number of readers observe immutable
// snapshots of the last committed state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"

	"github.com/acampos/iptv-player/fetcher"
	"github.com/acampos/iptv-player/logging"
	"github.com/acampos/iptv-player/m3u"
	"github.com/acampos/iptv-player/metrics"
	"github.com/acampos/iptv-player/playlist"
	"github.com/acampos/iptv-player/storage"
)

// Storage keys for selection state.
const (
	keySelectedPlaylist = "selected_playlist"
	keyLastChannel      = "last_channel"
	keyVolumes          = "volumes"
)

var (
	// ErrNoChannels rejects an add or edit whose source produced no
	// playable channels.
	ErrNoChannels = errors.New("engine: playlist contains no channels")

	// ErrChannelNotFound is returned when a channel id is not in the
	// current catalog.
	ErrChannelNotFound = errors.New("engine: channel not found in catalog")
)

// Configured is the onboarding tri-state: unknown until the store has
// been read, then yes/no depending on whether any playlist exists.
type Configured string

// Configured states.
const (
	ConfiguredUnknown Configured = "unknown"
	ConfiguredNo      Configured = "no"
	ConfiguredYes     Configured = "yes"
)

// State is an immutable snapshot of the engine's public state. Readers
// always see the last fully committed snapshot, never a half-updated
// catalog.
type State struct {
	Configured    Configured          `json:"configured"`
	Playlists     []playlist.Playlist `json:"playlists"`
	Groups        []string            `json:"groups"`
	SelectedGroup string              `json:"selected_group"`
	Channels      []m3u.Channel       `json:"channels"`
	TotalChannels int                 `json:"total_channels"`
	Current       *m3u.Channel        `json:"current,omitempty"`
}

// Engine aggregates playlists into a catalog and tracks selection.
type Engine struct {
	store  storage.Store
	defs   *playlist.Definitions
	grants *playlist.Grants
	fetch  fetcher.Interface
	logger *logging.Logger

	// generation is bumped at the start of every aggregation run; a
	// run whose generation is no longer current commits nothing.
	generation atomic.Uint64

	// mutationMu serializes mutations. Never held while a snapshot is
	// being read.
	mutationMu sync.Mutex

	mu      sync.RWMutex
	state   State
	catalog *memdb.MemDB
	volumes map[string]float64

	subMu       sync.Mutex
	subscribers map[int]chan State
	nextSubID   int
}

// New creates an engine over the given collaborators. Call Start to
// read the store and perform the initial aggregation.
func New(store storage.Store, defs *playlist.Definitions, grants *playlist.Grants, fetch fetcher.Interface, logger *logging.Logger) *Engine {
	return &Engine{
		store:       store,
		defs:        defs,
		grants:      grants,
		fetch:       fetch,
		logger:      logger,
		state:       State{Configured: ConfiguredUnknown},
		volumes:     loadVolumes(store),
		subscribers: make(map[int]chan State),
	}
}

// State returns the last committed snapshot.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Subscribe registers an observer of committed snapshots. The returned
// channel receives the state after every commit; a slow consumer only
// misses intermediate snapshots, never the latest one for long. The
// returned func unsubscribes.
func (e *Engine) Subscribe() (<-chan State, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	ch := make(chan State, 1)
	e.subscribers[id] = ch

	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if sub, ok := e.subscribers[id]; ok {
			delete(e.subscribers, id)
			close(sub)
		}
	}
}

// notify pushes a snapshot to all subscribers, replacing any
// undelivered previous snapshot.
func (e *Engine) notify(s State) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	for _, ch := range e.subscribers {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Start reads the playlist store and resolves the configured state:
// no playlists drives the UI to onboarding, otherwise every stored
// playlist is loaded into the catalog.
func (e *Engine) Start(ctx context.Context) error {
	e.mutationMu.Lock()
	defer e.mutationMu.Unlock()

	if e.defs.Len() == 0 {
		e.commitUnconfigured(e.nextGeneration())
		return nil
	}

	gen := e.nextGeneration()
	e.rebuild(ctx, gen)
	return nil
}

// Reload rebuilds the catalog from every stored playlist, skipping
// sources that fail. Intended for background refreshes; a mutation
// that lands while the reload is in flight supersedes it.
func (e *Engine) Reload(ctx context.Context) {
	if e.defs.Len() == 0 {
		return
	}
	e.rebuild(ctx, e.nextGeneration())
}

// AddFromURL validates and adds a URL playlist, then rebuilds the
// catalog. The definition is only committed if the source yields at
// least one channel; failures carry a human-readable cause.
func (e *Engine) AddFromURL(ctx context.Context, name, url string) (playlist.Playlist, error) {
	return e.add(ctx, playlist.New(name, playlist.SourceURL, url))
}

// AddFromFile registers a durable access grant for the given local
// file and adds it as a playlist. The grant is revoked again if the
// file yields no channels.
func (e *Engine) AddFromFile(ctx context.Context, name, path string) (playlist.Playlist, error) {
	grantID, err := e.grants.Register(path)
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("cannot use %s: %w", path, err)
	}

	stored, err := e.add(ctx, playlist.New(name, playlist.SourceFile, grantID))
	if err != nil {
		if revokeErr := e.grants.Revoke(grantID); revokeErr != nil {
			e.logger.Warn("Failed to revoke grant for rejected playlist", map[string]interface{}{
				"grant": grantID,
				"error": revokeErr.Error(),
			})
		}
		return playlist.Playlist{}, err
	}
	return stored, nil
}

// add validates a new playlist definition, commits it and returns the
// stored copy with its assigned order.
func (e *Engine) add(ctx context.Context, pl playlist.Playlist) (playlist.Playlist, error) {
	e.mutationMu.Lock()
	defer e.mutationMu.Unlock()

	if err := e.validateSource(ctx, pl); err != nil {
		return playlist.Playlist{}, err
	}
	stored, err := e.defs.Add(pl)
	if err != nil {
		return playlist.Playlist{}, err
	}

	// A freshly added playlist becomes the active selection.
	e.persistSelectedPlaylist(stored.ID)

	e.rebuild(ctx, e.nextGeneration())
	return stored, nil
}

// Update edits a playlist's name and source, re-validating the source
// before committing, then rebuilds the catalog.
func (e *Engine) Update(ctx context.Context, pl playlist.Playlist) error {
	e.mutationMu.Lock()
	defer e.mutationMu.Unlock()

	if err := e.validateSource(ctx, pl); err != nil {
		return err
	}
	if err := e.defs.Update(pl); err != nil {
		return err
	}

	e.rebuild(ctx, e.nextGeneration())
	return nil
}

// Remove deletes a playlist and rebuilds the catalog from the
// remaining ones. Removing the last playlist transitions back to the
// unconfigured state and clears catalog and selection.
func (e *Engine) Remove(ctx context.Context, id string) error {
	e.mutationMu.Lock()
	defer e.mutationMu.Unlock()

	pl, err := e.defs.Get(id)
	if err != nil {
		return err
	}
	if err := e.defs.Remove(id); err != nil {
		return err
	}

	if pl.SourceType == playlist.SourceFile {
		if err := e.grants.Revoke(pl.SourceValue); err != nil {
			e.logger.Warn("Failed to revoke grant for removed playlist", map[string]interface{}{
				"playlist": pl.Name,
				"error":    err.Error(),
			})
		}
	}

	if e.defs.Len() == 0 {
		e.commitUnconfigured(e.nextGeneration())
		return nil
	}

	e.rebuild(ctx, e.nextGeneration())
	return nil
}

// Reorder rearranges the playlist set to match ids and rebuilds, so
// the catalog reflects the new merge order.
func (e *Engine) Reorder(ctx context.Context, ids []string) error {
	e.mutationMu.Lock()
	defer e.mutationMu.Unlock()

	if err := e.defs.Reorder(ids); err != nil {
		return err
	}

	e.rebuild(ctx, e.nextGeneration())
	return nil
}

// Reset clears every persisted value and returns to the unconfigured
// state.
func (e *Engine) Reset() error {
	e.mutationMu.Lock()
	defer e.mutationMu.Unlock()

	if err := e.defs.Clear(); err != nil {
		return err
	}
	if err := e.grants.Clear(); err != nil {
		return err
	}
	if err := e.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear stored state: %w", err)
	}

	e.mu.Lock()
	e.volumes = make(map[string]float64)
	e.mu.Unlock()

	e.commitUnconfigured(e.nextGeneration())
	return nil
}

// validateSource loads and parses a playlist source, rejecting it if
// loading fails or no channels come out. Fetch failures and empty
// results are treated identically: the definition is not committed.
func (e *Engine) validateSource(ctx context.Context, pl playlist.Playlist) error {
	if pl.Name == "" {
		return fmt.Errorf("playlist name cannot be empty")
	}
	if !pl.SourceType.Valid() {
		return fmt.Errorf("unknown source type %q", pl.SourceType)
	}

	content, err := e.fetch.Load(ctx, pl)
	if err != nil {
		return err
	}
	if len(m3u.ParseString(string(content), pl.Name)) == 0 {
		return fmt.Errorf("%w: %s", ErrNoChannels, pl.Name)
	}
	return nil
}

// nextGeneration starts a new aggregation generation, invalidating any
// in-flight run.
func (e *Engine) nextGeneration() uint64 {
	return e.generation.Add(1)
}

// commitUnconfigured commits the empty onboarding state.
func (e *Engine) commitUnconfigured(gen uint64) {
	e.commit(gen, State{Configured: ConfiguredNo}, nil)
}

// commit installs a new snapshot unless the run that produced it has
// been superseded by a newer mutation.
func (e *Engine) commit(gen uint64, s State, catalog *memdb.MemDB) bool {
	if current := e.generation.Load(); gen != current {
		e.logger.LogAggregationSuperseded(gen, current)
		metrics.RecordAggregationRun(metrics.ResultSuperseded, 0)
		return false
	}

	e.mu.Lock()
	e.state = s
	e.catalog = catalog
	e.mu.Unlock()

	metrics.SetCatalogSize(s.TotalChannels, len(s.Playlists))
	metrics.SetConfigured(s.Configured == ConfiguredYes)
	e.notify(s)
	return true
}
