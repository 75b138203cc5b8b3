package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/acampos/iptv-player/m3u"
	"github.com/acampos/iptv-player/metrics"
	"github.com/acampos/iptv-player/playlist"
	"github.com/acampos/iptv-player/storage"
)

// catalogEntry is a channel row in the in-memory catalog table.
// Position preserves aggregation order across index scans.
type catalogEntry struct {
	ID       string
	Source   string
	Position uint64
	Channel  m3u.Channel
}

// catalogSchema indexes channels by id, source playlist name and
// aggregation position.
var catalogSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"channels": {
			Name: "channels",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"source": {
					Name:    "source",
					Indexer: &memdb.StringFieldIndex{Field: "Source"},
				},
				"position": {
					Name:    "position",
					Unique:  true,
					Indexer: &memdb.UintFieldIndex{Field: "Position"},
				},
			},
		},
	},
}

// rebuild performs a full aggregation run: every stored playlist is
// fetched and re-parsed, results are merged into a fresh catalog and
// committed, unless a newer mutation superseded this generation in the
// meantime. Per-playlist failures never abort the run; the playlist
// simply contributes nothing.
func (e *Engine) rebuild(ctx context.Context, gen uint64) {
	start := time.Now()
	playlists := e.defs.List()

	// A reload can race the removal of the last playlist: its
	// generation is newer than the one that committed the unconfigured
	// state, so it would win the commit. An empty set must always land
	// in the unconfigured state, never an empty configured catalog.
	if len(playlists) == 0 {
		e.commitUnconfigured(gen)
		return
	}

	e.logger.LogAggregationStarted(gen, len(playlists))

	var all []m3u.Channel
	for _, pl := range playlists {
		if gen != e.generation.Load() {
			e.logger.LogAggregationSuperseded(gen, e.generation.Load())
			metrics.RecordAggregationRun(metrics.ResultSuperseded, time.Since(start).Seconds())
			return
		}

		content, stale, err := e.fetch.LoadWithFallback(ctx, pl)
		if err != nil {
			e.logger.LogPlaylistFetchFailed(pl.Name, err)
			metrics.RecordFetchFailure(pl.Name)
			continue
		}
		if stale {
			e.logger.LogStaleCacheServed(pl.Name)
			metrics.RecordStaleCacheServed(pl.Name)
		}

		all = append(all, m3u.ParseString(string(content), pl.Name)...)
	}

	all = resolveCollisions(all)
	catalog, err := buildCatalog(all)
	if err != nil {
		// The schema is static, so this only fires on a programming
		// error; committing nothing keeps the previous snapshot live.
		log.Printf("Error building catalog: %v", err)
		return
	}

	selectedGroup := e.resolveSelectedGroup(playlists)
	state := State{
		Configured:    ConfiguredYes,
		Playlists:     playlists,
		Groups:        groupNames(playlists),
		SelectedGroup: selectedGroup,
		Channels:      visibleChannels(catalog, selectedGroup),
		TotalChannels: len(all),
		Current:       e.resolveCurrent(all),
	}

	if e.commit(gen, state, catalog) {
		e.logger.LogAggregationFinished(gen, len(all), time.Since(start))
		metrics.RecordAggregationRun(metrics.ResultCompleted, time.Since(start).Seconds())
	}
}

// resolveCollisions re-applies id uniqueness across the merged catalog.
// The parser guarantees unique ids within one playlist; merging several
// playlists can reintroduce duplicates.
func resolveCollisions(channels []m3u.Channel) []m3u.Channel {
	seen := make(map[string]bool, len(channels))
	for i := range channels {
		id := channels[i].ID
		if seen[id] {
			for counter := 1; ; counter++ {
				candidate := fmt.Sprintf("%s_%d", id, counter)
				if !seen[candidate] {
					id = candidate
					break
				}
			}
			channels[i].ID = id
		}
		seen[id] = true
	}
	return channels
}

// buildCatalog loads the merged channel list into a fresh memdb table.
func buildCatalog(channels []m3u.Channel) (*memdb.MemDB, error) {
	db, err := memdb.NewMemDB(catalogSchema)
	if err != nil {
		return nil, err
	}

	txn := db.Txn(true)
	for i, ch := range channels {
		entry := &catalogEntry{
			ID:       ch.ID,
			Source:   ch.SourcePlaylist,
			Position: uint64(i),
			Channel:  ch,
		}
		if err := txn.Insert("channels", entry); err != nil {
			txn.Abort()
			return nil, err
		}
	}
	txn.Commit()

	return db, nil
}

// groupNames derives the user-facing category bar: the sorted,
// de-duplicated names of all stored playlists.
func groupNames(playlists []playlist.Playlist) []string {
	seen := make(map[string]bool, len(playlists))
	var names []string
	for _, pl := range playlists {
		if !seen[pl.Name] {
			seen[pl.Name] = true
			names = append(names, pl.Name)
		}
	}
	sort.Strings(names)
	return names
}

// visibleChannels filters the catalog by source playlist name, in
// aggregation order. An empty or unknown selector yields an empty list.
func visibleChannels(catalog *memdb.MemDB, group string) []m3u.Channel {
	if catalog == nil || group == "" {
		return nil
	}

	txn := catalog.Txn(false)
	defer txn.Abort()

	it, err := txn.Get("channels", "position")
	if err != nil {
		log.Printf("Error querying catalog: %v", err)
		return nil
	}

	var visible []m3u.Channel
	for raw := it.Next(); raw != nil; raw = it.Next() {
		entry := raw.(*catalogEntry)
		if entry.Source == group {
			visible = append(visible, entry.Channel)
		}
	}
	return visible
}

// resolveSelectedGroup maps the persisted playlist selection to a
// group name, defaulting to the first playlist by order when the
// stored selection is gone.
func (e *Engine) resolveSelectedGroup(playlists []playlist.Playlist) string {
	if len(playlists) == 0 {
		return ""
	}

	data, err := e.store.Get(keySelectedPlaylist)
	if err == nil {
		id := string(data)
		for _, pl := range playlists {
			if pl.ID == id {
				return pl.Name
			}
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("Warning: failed to read selected playlist: %v", err)
	}

	return playlists[0].Name
}

// resolveCurrent restores the persisted last-played channel against
// the freshly aggregated catalog, falling back to the first channel
// in aggregation order, or none when the catalog is empty.
func (e *Engine) resolveCurrent(all []m3u.Channel) *m3u.Channel {
	if len(all) == 0 {
		return nil
	}

	data, err := e.store.Get(keyLastChannel)
	if err == nil {
		id := string(data)
		for i := range all {
			if all[i].ID == id {
				ch := all[i]
				return &ch
			}
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("Warning: failed to read last channel: %v", err)
	}

	ch := all[0]
	return &ch
}

// persistSelectedPlaylist records the active playlist id.
func (e *Engine) persistSelectedPlaylist(id string) {
	if err := e.store.Set(keySelectedPlaylist, []byte(id)); err != nil {
		log.Printf("Warning: failed to persist selected playlist: %v", err)
	}
}
