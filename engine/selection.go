package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/acampos/iptv-player/m3u"
	"github.com/acampos/iptv-player/storage"
)

// SelectGroup switches the active group filter and recomputes the
// visible channel list from the committed catalog. Group names are
// playlist names; when several playlists share a name the visible list
// is the union of their channels. Unknown names yield an empty list.
func (e *Engine) SelectGroup(name string) {
	e.mutationMu.Lock()
	defer e.mutationMu.Unlock()

	// Persist the first playlist carrying this name so the selection
	// survives restarts.
	for _, pl := range e.defs.List() {
		if pl.Name == name {
			e.persistSelectedPlaylist(pl.ID)
			break
		}
	}

	e.mu.Lock()
	e.state.SelectedGroup = name
	e.state.Channels = visibleChannels(e.catalog, name)
	s := e.state
	e.mu.Unlock()

	e.notify(s)
}

// SelectChannel makes the channel with the given id current and
// persists it as the last played channel, independent of which
// playlist or group it came from.
func (e *Engine) SelectChannel(id string) (m3u.Channel, error) {
	e.mutationMu.Lock()
	defer e.mutationMu.Unlock()

	ch, err := e.ChannelByID(id)
	if err != nil {
		return m3u.Channel{}, err
	}

	if err := e.store.Set(keyLastChannel, []byte(ch.ID)); err != nil {
		log.Printf("Warning: failed to persist last channel: %v", err)
	}

	e.mu.Lock()
	current := ch
	e.state.Current = &current
	s := e.state
	e.mu.Unlock()

	e.notify(s)
	return ch, nil
}

// ChannelByID looks a channel up in the committed catalog.
func (e *Engine) ChannelByID(id string) (m3u.Channel, error) {
	e.mu.RLock()
	catalog := e.catalog
	e.mu.RUnlock()

	if catalog == nil {
		return m3u.Channel{}, ErrChannelNotFound
	}

	txn := catalog.Txn(false)
	defer txn.Abort()

	raw, err := txn.First("channels", "id", id)
	if err != nil {
		return m3u.Channel{}, fmt.Errorf("failed to query catalog: %w", err)
	}
	if raw == nil {
		return m3u.Channel{}, ErrChannelNotFound
	}
	return raw.(*catalogEntry).Channel, nil
}

// Volume returns the persisted volume for a channel, defaulting to 1.0.
func (e *Engine) Volume(channelID string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if v, ok := e.volumes[channelID]; ok {
		return v
	}
	return 1.0
}

// SetVolume persists a channel's volume, clamped to [0.0, 1.0].
func (e *Engine) SetVolume(channelID string, volume float64) error {
	if channelID == "" {
		return fmt.Errorf("channel id cannot be empty")
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	e.mu.Lock()
	e.volumes[channelID] = volume
	data, err := json.Marshal(e.volumes)
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal volumes: %w", err)
	}

	if err := e.store.Set(keyVolumes, data); err != nil {
		return fmt.Errorf("failed to persist volumes: %w", err)
	}
	return nil
}

// loadVolumes reads the persisted per-channel volume map, defaulting
// to empty on missing or corrupt data.
func loadVolumes(store storage.Store) map[string]float64 {
	volumes := make(map[string]float64)

	data, err := store.Get(keyVolumes)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Warning: failed to read stored volumes: %v", err)
		}
		return volumes
	}

	if err := json.Unmarshal(data, &volumes); err != nil {
		log.Printf("Warning: stored volumes are corrupt, starting empty: %v", err)
		return make(map[string]float64)
	}
	return volumes
}
