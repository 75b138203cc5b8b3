// Package api exposes the player engine to UI collaborators as a JSON
// HTTP API. Handlers are thin: they decode requests, call the engine
// and encode the committed state it returns.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/acampos/iptv-player/engine"
	"github.com/acampos/iptv-player/fetcher"
	"github.com/acampos/iptv-player/logging"
	"github.com/acampos/iptv-player/m3u"
	"github.com/acampos/iptv-player/playlist"
)

// Handler serves the JSON API over a player engine.
type Handler struct {
	engine *engine.Engine
	logger *logging.Logger
}

// NewHandler creates a new API handler
func NewHandler(eng *engine.Engine, logger *logging.Logger) *Handler {
	return &Handler{engine: eng, logger: logger}
}

// playlistRequest is the request body for adding or editing a playlist
type playlistRequest struct {
	Name        string `json:"name"`
	SourceType  string `json:"source_type"`
	SourceValue string `json:"source_value"`
}

// reorderRequest is the request body for reordering playlists
type reorderRequest struct {
	IDs []string `json:"ids"`
}

// selectGroupRequest is the request body for switching the active group
type selectGroupRequest struct {
	Name string `json:"name"`
}

// volumeRequest is the request body for setting a channel volume
type volumeRequest struct {
	Volume float64 `json:"volume"`
}

// volumeResponse reports a channel's persisted volume
type volumeResponse struct {
	ChannelID string  `json:"channel_id"`
	Volume    float64 `json:"volume"`
}

// GetState returns the full committed engine snapshot.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	logging.WriteJSONSuccess(w, h.logger, h.engine.State(), map[string]interface{}{
		"path": r.URL.Path,
	})
}

// GetPlaylists lists the stored playlist definitions in order.
func (h *Handler) GetPlaylists(w http.ResponseWriter, r *http.Request) {
	s := h.engine.State()
	playlists := s.Playlists
	if playlists == nil {
		playlists = []playlist.Playlist{}
	}
	logging.WriteJSONSuccess(w, h.logger, playlists, nil)
}

// AddPlaylist adds a playlist from a URL or a local file path. The
// definition is rejected, with the cause in the response, when the
// source cannot be loaded or yields no channels.
func (h *Handler) AddPlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.WriteJSONError(w, h.logger, "Invalid request body", http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	var pl playlist.Playlist
	var err error
	switch playlist.SourceType(req.SourceType) {
	case playlist.SourceURL:
		pl, err = h.engine.AddFromURL(r.Context(), req.Name, req.SourceValue)
	case playlist.SourceFile:
		pl, err = h.engine.AddFromFile(r.Context(), req.Name, req.SourceValue)
	default:
		logging.WriteJSONError(w, h.logger, "Unknown source type", http.StatusBadRequest, map[string]interface{}{
			"source_type": req.SourceType,
		})
		return
	}
	if err != nil {
		h.writeRejection(w, err, req.Name)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if encErr := json.NewEncoder(w).Encode(pl); encErr != nil {
		h.logger.Warn("Failed to encode playlist response", map[string]interface{}{
			"error": encErr.Error(),
		})
	}
}

// UpdatePlaylist edits a playlist's name and, for URL playlists, its
// URL. The new source is validated before the change is committed.
func (h *Handler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.WriteJSONError(w, h.logger, "Invalid request body", http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	existing, ok := h.findPlaylist(id)
	if !ok {
		logging.WriteJSONError(w, h.logger, "Playlist not found", http.StatusNotFound, map[string]interface{}{
			"id": id,
		})
		return
	}

	updated := existing
	if req.Name != "" {
		updated.Name = req.Name
	}
	// File playlists keep their access grant; only URL sources can be
	// repointed in place.
	if req.SourceValue != "" && existing.SourceType == playlist.SourceURL {
		updated.SourceValue = req.SourceValue
	}

	if err := h.engine.Update(r.Context(), updated); err != nil {
		if errors.Is(err, playlist.ErrNotFound) {
			logging.WriteJSONError(w, h.logger, "Playlist not found", http.StatusNotFound, map[string]interface{}{
				"id": id,
			})
			return
		}
		h.writeRejection(w, err, updated.Name)
		return
	}

	logging.WriteJSONSuccess(w, h.logger, updated, nil)
}

// DeletePlaylist removes a playlist. Deleting the last one returns the
// player to the unconfigured state.
func (h *Handler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.engine.Remove(r.Context(), id); err != nil {
		if errors.Is(err, playlist.ErrNotFound) {
			logging.WriteJSONError(w, h.logger, "Playlist not found", http.StatusNotFound, map[string]interface{}{
				"id": id,
			})
			return
		}
		logging.WriteJSONError(w, h.logger, err.Error(), http.StatusInternalServerError, map[string]interface{}{
			"id": id,
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderPlaylists rearranges the playlist merge order.
func (h *Handler) ReorderPlaylists(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.WriteJSONError(w, h.logger, "Invalid request body", http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := h.engine.Reorder(r.Context(), req.IDs); err != nil {
		logging.WriteJSONError(w, h.logger, err.Error(), http.StatusBadRequest, nil)
		return
	}

	logging.WriteJSONSuccess(w, h.logger, h.engine.State().Playlists, nil)
}

// GetGroups returns the sorted group names derived from playlist names.
func (h *Handler) GetGroups(w http.ResponseWriter, r *http.Request) {
	s := h.engine.State()
	groups := s.Groups
	if groups == nil {
		groups = []string{}
	}
	logging.WriteJSONSuccess(w, h.logger, map[string]interface{}{
		"groups":   groups,
		"selected": s.SelectedGroup,
	}, nil)
}

// SelectGroup switches the active group filter.
func (h *Handler) SelectGroup(w http.ResponseWriter, r *http.Request) {
	var req selectGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.WriteJSONError(w, h.logger, "Invalid request body", http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.engine.SelectGroup(req.Name)
	logging.WriteJSONSuccess(w, h.logger, h.engine.State(), nil)
}

// GetChannels returns the visible channel list for the selected group.
// An optional ?group= query narrows it further by group-title.
func (h *Handler) GetChannels(w http.ResponseWriter, r *http.Request) {
	channels := h.engine.State().Channels

	if groupTitle := r.URL.Query().Get("group"); groupTitle != "" {
		var filtered []m3u.Channel
		for _, ch := range channels {
			if ch.Group == groupTitle {
				filtered = append(filtered, ch)
			}
		}
		channels = filtered
	}

	if channels == nil {
		channels = []m3u.Channel{}
	}
	logging.WriteJSONSuccess(w, h.logger, channels, nil)
}

// GetCurrentChannel returns the channel being played, if any.
func (h *Handler) GetCurrentChannel(w http.ResponseWriter, r *http.Request) {
	s := h.engine.State()
	if s.Current == nil {
		logging.WriteJSONError(w, h.logger, "No channel selected", http.StatusNotFound, nil)
		return
	}
	logging.WriteJSONSuccess(w, h.logger, s.Current, nil)
}

// SelectChannel makes a channel current and persists the selection.
func (h *Handler) SelectChannel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ch, err := h.engine.SelectChannel(id)
	if err != nil {
		if errors.Is(err, engine.ErrChannelNotFound) {
			logging.WriteJSONError(w, h.logger, "Channel not found", http.StatusNotFound, map[string]interface{}{
				"id": id,
			})
			return
		}
		logging.WriteJSONError(w, h.logger, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	logging.WriteJSONSuccess(w, h.logger, ch, nil)
}

// GetVolume returns a channel's persisted volume.
func (h *Handler) GetVolume(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	logging.WriteJSONSuccess(w, h.logger, volumeResponse{
		ChannelID: id,
		Volume:    h.engine.Volume(id),
	}, nil)
}

// SetVolume sets a channel's volume, clamped to [0.0, 1.0].
func (h *Handler) SetVolume(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.WriteJSONError(w, h.logger, "Invalid request body", http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := h.engine.SetVolume(id, req.Volume); err != nil {
		logging.WriteJSONError(w, h.logger, err.Error(), http.StatusBadRequest, nil)
		return
	}

	logging.WriteJSONSuccess(w, h.logger, volumeResponse{
		ChannelID: id,
		Volume:    h.engine.Volume(id),
	}, nil)
}

// Reset clears all persisted state and returns to onboarding.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Reset(); err != nil {
		logging.WriteJSONError(w, h.logger, err.Error(), http.StatusInternalServerError, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// findPlaylist looks a playlist up in the committed snapshot.
func (h *Handler) findPlaylist(id string) (playlist.Playlist, bool) {
	for _, pl := range h.engine.State().Playlists {
		if pl.ID == id {
			return pl, true
		}
	}
	return playlist.Playlist{}, false
}

// writeRejection maps a rejected add or edit to a response carrying the
// human-readable cause.
func (h *Handler) writeRejection(w http.ResponseWriter, err error, name string) {
	status := http.StatusUnprocessableEntity

	var srcErr *fetcher.SourceError
	switch {
	case errors.As(err, &srcErr):
		// Source unreachable or unreadable.
	case errors.Is(err, engine.ErrNoChannels):
		// Source loaded but parsed to nothing playable.
	default:
		status = http.StatusBadRequest
	}

	logging.WriteJSONError(w, h.logger, err.Error(), status, map[string]interface{}{
		"playlist": name,
	})
}
