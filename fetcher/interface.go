package fetcher

import (
	"context"
	"fmt"

	"github.com/acampos/iptv-player/playlist"
)

// Interface defines the contract for loading raw playlist content.
type Interface interface {
	// Load fetches the raw M3U bytes for a playlist from its source.
	// Failures are returned as *SourceError.
	Load(ctx context.Context, pl playlist.Playlist) ([]byte, error)

	// LoadWithFallback behaves like Load but, for URL sources, falls
	// back to the last cached copy when the source is unreachable.
	// Returns: content, stale (true when served from cache), error.
	LoadWithFallback(ctx context.Context, pl playlist.Playlist) ([]byte, bool, error)
}

// GrantResolver resolves persisted file-access grants to local paths.
// playlist.Grants satisfies it.
type GrantResolver interface {
	Resolve(id string) (string, error)
}

// SourceError is the typed failure returned for any source load
// problem. Callers decide whether to surface it (user-initiated
// add/edit) or skip the playlist and continue (background reloads).
type SourceError struct {
	PlaylistName string
	Cause        error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("failed to load playlist %q: %v", e.PlaylistName, e.Cause)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}
