package fetcher

import (
	"context"

	"github.com/acampos/iptv-player/playlist"
)

// Mock is a mock implementation of the Interface for testing
type Mock struct {
	LoadFunc             func(ctx context.Context, pl playlist.Playlist) ([]byte, error)
	LoadWithFallbackFunc func(ctx context.Context, pl playlist.Playlist) ([]byte, bool, error)
}

// Load implements Interface.Load
func (m *Mock) Load(ctx context.Context, pl playlist.Playlist) ([]byte, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, pl)
	}
	return nil, nil
}

// LoadWithFallback implements Interface.LoadWithFallback
func (m *Mock) LoadWithFallback(ctx context.Context, pl playlist.Playlist) ([]byte, bool, error) {
	if m.LoadWithFallbackFunc != nil {
		return m.LoadWithFallbackFunc(ctx, pl)
	}
	if m.LoadFunc != nil {
		content, err := m.LoadFunc(ctx, pl)
		return content, false, err
	}
	return nil, false, nil
}
