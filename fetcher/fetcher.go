// Package fetcher loads raw playlist content from URL and file sources.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/acampos/iptv-player/cache"
	"github.com/acampos/iptv-player/playlist"
)

// Config controls source loading behavior.
type Config struct {
	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout bounds the whole request, connect included.
	ReadTimeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	// Some informally hosted IPTV lists sit behind self-signed or
	// expired certificates; this is an explicit opt-in, never the
	// default.
	InsecureSkipVerify bool

	// CacheTTL makes LoadWithFallback serve cached content younger
	// than this without touching the network. Zero disables the
	// fresh-cache short cut; the stale fallback works either way.
	CacheTTL time.Duration
}

// withDefaults fills in the original client's timeouts where unset.
func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 15 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	return c
}

// Fetcher loads playlist content from URL and file sources, with an
// optional content cache used as a stale fallback for URL sources.
type Fetcher struct {
	client   *http.Client
	grants   GrantResolver
	storage  cache.Storage
	cacheTTL time.Duration
}

// New creates a Fetcher. storage may be nil, in which case
// LoadWithFallback degrades to Load.
func New(cfg Config, grants GrantResolver, storage cache.Storage) *Fetcher {
	cfg = cfg.withDefaults()

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
	}
	if cfg.InsecureSkipVerify {
		log.Printf("WARNING: TLS certificate verification disabled for playlist fetches")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Fetcher{
		// The client follows redirects by default.
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.ReadTimeout,
		},
		grants:   grants,
		storage:  storage,
		cacheTTL: cfg.CacheTTL,
	}
}

// Load fetches the raw M3U bytes for a playlist from its source.
func (f *Fetcher) Load(ctx context.Context, pl playlist.Playlist) ([]byte, error) {
	content, err := f.load(ctx, pl)
	if err != nil {
		return nil, &SourceError{PlaylistName: pl.Name, Cause: err}
	}

	if f.storage != nil && pl.SourceType == playlist.SourceURL {
		if err := f.storage.Set(pl.ID, content); err != nil {
			log.Printf("Warning: failed to cache content for %s: %v", pl.Name, err)
		}
	}

	return content, nil
}

// LoadWithFallback fetches playlist content, serving the last cached
// copy for URL sources when the fetch fails. File sources never fall
// back; a revoked or missing file is surfaced directly.
func (f *Fetcher) LoadWithFallback(ctx context.Context, pl playlist.Playlist) ([]byte, bool, error) {
	// Cached content still within its TTL is served without a fetch,
	// so scheduled reloads don't hammer the sources.
	if f.storage != nil && f.cacheTTL > 0 && pl.SourceType == playlist.SourceURL {
		if expired, err := f.storage.IsExpired(pl.ID, f.cacheTTL); err == nil && !expired {
			if entry, err := f.storage.Get(pl.ID); err == nil {
				return entry.Content, false, nil
			}
		}
	}

	content, err := f.Load(ctx, pl)
	if err == nil {
		return content, false, nil
	}

	if f.storage == nil || pl.SourceType != playlist.SourceURL {
		return nil, false, err
	}

	entry, cacheErr := f.storage.Get(pl.ID)
	if cacheErr != nil {
		return nil, false, err
	}

	log.Printf("Serving stale cache for %s (cached at: %s)", pl.Name, entry.Timestamp.Format(time.RFC3339))
	return entry.Content, true, nil
}

// load dispatches on the playlist's source type.
func (f *Fetcher) load(ctx context.Context, pl playlist.Playlist) ([]byte, error) {
	switch pl.SourceType {
	case playlist.SourceURL:
		return f.loadURL(ctx, pl.SourceValue)
	case playlist.SourceFile:
		return f.loadFile(pl.SourceValue)
	default:
		return nil, fmt.Errorf("unknown source type %q", pl.SourceType)
	}
}

// loadURL performs the HTTP fetch.
func (f *Fetcher) loadURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid playlist URL: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("warning: failed to close response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP request returned status %d: %s", resp.StatusCode, resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return content, nil
}

// loadFile resolves a file grant and reads the playlist from disk.
func (f *Fetcher) loadFile(grantID string) ([]byte, error) {
	if f.grants == nil {
		return nil, fmt.Errorf("file sources are not configured")
	}

	path, err := f.grants.Resolve(grantID)
	if err != nil {
		return nil, fmt.Errorf("file access grant is no longer valid: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist file: %w", err)
	}

	return content, nil
}
