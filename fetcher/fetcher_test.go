package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/acampos/iptv-player/cache"
	"github.com/acampos/iptv-player/playlist"
)

// mockGrants resolves grant ids from a fixed map
type mockGrants struct {
	paths map[string]string
}

func (m *mockGrants) Resolve(id string) (string, error) {
	path, ok := m.paths[id]
	if !ok {
		return "", errors.New("grant not found")
	}
	return path, nil
}

func urlPlaylist(url string) playlist.Playlist {
	return playlist.Playlist{
		ID:          "pl-1",
		Name:        "Sports",
		SourceType:  playlist.SourceURL,
		SourceValue: url,
	}
}

func TestLoad_URLSuccess(t *testing.T) {
	expected := "#EXTM3U\n#EXTINF:-1,Test Channel\nhttp://example.com/stream.m3u8\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(expected))
	}))
	defer server.Close()

	f := New(Config{}, nil, nil)

	content, err := f.Load(context.Background(), urlPlaylist(server.URL))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != expected {
		t.Errorf("Expected content %q, got %q", expected, string(content))
	}
}

func TestLoad_URLNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := New(Config{}, nil, nil)

	_, err := f.Load(context.Background(), urlPlaylist(server.URL))
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("Expected *SourceError, got %T", err)
	}
	if srcErr.PlaylistName != "Sports" {
		t.Errorf("Expected error to name playlist, got %q", srcErr.PlaylistName)
	}
}

func TestLoad_URLUnreachable(t *testing.T) {
	f := New(Config{ReadTimeout: 2 * time.Second}, nil, nil)

	_, err := f.Load(context.Background(), urlPlaylist("http://127.0.0.1:1/playlist.m3u"))
	if err == nil {
		t.Fatal("Expected error for unreachable host")
	}

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("Expected *SourceError, got %T", err)
	}
}

func TestLoad_FollowsRedirects(t *testing.T) {
	expected := "#EXTM3U\n"
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.Write([]byte(expected))
			return
		}
		http.Redirect(w, r, target.URL+"/final", http.StatusFound)
	}))
	defer target.Close()

	f := New(Config{}, nil, nil)

	content, err := f.Load(context.Background(), urlPlaylist(target.URL))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != expected {
		t.Errorf("Expected redirect target content, got %q", string(content))
	}
}

func TestLoad_InsecureSkipVerify(t *testing.T) {
	expected := "#EXTM3U\n"
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(expected))
	}))
	defer server.Close()

	// Default config must refuse the self-signed certificate.
	strict := New(Config{}, nil, nil)
	if _, err := strict.Load(context.Background(), urlPlaylist(server.URL)); err == nil {
		t.Error("Expected TLS verification failure with default config")
	}

	// Opt-in trust-all mode accepts it.
	relaxed := New(Config{InsecureSkipVerify: true}, nil, nil)
	content, err := relaxed.Load(context.Background(), urlPlaylist(server.URL))
	if err != nil {
		t.Fatalf("Expected no error with InsecureSkipVerify, got: %v", err)
	}
	if string(content) != expected {
		t.Errorf("Expected content %q, got %q", expected, string(content))
	}
}

func TestLoad_FileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.m3u")
	expected := "#EXTM3U\n#EXTINF:-1,Local\nhttp://x/a\n"
	if err := os.WriteFile(path, []byte(expected), 0644); err != nil {
		t.Fatalf("Failed to write playlist file: %v", err)
	}

	grants := &mockGrants{paths: map[string]string{"grant-1": path}}
	f := New(Config{}, grants, nil)

	pl := playlist.Playlist{Name: "Local", SourceType: playlist.SourceFile, SourceValue: "grant-1"}
	content, err := f.Load(context.Background(), pl)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != expected {
		t.Errorf("Expected file content, got %q", string(content))
	}
}

func TestLoad_FileGrantRevoked(t *testing.T) {
	grants := &mockGrants{paths: map[string]string{}}
	f := New(Config{}, grants, nil)

	pl := playlist.Playlist{Name: "Local", SourceType: playlist.SourceFile, SourceValue: "gone"}
	if _, err := f.Load(context.Background(), pl); err == nil {
		t.Fatal("Expected error for revoked grant")
	}
}

func TestLoad_UnknownSourceType(t *testing.T) {
	f := New(Config{}, nil, nil)

	pl := playlist.Playlist{Name: "Odd", SourceType: "carrier-pigeon"}
	if _, err := f.Load(context.Background(), pl); err == nil {
		t.Fatal("Expected error for unknown source type")
	}
}

func TestLoad_UpdatesCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n"))
	}))
	defer server.Close()

	storage := &cache.MockStorage{}
	f := New(Config{}, nil, storage)

	if _, err := f.Load(context.Background(), urlPlaylist(server.URL)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entry, err := storage.Get("pl-1")
	if err != nil {
		t.Fatalf("Expected cache entry, got: %v", err)
	}
	if string(entry.Content) != "#EXTM3U\n" {
		t.Errorf("Expected cached content, got %q", entry.Content)
	}
}

func TestLoadWithFallback_ServesStaleCache(t *testing.T) {
	storage := &cache.MockStorage{}
	if err := storage.Set("pl-1", []byte("#EXTM3U\ncached\n")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	f := New(Config{ReadTimeout: 2 * time.Second}, nil, storage)

	content, stale, err := f.LoadWithFallback(context.Background(), urlPlaylist("http://127.0.0.1:1/x.m3u"))
	if err != nil {
		t.Fatalf("Expected stale fallback, got error: %v", err)
	}
	if !stale {
		t.Error("Expected stale flag to be set")
	}
	if string(content) != "#EXTM3U\ncached\n" {
		t.Errorf("Expected cached content, got %q", string(content))
	}
}

func TestLoadWithFallback_NoCacheAvailable(t *testing.T) {
	storage := &cache.MockStorage{}
	f := New(Config{ReadTimeout: 2 * time.Second}, nil, storage)

	_, _, err := f.LoadWithFallback(context.Background(), urlPlaylist("http://127.0.0.1:1/x.m3u"))
	if err == nil {
		t.Fatal("Expected error when fetch fails and no cache exists")
	}

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("Expected *SourceError, got %T", err)
	}
}

func TestLoadWithFallback_ServesFreshCacheWithinTTL(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("#EXTM3U\nnetwork\n"))
	}))
	defer server.Close()

	storage := &cache.MockStorage{}
	if err := storage.Set("pl-1", []byte("#EXTM3U\ncached\n")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	f := New(Config{CacheTTL: time.Hour}, nil, storage)

	content, stale, err := f.LoadWithFallback(context.Background(), urlPlaylist(server.URL))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stale {
		t.Error("Expected fresh cache not to be marked stale")
	}
	if string(content) != "#EXTM3U\ncached\n" {
		t.Errorf("Expected cached content, got %q", string(content))
	}
	if hits != 0 {
		t.Errorf("Expected no network fetch within TTL, got %d", hits)
	}
}

func TestLoadWithFallback_ExpiredCacheRefetches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\nnetwork\n"))
	}))
	defer server.Close()

	storage := &cache.MockStorage{}
	storage.Seed("pl-1", &cache.Entry{
		Content:   []byte("#EXTM3U\ncached\n"),
		Timestamp: time.Now().Add(-2 * time.Hour),
	})

	f := New(Config{CacheTTL: time.Hour}, nil, storage)

	content, stale, err := f.LoadWithFallback(context.Background(), urlPlaylist(server.URL))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stale {
		t.Error("Expected refetched content not to be marked stale")
	}
	if string(content) != "#EXTM3U\nnetwork\n" {
		t.Errorf("Expected network content past TTL, got %q", string(content))
	}
}

func TestLoadWithFallback_FreshFetchNotStale(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\nfresh\n"))
	}))
	defer server.Close()

	storage := &cache.MockStorage{}
	f := New(Config{}, nil, storage)

	content, stale, err := f.LoadWithFallback(context.Background(), urlPlaylist(server.URL))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stale {
		t.Error("Expected fresh content not to be marked stale")
	}
	if string(content) != "#EXTM3U\nfresh\n" {
		t.Errorf("Expected fresh content, got %q", string(content))
	}
}
