package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testKey = "playlist-id"

func TestNewFileStorage(t *testing.T) {
	t.Run("creates cache directory if it doesn't exist", func(t *testing.T) {
		tempDir := filepath.Join(t.TempDir(), "cache")

		if _, err := NewFileStorage(tempDir); err != nil {
			t.Fatalf("NewFileStorage failed: %v", err)
		}

		info, err := os.Stat(tempDir)
		if err != nil {
			t.Fatalf("Expected cache directory to exist: %v", err)
		}
		if !info.IsDir() {
			t.Error("Expected a directory")
		}
	})

	t.Run("rejects empty directory", func(t *testing.T) {
		if _, err := NewFileStorage(""); err == nil {
			t.Error("Expected error for empty directory")
		}
	})
}

func TestFileStorage_SetAndGet(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}

	content := []byte("#EXTM3U\n#EXTINF:-1,Test\nhttp://x/a.m3u8\n")
	if err := storage.Set(testKey, content); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	entry, err := storage.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(entry.Content) != string(content) {
		t.Errorf("Expected content %q, got %q", content, entry.Content)
	}
	if time.Since(entry.Timestamp) > time.Minute {
		t.Errorf("Expected recent timestamp, got %v", entry.Timestamp)
	}
}

func TestFileStorage_GetMissing(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}

	if _, err := storage.Get("missing"); err == nil {
		t.Error("Expected error for missing entry")
	}
}

func TestFileStorage_IsExpired(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}

	if err := storage.Set(testKey, []byte("content")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	expired, err := storage.IsExpired(testKey, time.Hour)
	if err != nil {
		t.Fatalf("IsExpired failed: %v", err)
	}
	if expired {
		t.Error("Expected fresh entry not to be expired")
	}

	expired, err = storage.IsExpired(testKey, time.Nanosecond)
	if err != nil {
		t.Fatalf("IsExpired failed: %v", err)
	}
	if !expired {
		t.Error("Expected entry to be expired with tiny TTL")
	}

	expired, err = storage.IsExpired("missing", time.Hour)
	if err != nil {
		t.Fatalf("IsExpired failed for missing key: %v", err)
	}
	if !expired {
		t.Error("Expected missing entry to count as expired")
	}
}
