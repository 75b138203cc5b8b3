package handlers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/acampos/iptv-player/cache"
	"github.com/acampos/iptv-player/config"
	"github.com/acampos/iptv-player/engine"
	"github.com/acampos/iptv-player/fetcher"
	"github.com/acampos/iptv-player/logging"
	"github.com/acampos/iptv-player/playlist"
	"github.com/acampos/iptv-player/storage"
)

// Dependencies holds all the components behind the HTTP surface
type Dependencies struct {
	Logger *logging.Logger
	Store  storage.Store
	Engine *engine.Engine

	// closer releases backend resources on shutdown, if any.
	closer func() error
}

// Close releases backend resources held by the dependencies
func (d Dependencies) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}

// InitDependencies initializes all application components
func InitDependencies(cfg *config.Config) (Dependencies, error) {
	logger := logging.New(logging.ParseLogLevel(cfg.LogLevel), "[player]")

	store, closer, err := newStore(cfg)
	if err != nil {
		return Dependencies{}, err
	}

	cacheStorage, err := cache.NewFileStorage(cfg.Cache.Dir)
	if err != nil {
		return Dependencies{}, fmt.Errorf("failed to initialize cache storage: %w", err)
	}

	defs := playlist.NewDefinitions(store)
	grants := playlist.NewGrants(store)
	log.Printf("Loaded %d playlist definitions", defs.Len())

	fetch := fetcher.New(fetcher.Config{
		ConnectTimeout:     cfg.Fetch.ConnectTimeout,
		ReadTimeout:        cfg.Fetch.ReadTimeout,
		InsecureSkipVerify: cfg.Fetch.InsecureSkipVerify,
		CacheTTL:           cfg.Cache.TTL,
	}, grants, cacheStorage)

	return Dependencies{
		Logger: logger,
		Store:  store,
		Engine: engine.New(store, defs, grants, fetch, logger),
		closer: closer,
	}, nil
}

// newStore builds the configured storage backend.
func newStore(cfg *config.Config) (storage.Store, func() error, error) {
	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		if err := os.MkdirAll(cfg.Storage.Dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		s, err := storage.NewSQLiteStore(filepath.Join(cfg.Storage.Dir, "player.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		return s, s.Close, nil
	case config.StorageFile:
		s, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return s, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
