package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends for persisted player state.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds the complete application configuration
type Config struct {
	// HTTP server settings
	HTTP struct {
		Address string `yaml:"address"`
		Port    string `yaml:"port"`
	} `yaml:"http"`

	// Storage settings for playlists, selection state and volumes
	Storage struct {
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
	} `yaml:"storage"`

	// Cache settings for fetched playlist content
	Cache struct {
		Dir string        `yaml:"dir"`
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	// Fetch settings for playlist sources
	Fetch struct {
		ConnectTimeout     time.Duration `yaml:"connect_timeout"`
		ReadTimeout        time.Duration `yaml:"read_timeout"`
		InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	} `yaml:"fetch"`

	// Refresh settings for background catalog rebuilds
	Refresh struct {
		Cron       string `yaml:"cron"`
		SyncOnBoot bool   `yaml:"sync_on_boot"`
	} `yaml:"refresh"`

	// Log level: DEBUG, INFO, WARN or ERROR
	LogLevel string `yaml:"log_level"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTP.Address == "" {
		errors = append(errors, "HTTP address is required")
	}
	if c.HTTP.Port == "" {
		errors = append(errors, "HTTP port is required")
	}

	switch c.Storage.Backend {
	case StorageFile, StorageSQLite:
	default:
		errors = append(errors, fmt.Sprintf("Storage backend must be %q or %q, got %q", StorageFile, StorageSQLite, c.Storage.Backend))
	}
	if c.Storage.Dir == "" {
		errors = append(errors, "Storage directory is required")
	}

	if c.Cache.Dir == "" {
		errors = append(errors, "Cache directory is required")
	}
	if c.Cache.TTL <= 0 {
		errors = append(errors, "Cache TTL must be positive")
	}

	if c.Fetch.ConnectTimeout <= 0 {
		errors = append(errors, "Fetch connect timeout must be positive")
	}
	if c.Fetch.ReadTimeout <= 0 {
		errors = append(errors, "Fetch read timeout must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	cfg.HTTP.Address = "127.0.0.1"
	cfg.HTTP.Port = "8080"

	cfg.Storage.Backend = StorageFile
	cfg.Storage.Dir = "data"

	cfg.Cache.Dir = "cache"
	cfg.Cache.TTL = time.Hour

	cfg.Fetch.ConnectTimeout = 15 * time.Second
	cfg.Fetch.ReadTimeout = 30 * time.Second
	cfg.Fetch.InsecureSkipVerify = false

	// Disabled unless a cron spec is configured.
	cfg.Refresh.Cron = ""
	cfg.Refresh.SyncOnBoot = true

	cfg.LogLevel = "INFO"

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from a file (if provided) and applies environment variable overrides
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("HTTP_ADDRESS"); val != "" {
		cfg.HTTP.Address = val
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		cfg.HTTP.Port = val
	}

	if val := os.Getenv("STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("STORAGE_DIR"); val != "" {
		absPath, err := absoluteDir(val)
		if err != nil {
			return err
		}
		cfg.Storage.Dir = absPath
	}

	if val := os.Getenv("CACHE_DIR"); val != "" {
		absPath, err := absoluteDir(val)
		if err != nil {
			return err
		}
		cfg.Cache.Dir = absPath
	}
	if val := os.Getenv("CACHE_TTL"); val != "" {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL format (expected duration like '1h', '30m'): %w", err)
		}
		if duration <= 0 {
			return fmt.Errorf("CACHE_TTL must be positive, got: %s", val)
		}
		cfg.Cache.TTL = duration
	}

	if val := os.Getenv("FETCH_CONNECT_TIMEOUT"); val != "" {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid FETCH_CONNECT_TIMEOUT: %w", err)
		}
		if duration <= 0 {
			return fmt.Errorf("FETCH_CONNECT_TIMEOUT must be positive")
		}
		cfg.Fetch.ConnectTimeout = duration
	}
	if val := os.Getenv("FETCH_READ_TIMEOUT"); val != "" {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid FETCH_READ_TIMEOUT: %w", err)
		}
		if duration <= 0 {
			return fmt.Errorf("FETCH_READ_TIMEOUT must be positive")
		}
		cfg.Fetch.ReadTimeout = duration
	}
	if val := os.Getenv("FETCH_INSECURE_SKIP_VERIFY"); val != "" {
		cfg.Fetch.InsecureSkipVerify = val == "true" || val == "1"
	}

	if val := os.Getenv("REFRESH_CRON"); val != "" {
		cfg.Refresh.Cron = val
	}
	if val := os.Getenv("REFRESH_SYNC_ON_BOOT"); val != "" {
		cfg.Refresh.SyncOnBoot = val == "true" || val == "1"
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	return nil
}

// absoluteDir normalizes a directory path to an absolute one
func absoluteDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("directory cannot be empty")
	}

	if !filepath.IsAbs(dir) {
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path for %s: %w", dir, err)
		}
		return absPath, nil
	}

	return dir, nil
}

// Print outputs the configuration to stdout
func (c *Config) Print() {
	fmt.Printf("httpAddress: %v\n", c.HTTP.Address)
	fmt.Printf("httpPort: %v\n", c.HTTP.Port)
	fmt.Printf("storageBackend: %v\n", c.Storage.Backend)
	fmt.Printf("storageDir: %v\n", c.Storage.Dir)
	fmt.Printf("cacheDir: %v\n", c.Cache.Dir)
	fmt.Printf("cacheTTL: %v\n", c.Cache.TTL)
	fmt.Printf("fetchConnectTimeout: %v\n", c.Fetch.ConnectTimeout)
	fmt.Printf("fetchReadTimeout: %v\n", c.Fetch.ReadTimeout)
	fmt.Printf("fetchInsecureSkipVerify: %v\n", c.Fetch.InsecureSkipVerify)
	fmt.Printf("refreshCron: %v\n", c.Refresh.Cron)
	fmt.Printf("refreshSyncOnBoot: %v\n", c.Refresh.SyncOnBoot)
	fmt.Printf("logLevel: %v\n", c.LogLevel)
}
