package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Default values, overridable via environment
const (
	DefaultDownloadPath  = "/downloads"
	DefaultMaxConcurrent = 3
)

// Config holds the runtime-mutable application settings.
// It is persisted as JSON so operator changes survive restarts.
type Config struct {
	DownloadPath           string `json:"download_path"`
	MaxConcurrentDownloads int    `json:"max_concurrent_downloads"`
	OrganizeByDate         bool   `json:"organize_by_date"`
	OrganizeByArtist       bool   `json:"organize_by_artist"`
}

// Update carries the fields of a partial config update.
// Nil fields are left unchanged.
type Update struct {
	DownloadPath           *string `json:"download_path"`
	MaxConcurrentDownloads *int    `json:"max_concurrent_downloads"`
	OrganizeByDate         *bool   `json:"organize_by_date"`
	OrganizeByArtist       *bool   `json:"organize_by_artist"`
}

// Manager owns the config value and its file persistence.
type Manager struct {
	mu   sync.Mutex
	path string
	cfg  Config
}

// Load builds the config from defaults, then environment, then the
// persisted JSON file (highest priority). The file may not exist yet.
func Load(path string) (*Manager, error) {
	cfg := Config{
		DownloadPath:           getEnv("DOWNLOAD_PATH", DefaultDownloadPath),
		MaxConcurrentDownloads: getEnvAsInt("MAX_CONCURRENT_DOWNLOADS", DefaultMaxConcurrent),
		OrganizeByArtist:       true,
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if cfg.MaxConcurrentDownloads < 1 {
		cfg.MaxConcurrentDownloads = DefaultMaxConcurrent
	}

	// Ensure the download directory exists up front
	if err := os.MkdirAll(cfg.DownloadPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	return &Manager{path: path, cfg: cfg}, nil
}

// Get returns a snapshot of the current config.
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Apply merges the set fields of u into the config, persists the result,
// and returns the new snapshot. Jobs already launched keep the directory
// they captured at launch time.
func (m *Manager) Apply(u Update) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cfg
	if u.DownloadPath != nil && *u.DownloadPath != "" {
		next.DownloadPath = *u.DownloadPath
	}
	if u.MaxConcurrentDownloads != nil && *u.MaxConcurrentDownloads > 0 {
		next.MaxConcurrentDownloads = *u.MaxConcurrentDownloads
	}
	if u.OrganizeByDate != nil {
		next.OrganizeByDate = *u.OrganizeByDate
	}
	if u.OrganizeByArtist != nil {
		next.OrganizeByArtist = *u.OrganizeByArtist
	}

	if err := os.MkdirAll(next.DownloadPath, 0755); err != nil {
		return Config{}, fmt.Errorf("failed to create download directory: %w", err)
	}
	if err := save(m.path, next); err != nil {
		return Config{}, err
	}

	m.cfg = next
	return next, nil
}

func save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// getEnv returns the environment variable or the default when unset.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt returns the environment variable as int, or the default.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
