// Package config loads configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all filedeck configuration.
type Config struct {
	// Paths
	ConfigDir     string // directory for persisted state (tag store, size cache)
	TagStoreFile  string
	SizeCacheFile string
	TrashDir      string

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics ("" disables the endpoint)
	MetricsAddr string

	// Explorer behavior
	SearchDebounce   time.Duration
	MaxSearchResults int
	ShowHiddenFiles  bool

	// Folder names that default to modified-date sorting when navigated to.
	ChurnFolders []string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	configDir := envOr("FILEDECK_CONFIG_DIR", "")
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = os.TempDir()
		}
		configDir = filepath.Join(base, "filedeck")
	}

	cfg := &Config{
		ConfigDir:        configDir,
		TagStoreFile:     envOr("FILEDECK_TAG_STORE", filepath.Join(configDir, "tags.json")),
		SizeCacheFile:    envOr("FILEDECK_SIZE_CACHE", filepath.Join(configDir, "folder_sizes.json")),
		TrashDir:         envOr("FILEDECK_TRASH_DIR", filepath.Join(configDir, "trash")),
		LogLevel:         envOr("FILEDECK_LOG_LEVEL", "info"),
		LogFormat:        envOr("FILEDECK_LOG_FORMAT", "console"),
		MetricsAddr:      envOr("FILEDECK_METRICS_ADDR", ""),
		SearchDebounce:   envDuration("FILEDECK_SEARCH_DEBOUNCE", 200*time.Millisecond),
		MaxSearchResults: envInt("FILEDECK_MAX_SEARCH_RESULTS", 500),
		ShowHiddenFiles:  envBool("FILEDECK_SHOW_HIDDEN", false),
		ChurnFolders:     envList("FILEDECK_CHURN_FOLDERS", []string{"Downloads", "Download", "Desktop"}),
	}

	if err := os.MkdirAll(cfg.ConfigDir, 0755); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
