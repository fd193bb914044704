// ABOUTME: Vitals configuration with note store backend selection.
// ABOUTME: Handles settings, defaults, and store/service factory functions.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/vitals/internal/charm"
	"github.com/harperreed/vitals/internal/ingest"
	"github.com/harperreed/vitals/internal/markdown"
	"github.com/harperreed/vitals/internal/storage"
)

// Config stores vitals tool configuration.
type Config struct {
	// DataDir is the root of the daily-file cache.
	// Supports ~ expansion. Defaults to ~/.local/share/vitals/cache.
	DataDir string `json:"data_dir,omitempty"`

	// NotesDir is where markdown notes are rendered.
	// Defaults to ~/.local/share/vitals/notes.
	NotesDir string `json:"notes_dir,omitempty"`

	// NoteStore selects the note backend: "markdown" (default) or "charm".
	NoteStore string `json:"note_store,omitempty"`

	// RetentionDays controls how far back daily cache files are kept.
	// 0 disables cleanup.
	RetentionDays int `json:"retention_days,omitempty"`

	LockRetryDelayMS int `json:"lock_retry_delay_ms,omitempty"`
	LockMaxAttempts  int `json:"lock_max_attempts,omitempty"`
	LockStaleSeconds int `json:"lock_stale_seconds,omitempty"`

	RetryMaxAttempts int `json:"retry_max_attempts,omitempty"`
	RetryBaseDelayMS int `json:"retry_base_delay_ms,omitempty"`

	CleanupDebounceSeconds int `json:"cleanup_debounce_seconds,omitempty"`
	MaxCleanupFailures     int `json:"max_cleanup_failures,omitempty"`
}

// dataRoot returns the XDG data directory for vitals.
func dataRoot() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, _ := os.UserHomeDir()
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "vitals")
}

// GetDataDir returns the cache directory with ~ expanded.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return filepath.Join(dataRoot(), "cache")
	}
	return ExpandPath(c.DataDir)
}

// GetNotesDir returns the notes directory with ~ expanded.
func (c *Config) GetNotesDir() string {
	if c.NotesDir == "" {
		return filepath.Join(dataRoot(), "notes")
	}
	return ExpandPath(c.NotesDir)
}

// GetNoteStore returns the configured note backend, defaulting to "markdown".
func (c *Config) GetNoteStore() string {
	if c.NoteStore == "" {
		return "markdown"
	}
	return c.NoteStore
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStore creates the daily file store from the configuration.
func (c *Config) OpenStore(logger *log.Logger) (*storage.Store, error) {
	return storage.NewStore(storage.Options{
		BaseDir:            c.GetDataDir(),
		LockRetryDelay:     time.Duration(c.LockRetryDelayMS) * time.Millisecond,
		LockMaxAttempts:    c.LockMaxAttempts,
		LockStaleAfter:     time.Duration(c.LockStaleSeconds) * time.Second,
		RetentionDays:      c.RetentionDays,
		CleanupDebounce:    time.Duration(c.CleanupDebounceSeconds) * time.Second,
		MaxCleanupFailures: c.MaxCleanupFailures,
		Logger:             logger,
	})
}

// OpenDocStore creates the note store backend from the configuration.
func (c *Config) OpenDocStore(logger *log.Logger) (ingest.DocStore, error) {
	switch c.GetNoteStore() {
	case "markdown":
		return markdown.NewNoteStore(c.GetNotesDir(), logger)
	case "charm":
		return charm.InitClient()
	default:
		return nil, fmt.Errorf("unknown note store: %q", c.NoteStore)
	}
}

// OpenService wires the store and note backend into an ingest service.
func (c *Config) OpenService(logger *log.Logger) (*ingest.Service, error) {
	store, err := c.OpenStore(logger)
	if err != nil {
		return nil, err
	}
	docs, err := c.OpenDocStore(logger)
	if err != nil {
		return nil, err
	}
	return ingest.NewService(ingest.Options{
		Store:          store,
		Docs:           docs,
		RetryAttempts:  c.RetryMaxAttempts,
		RetryBaseDelay: time.Duration(c.RetryBaseDelayMS) * time.Millisecond,
		Logger:         logger,
	})
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "vitals", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
