// Package config provides configuration types and defaults for gitdeck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration options for gitdeck.
type Config struct {
	GitPath        string          `mapstructure:"git_path"`
	CommandTimeout time.Duration   `mapstructure:"command_timeout"`
	WatchDebounce  time.Duration   `mapstructure:"watch_debounce"`
	UndoLimit      int             `mapstructure:"undo_limit"`
	JournalPath    string          `mapstructure:"journal_path"`
	Cache          CacheConfig     `mapstructure:"cache"`
	Log            LogConfig       `mapstructure:"log"`
	Telemetry      TelemetryConfig `mapstructure:"telemetry"`
}

// CacheConfig holds per-view cache lifetimes.
type CacheConfig struct {
	BranchesTTL time.Duration `mapstructure:"branches_ttl"`
	StashesTTL  time.Duration `mapstructure:"stashes_ttl"`
	TagsTTL     time.Duration `mapstructure:"tags_ttl"`
	RemotesTTL  time.Duration `mapstructure:"remotes_ttl"`
}

// LogConfig holds logging options.
type LogConfig struct {
	// Path of the log file. Empty disables file logging entirely.
	Path string `mapstructure:"path"`

	// Level is the minimum level written: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
}

// TelemetryConfig holds trace export options.
type TelemetryConfig struct {
	// Enabled turns span export on. Spans are always created; without
	// export they are no-ops.
	Enabled bool `mapstructure:"enabled"`

	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	// Empty with Enabled=true writes spans to stdout instead.
	Endpoint string `mapstructure:"endpoint"`
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout must not be negative")
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative")
	}
	if c.UndoLimit < 0 {
		return fmt.Errorf("undo_limit must not be negative")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	for name, ttl := range map[string]time.Duration{
		"cache.branches_ttl": c.Cache.BranchesTTL,
		"cache.stashes_ttl":  c.Cache.StashesTTL,
		"cache.tags_ttl":     c.Cache.TagsTTL,
		"cache.remotes_ttl":  c.Cache.RemotesTTL,
	} {
		if ttl < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		GitPath:        "git",
		CommandTimeout: 60 * time.Second,
		WatchDebounce:  300 * time.Millisecond,
		UndoLimit:      50,
		JournalPath:    defaultJournalPath(),
		Cache: CacheConfig{
			BranchesTTL: 30 * time.Second,
			StashesTTL:  30 * time.Second,
			TagsTTL:     120 * time.Second,
			RemotesTTL:  300 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaultJournalPath places the operation journal under the user's home
// directory, falling back to the working directory when home is unknown.
func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gitdeck.db"
	}
	return filepath.Join(home, ".gitdeck", "gitdeck.db")
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# gitdeck Configuration

# Path to the git binary (default: resolved from PATH)
git_path: git

# Maximum duration for a single git command
command_timeout: 60s

# How long to collect filesystem events before refreshing.
# Bursts of changes within this window collapse into one refresh.
watch_debounce: 300ms

# Maximum number of operations kept in the undo history
undo_limit: 50

# Operation journal database (audit trail of everything gitdeck did).
# journal_path: ~/.gitdeck/gitdeck.db

# Cache lifetimes for repository views. Shorter values mean fresher data
# and more git invocations.
cache:
  branches_ttl: 30s
  stashes_ttl: 30s
  tags_ttl: 120s
  remotes_ttl: 300s

# Logging
log:
  # path: ~/.gitdeck/gitdeck.log
  level: info

# Trace export (OpenTelemetry). Disabled by default.
telemetry:
  enabled: false
  # endpoint: localhost:4317
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
