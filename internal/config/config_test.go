package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "git", cfg.GitPath)
	require.Equal(t, 60*time.Second, cfg.CommandTimeout)
	require.Equal(t, 300*time.Millisecond, cfg.WatchDebounce)
	require.Equal(t, 50, cfg.UndoLimit)
	require.Equal(t, 30*time.Second, cfg.Cache.BranchesTTL)
	require.Equal(t, 300*time.Second, cfg.Cache.RemotesTTL)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.Telemetry.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.CommandTimeout = -time.Second },
			wantErr: "command_timeout",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.WatchDebounce = -time.Millisecond },
			wantErr: "watch_debounce",
		},
		{
			name:    "negative undo limit",
			mutate:  func(c *Config) { c.UndoLimit = -1 },
			wantErr: "undo_limit",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name:    "negative cache ttl",
			mutate:  func(c *Config) { c.Cache.TagsTTL = -time.Second },
			wantErr: "tags_ttl",
		},
		{
			name:   "empty log level allowed",
			mutate: func(c *Config) { c.Log.Level = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultConfigTemplateIsValidYAML(t *testing.T) {
	var parsed map[string]any
	err := yaml.Unmarshal([]byte(DefaultConfigTemplate()), &parsed)
	require.NoError(t, err, "template must parse as YAML")
	require.Contains(t, parsed, "cache")
	require.Contains(t, parsed, "watch_debounce")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	require.NoError(t, WriteDefaultConfig(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "gitdeck Configuration")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
