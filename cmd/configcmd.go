package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/gitdeck/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the gitdeck configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Durations are rendered as strings ("60s"), not nanosecond ints.
		view := map[string]any{
			"git_path":        cfg.GitPath,
			"command_timeout": cfg.CommandTimeout.String(),
			"watch_debounce":  cfg.WatchDebounce.String(),
			"undo_limit":      cfg.UndoLimit,
			"journal_path":    cfg.JournalPath,
			"cache": map[string]any{
				"branches_ttl": cfg.Cache.BranchesTTL.String(),
				"stashes_ttl":  cfg.Cache.StashesTTL.String(),
				"tags_ttl":     cfg.Cache.TagsTTL.String(),
				"remotes_ttl":  cfg.Cache.RemotesTTL.String(),
			},
			"log": map[string]any{
				"path":  cfg.Log.Path,
				"level": cfg.Log.Level,
			},
			"telemetry": map[string]any{
				"enabled":  cfg.Telemetry.Enabled,
				"endpoint": cfg.Telemetry.Endpoint,
			},
		}
		out, err := yaml.Marshal(view)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolving home directory: %w", err)
			}
			path = filepath.Join(home, ".gitdeck", "config.yml")
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		}

		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
