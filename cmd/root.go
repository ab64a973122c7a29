// Package cmd implements the gitdeck command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/gitdeck/internal/config"
	"github.com/zjrosen/gitdeck/internal/gitexec"
	"github.com/zjrosen/gitdeck/internal/infrastructure/sqlite"
	"github.com/zjrosen/gitdeck/internal/log"
	"github.com/zjrosen/gitdeck/internal/repo/gitcli"
	"github.com/zjrosen/gitdeck/internal/repo/orchestrator"
	"github.com/zjrosen/gitdeck/internal/telemetry"
)

var (
	cfgFile  string
	repoFlag string

	cfg             config.Config
	shutdownTracing func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:           "gitdeck",
	Short:         "Inspect and manipulate a git repository's working state",
	Long:          `gitdeck keeps a synchronized view of a git repository: status, branches, stashes and diffs, with line-level staging, auto-stashing pulls and an undo history for mutating operations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		if err := log.Init(cfg.Log.Path, cfg.Log.Level); err != nil {
			return fmt.Errorf("initializing log: %w", err)
		}
		shutdownTracing, err = telemetry.Init(cmd.Context(), cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTracing != nil {
			if err := shutdownTracing(cmd.Context()); err != nil {
				log.Warn(log.CatCLI, "trace shutdown failed", "error", err)
			}
		}
		log.Close()
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.gitdeck/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "C", ".", "path to the git repository")
}

// loadConfig merges defaults, the config file and GITDECK_* environment
// variables, in increasing precedence.
func loadConfig() (config.Config, error) {
	cfg := config.Defaults()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".gitdeck"))
		}
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("GITDECK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		// No config file is fine; defaults apply.
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// session bundles everything a command needs to act on one repository.
type session struct {
	orch    *orchestrator.Orchestrator
	runner  gitexec.Runner
	journal *sqlite.OperationJournal
	db      *sqlite.DB
	path    string
}

func (s *session) close() {
	s.orch.Close()
	if s.db != nil {
		_ = s.db.Close()
	}
}

// openSession builds the engine stack and opens the repository named by
// --repo. The operation journal is optional: a journal that cannot be
// opened degrades to in-memory history only.
func openSession(ctx context.Context) (*session, error) {
	path, err := filepath.Abs(repoFlag)
	if err != nil {
		return nil, fmt.Errorf("resolving repository path: %w", err)
	}

	runner := gitexec.NewCLIRunner(
		gitexec.WithGitPath(cfg.GitPath),
		gitexec.WithTimeout(cfg.CommandTimeout),
	)
	engine := gitcli.NewEngine(runner)

	s := &session{runner: runner, path: path}

	if cfg.JournalPath != "" {
		db, err := sqlite.NewDB(cfg.JournalPath)
		if err != nil {
			log.Warn(log.CatCLI, "operation journal unavailable; continuing without audit trail",
				"path", cfg.JournalPath, "error", err)
		} else {
			s.db = db
			s.journal = db.OperationJournal(path)
		}
	}

	orchCfg := orchestrator.Config{
		Engine:   engine,
		Runner:   runner,
		Debounce: cfg.WatchDebounce,
		UndoCap:  cfg.UndoLimit,
		TTLs: orchestrator.TTLConfig{
			Branches: cfg.Cache.BranchesTTL,
			Stashes:  cfg.Cache.StashesTTL,
			Tags:     cfg.Cache.TagsTTL,
			Remotes:  cfg.Cache.RemotesTTL,
		},
	}
	if s.journal != nil {
		orchCfg.Journal = s.journal
	}
	s.orch = orchestrator.New(orchCfg)

	if _, err := s.orch.Open(ctx, path); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}
