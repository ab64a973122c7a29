// Package log provides category-tagged structured logging for gitdeck.
//
// Log output goes to a file (never stdout/stderr, which belong to the CLI),
// so background goroutines can log freely without corrupting command output.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Category tags a log line with the subsystem that produced it.
type Category string

const (
	CatGit   Category = "git"   // git subprocess execution
	CatCache Category = "cache" // view cache hits/misses/invalidation
	CatWatch Category = "watch" // filesystem watcher + signal classification
	CatOrch  Category = "orch"  // repository orchestrator
	CatUndo  Category = "undo"  // operation log / undo manager
	CatDB    Category = "db"    // sqlite journal
	CatCLI   Category = "cli"   // command-line surface
)

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	closer io.Closer
)

// Init routes log output to the given file, creating parent directories as
// needed. Level controls verbosity ("debug", "info", "warn", "error").
// An empty path disables file logging and leaves the discard handler in
// place, which is the default configuration.
func Init(path, level string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // G304: path comes from config
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
	}
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	closer = f
	return nil
}

// Close flushes and closes the log file, if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug-level message tagged with the given category.
func Debug(cat Category, msg string, kv ...any) {
	current().Debug(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// Info logs an info-level message tagged with the given category.
func Info(cat Category, msg string, kv ...any) {
	current().Info(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// Warn logs a warn-level message tagged with the given category.
func Warn(cat Category, msg string, kv ...any) {
	current().Warn(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// ErrorErr logs an error-level message with the error attached.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	current().Error(msg, append([]any{"cat", string(cat), "error", err}, kv...)...)
}
