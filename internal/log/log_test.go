package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitEmptyPathDisablesFileLogging(t *testing.T) {
	require.NoError(t, Init("", "info"))
	defer Close()

	// Logging with no file configured must not panic or write anywhere.
	Info(CatCLI, "startup", "repo", "/tmp/r")
	Debug(CatGit, "ignored at info level")
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gitdeck.log")
	require.NoError(t, Init(path, "debug"))

	Debug(CatCache, "view invalidated", "view", "branches")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "view invalidated")
	require.Contains(t, string(data), "cat=cache")
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitdeck.log")
	require.NoError(t, Init(path, "chatty"))

	Debug(CatOrch, "should be filtered")
	Info(CatOrch, "should appear")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "should be filtered")
	require.Contains(t, string(data), "should appear")
}
