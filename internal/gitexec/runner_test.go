package gitexec

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// The runner is exercised against /bin/sh instead of git so the tests do
// not depend on a git installation or a repository on disk.
func shRunner(opts ...Option) *CLIRunner {
	return NewCLIRunner(append([]Option{WithGitPath("sh")}, opts...)...)
}

func TestRunCapturesStdout(t *testing.T) {
	r := shRunner()

	res, err := r.Run(context.Background(), t.TempDir(), "-c", "printf hello")
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "hello", res.Stdout)
}

func TestRunNonZeroExitReturnsCommandError(t *testing.T) {
	r := shRunner()

	res, err := r.Run(context.Background(), t.TempDir(), "-c", "echo boom >&2; exit 3")
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, 3, cmdErr.ExitCode)
	require.Contains(t, cmdErr.Stderr, "boom")
	require.Equal(t, []string{"-c", "echo boom >&2; exit 3"}, cmdErr.Args)

	require.Equal(t, 3, res.ExitCode)
	require.Contains(t, res.Stderr, "boom")
}

func TestRunMissingBinary(t *testing.T) {
	r := NewCLIRunner(WithGitPath("/nonexistent/gitdeck-no-such-binary"))

	_, err := r.Run(context.Background(), t.TempDir(), "status")
	require.Error(t, err)

	var cmdErr *CommandError
	require.False(t, errors.As(err, &cmdErr), "a missing binary is not a CommandError")
}

func TestRunWithStdinPipesData(t *testing.T) {
	r := shRunner()

	res, err := r.RunWithStdin(context.Background(), t.TempDir(), "patch body\n", "-c", "cat")
	require.NoError(t, err)
	require.Equal(t, "patch body\n", res.Stdout)
}

func TestRunTimeout(t *testing.T) {
	r := shRunner(WithTimeout(50 * time.Millisecond))

	start := time.Now()
	_, err := r.Run(context.Background(), t.TempDir(), "-c", "sleep 5")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestRunCallerDeadlineWins(t *testing.T) {
	r := shRunner(WithTimeout(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, t.TempDir(), "-c", "sleep 5")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCommandErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  CommandError
		want string
	}{
		{
			name: "with stderr",
			err:  CommandError{Args: []string{"merge", "topic"}, ExitCode: 1, Stderr: "CONFLICT (content)\n"},
			want: "git merge topic: CONFLICT (content)",
		},
		{
			name: "empty stderr falls back to exit code",
			err:  CommandError{Args: []string{"fetch"}, ExitCode: 128},
			want: "git fetch: exit status 128",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
}
