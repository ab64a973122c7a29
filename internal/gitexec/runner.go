// Package gitexec executes git subprocesses. It is the sole I/O boundary
// between gitdeck and the git command-line tool: everything above it works
// with parsed values, everything below it is argv + exit code + output.
package gitexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/zjrosen/gitdeck/internal/log"
)

// Result holds the outcome of a completed subprocess.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandError reports a git invocation that exited non-zero. It carries the
// failing argv and stderr verbatim so callers can surface the exact failure.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

// Runner executes git with the given arguments in the given directory.
// Implementations must be safe for concurrent use.
type Runner interface {
	// Run executes git and returns its result. A non-zero exit returns both
	// the Result and a *CommandError; other failures (binary missing,
	// context cancelled) return only an error.
	Run(ctx context.Context, dir string, args ...string) (Result, error)

	// RunWithStdin is Run with data piped to the subprocess's stdin.
	// Used for patch application, where the patch travels on stdin.
	RunWithStdin(ctx context.Context, dir, stdin string, args ...string) (Result, error)
}

// CLIRunner runs the real git binary via os/exec.
type CLIRunner struct {
	gitPath string
	timeout time.Duration
}

// Option configures a CLIRunner.
type Option func(*CLIRunner)

// WithGitPath overrides the git binary path (default "git", resolved via PATH).
func WithGitPath(path string) Option {
	return func(r *CLIRunner) {
		if path != "" {
			r.gitPath = path
		}
	}
}

// WithTimeout sets a per-invocation timeout applied when the caller's
// context has no deadline of its own.
func WithTimeout(d time.Duration) Option {
	return func(r *CLIRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewCLIRunner creates a Runner backed by the git binary.
func NewCLIRunner(opts ...Option) *CLIRunner {
	r := &CLIRunner{
		gitPath: "git",
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes git and returns its result.
func (r *CLIRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	return r.run(ctx, dir, "", args)
}

// RunWithStdin executes git with data piped to stdin.
func (r *CLIRunner) RunWithStdin(ctx context.Context, dir, stdin string, args ...string) (Result, error) {
	return r.run(ctx, dir, stdin, args)
}

func (r *CLIRunner) run(ctx context.Context, dir, stdin string, args []string) (Result, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.gitPath, args...) //nolint:gosec // G204: args are built internally, never raw user strings
	cmd.Dir = dir
	// Never let a subprocess hang on an interactive credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			log.Debug(log.CatGit, "git exited non-zero",
				"args", strings.Join(args, " "), "dir", dir,
				"exit", res.ExitCode, "elapsed", elapsed)
			return res, &CommandError{
				Args:     args,
				ExitCode: res.ExitCode,
				Stderr:   res.Stderr,
			}
		}
		if ctx.Err() != nil {
			return res, fmt.Errorf("git %s: %w", strings.Join(args, " "), ctx.Err())
		}
		return res, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	log.Debug(log.CatGit, "git ok",
		"args", strings.Join(args, " "), "dir", dir, "elapsed", elapsed)
	return res, nil
}

var _ Runner = (*CLIRunner)(nil)
