// Package gitcli implements the RepositoryEngine port by driving the git
// command-line tool through gitexec. Git is trusted for correctness; this
// layer only builds argument vectors and parses output.
package gitcli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/gitdeck/internal/gitexec"
	"github.com/zjrosen/gitdeck/internal/repo/application"
	"github.com/zjrosen/gitdeck/internal/repo/domain"
	"github.com/zjrosen/gitdeck/internal/repo/patch"
)

// Engine drives git subprocesses for one or more repositories. Stateless:
// every method takes the repository path explicitly.
type Engine struct {
	runner gitexec.Runner
}

// NewEngine creates an Engine on the given runner.
func NewEngine(runner gitexec.Runner) *Engine {
	return &Engine{runner: runner}
}

var _ application.RepositoryEngine = (*Engine)(nil)

// OpenRepository validates that path is a git working tree and builds a
// fresh repository context.
func (e *Engine) OpenRepository(ctx context.Context, path string) (domain.RepositoryContext, error) {
	res, err := e.runner.Run(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		var cmdErr *gitexec.CommandError
		if errors.As(err, &cmdErr) {
			return domain.RepositoryContext{}, fmt.Errorf("%w: %s", domain.ErrNotGitRepo, path)
		}
		return domain.RepositoryContext{}, err
	}
	root := strings.TrimSpace(res.Stdout)

	branch, err := e.GetCurrentBranch(ctx, root)
	if err != nil {
		return domain.RepositoryContext{}, err
	}
	status, err := e.GetStatus(ctx, root)
	if err != nil {
		return domain.RepositoryContext{}, err
	}

	return domain.RepositoryContext{
		Path:          root,
		CurrentBranch: branch,
		Status:        status,
		OpenedAt:      time.Now(),
	}, nil
}

// CloneRepository clones url into path and opens the result.
func (e *Engine) CloneRepository(ctx context.Context, url, path string) (domain.RepositoryContext, error) {
	parent := filepath.Dir(path)
	if _, err := e.runner.Run(ctx, parent, "clone", "--", url, path); err != nil {
		return domain.RepositoryContext{}, err
	}
	return e.OpenRepository(ctx, path)
}

// InitRepository initializes a new repository at path and opens it.
func (e *Engine) InitRepository(ctx context.Context, path string) (domain.RepositoryContext, error) {
	if _, err := e.runner.Run(ctx, filepath.Dir(path), "init", "--", path); err != nil {
		return domain.RepositoryContext{}, err
	}
	return e.OpenRepository(ctx, path)
}

// GetCurrentBranch returns the checked-out branch name, a short hash when
// HEAD is detached, or the unborn branch name in a fresh repository.
func (e *Engine) GetCurrentBranch(ctx context.Context, path string) (string, error) {
	res, err := e.runner.Run(ctx, path, "symbolic-ref", "--short", "-q", "HEAD")
	if err == nil {
		return strings.TrimSpace(res.Stdout), nil
	}
	var cmdErr *gitexec.CommandError
	if !errors.As(err, &cmdErr) {
		return "", err
	}

	// Detached HEAD: fall back to the commit hash.
	res, err = e.runner.Run(ctx, path, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// GetStatus returns the staged/unstaged/untracked file lists.
func (e *Engine) GetStatus(ctx context.Context, path string) (domain.RepositoryStatus, error) {
	res, err := e.runner.Run(ctx, path, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return domain.RepositoryStatus{}, err
	}
	return parseStatus(res.Stdout), nil
}

// GetBranches lists local branches with upstream and ahead/behind counts.
func (e *Engine) GetBranches(ctx context.Context, path string) ([]domain.Branch, error) {
	res, err := e.runner.Run(ctx, path, "for-each-ref", "refs/heads",
		"--format=%(refname:short)\x1f%(upstream:short)\x1f%(upstream:track)\x1f%(HEAD)")
	if err != nil {
		return nil, err
	}
	return parseBranches(res.Stdout), nil
}

// GetRemoteBranches lists remote-tracking branches, excluding symbolic
// HEAD entries.
func (e *Engine) GetRemoteBranches(ctx context.Context, path string) ([]domain.RemoteBranch, error) {
	res, err := e.runner.Run(ctx, path, "for-each-ref", "refs/remotes",
		"--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	return parseRemoteBranches(res.Stdout), nil
}

// GetTags lists tags with their abbreviated targets.
func (e *Engine) GetTags(ctx context.Context, path string) ([]domain.Tag, error) {
	res, err := e.runner.Run(ctx, path, "for-each-ref", "refs/tags",
		"--format=%(refname:short)\x1f%(objectname:short)")
	if err != nil {
		return nil, err
	}
	return parseTags(res.Stdout), nil
}

// GetRemotes lists configured remotes with fetch and push URLs.
func (e *Engine) GetRemotes(ctx context.Context, path string) ([]domain.Remote, error) {
	res, err := e.runner.Run(ctx, path, "remote", "-v")
	if err != nil {
		return nil, err
	}
	return parseRemotes(res.Stdout), nil
}

// GetStashes lists stash entries, newest first (index 0).
func (e *Engine) GetStashes(ctx context.Context, path string) ([]domain.Stash, error) {
	res, err := e.runner.Run(ctx, path, "stash", "list", "--format=%gd\x1f%ct\x1f%gs")
	if err != nil {
		return nil, err
	}
	return parseStashes(res.Stdout), nil
}

// GetDiff returns parsed hunks for the working tree (staged=false) or the
// index (staged=true), optionally limited to one file. Diffs are produced
// fresh on every call and never cached.
func (e *Engine) GetDiff(ctx context.Context, path, file string, staged bool) ([]domain.FileDiff, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff"}
	if staged {
		args = append(args, "--cached")
	}
	if file != "" {
		args = append(args, "--", file)
	}
	res, err := e.runner.Run(ctx, path, args...)
	if err != nil {
		return nil, err
	}
	return patch.ParseDiff(res.Stdout)
}

// Stage adds the given files to the index.
func (e *Engine) Stage(ctx context.Context, path string, files []string) error {
	args := append([]string{"add", "--"}, files...)
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// Unstage removes the given files from the index, keeping worktree content.
func (e *Engine) Unstage(ctx context.Context, path string, files []string) error {
	args := append([]string{"restore", "--staged", "--"}, files...)
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// DiscardChanges restores the given files to their index content,
// discarding unstaged modifications.
func (e *Engine) DiscardChanges(ctx context.Context, path string, files []string) error {
	args := append([]string{"restore", "--"}, files...)
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// ApplyPatch pipes a synthesized patch fragment into git apply. A
// rejected patch (typically a stale hunk) is surfaced as a
// PatchApplyError, distinct from a generic command failure, so callers
// can suggest refresh-and-retry.
func (e *Engine) ApplyPatch(ctx context.Context, path, patchText string, mode application.PatchMode) error {
	args := []string{"apply", "--whitespace=nowarn", "--unidiff-zero"}
	var modeName string
	switch mode {
	case application.PatchStage:
		args = append(args, "--cached")
		modeName = "stage"
	case application.PatchUnstage:
		args = append(args, "--cached", "-R")
		modeName = "unstage"
	case application.PatchDiscard:
		args = append(args, "-R")
		modeName = "discard"
	}
	args = append(args, "-")

	_, err := e.runner.RunWithStdin(ctx, path, patchText, args...)
	if err != nil {
		var cmdErr *gitexec.CommandError
		if errors.As(err, &cmdErr) {
			return &domain.PatchApplyError{Mode: modeName, Stderr: strings.TrimSpace(cmdErr.Stderr)}
		}
		return err
	}
	return nil
}

// Commit creates a commit, or amends the previous one.
func (e *Engine) Commit(ctx context.Context, path string, opts application.CommitOptions) error {
	args := []string{"commit"}
	if opts.Amend {
		args = append(args, "--amend")
		if opts.Message == "" {
			args = append(args, "--no-edit")
		}
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// Checkout checks out a branch, tag, or commit.
func (e *Engine) Checkout(ctx context.Context, path, ref string) error {
	_, err := e.runner.Run(ctx, path, "checkout", ref)
	return err
}

// CreateBranch creates a branch, optionally from a start point.
func (e *Engine) CreateBranch(ctx context.Context, path, name, startPoint string) error {
	args := []string{"branch", name}
	if startPoint != "" {
		args = append(args, startPoint)
	}
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// DeleteBranch deletes a branch; force uses -D.
func (e *Engine) DeleteBranch(ctx context.Context, path, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := e.runner.Run(ctx, path, "branch", flag, name)
	return err
}

// Merge merges ref into the current branch.
func (e *Engine) Merge(ctx context.Context, path, ref string) error {
	_, err := e.runner.Run(ctx, path, "merge", ref)
	return err
}

// Reset resets the current branch to ref with the given mode.
func (e *Engine) Reset(ctx context.Context, path, ref string, mode application.ResetMode) error {
	_, err := e.runner.Run(ctx, path, "reset", "--"+string(mode), ref)
	return err
}

// Revert creates a revert commit for the given commit.
func (e *Engine) Revert(ctx context.Context, path, commit string) error {
	_, err := e.runner.Run(ctx, path, "revert", "--no-edit", commit)
	return err
}

// Rebase rebases the current branch onto the given ref.
func (e *Engine) Rebase(ctx context.Context, path, onto string) error {
	_, err := e.runner.Run(ctx, path, "rebase", onto)
	return err
}

// CherryPick applies the given commit onto the current branch.
func (e *Engine) CherryPick(ctx context.Context, path, commit string) error {
	_, err := e.runner.Run(ctx, path, "cherry-pick", commit)
	return err
}

// CreateTag creates a lightweight tag, optionally at a target.
func (e *Engine) CreateTag(ctx context.Context, path, name, target string) error {
	args := []string{"tag", name}
	if target != "" {
		args = append(args, target)
	}
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// DeleteTag deletes a tag.
func (e *Engine) DeleteTag(ctx context.Context, path, name string) error {
	_, err := e.runner.Run(ctx, path, "tag", "-d", name)
	return err
}

// Fetch fetches from the named remote, or all remotes when empty.
func (e *Engine) Fetch(ctx context.Context, path, remote string) error {
	args := []string{"fetch", "--prune"}
	if remote != "" {
		args = append(args, remote)
	} else {
		args = append(args, "--all")
	}
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// Pull pulls from the remote, optionally rebasing.
func (e *Engine) Pull(ctx context.Context, path string, opts application.PullOptions) error {
	args := []string{"pull"}
	if opts.Rebase {
		args = append(args, "--rebase")
	}
	if opts.Remote != "" {
		args = append(args, opts.Remote)
	}
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// Push pushes the current branch.
func (e *Engine) Push(ctx context.Context, path string, opts application.PushOptions) error {
	args := []string{"push"}
	if opts.Force {
		args = append(args, "--force-with-lease")
	}
	if opts.SetUpstream {
		remote := opts.Remote
		if remote == "" {
			remote = "origin"
		}
		args = append(args, "-u", remote, "HEAD")
	} else if opts.Remote != "" {
		args = append(args, opts.Remote)
	}
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// StashSave shelves uncommitted changes.
func (e *Engine) StashSave(ctx context.Context, path, message string, includeUntracked bool) error {
	args := []string{"stash", "push"}
	if includeUntracked {
		args = append(args, "--include-untracked")
	}
	if message != "" {
		args = append(args, "-m", message)
	}
	_, err := e.runner.Run(ctx, path, args...)
	return err
}

// StashPop applies and drops the stash at the given positional index.
func (e *Engine) StashPop(ctx context.Context, path string, index int) error {
	_, err := e.runner.Run(ctx, path, "stash", "pop", domain.Stash{Index: index}.Ref())
	return err
}

// StashApply applies the stash at the given index without dropping it.
func (e *Engine) StashApply(ctx context.Context, path string, index int) error {
	_, err := e.runner.Run(ctx, path, "stash", "apply", domain.Stash{Index: index}.Ref())
	return err
}

// StashDrop drops the stash at the given index.
func (e *Engine) StashDrop(ctx context.Context, path string, index int) error {
	_, err := e.runner.Run(ctx, path, "stash", "drop", domain.Stash{Index: index}.Ref())
	return err
}
