// Package application defines ports (interfaces) between the repository
// orchestrator and its collaborators.
package application

import (
	"context"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// CommitOptions controls commit creation.
type CommitOptions struct {
	Message string
	Amend   bool
}

// PullOptions controls pull behavior.
type PullOptions struct {
	Remote string
	Rebase bool
}

// PushOptions controls push behavior.
type PushOptions struct {
	Remote      string
	SetUpstream bool
	Force       bool
}

// ResetMode selects the reset flavor.
type ResetMode string

const (
	ResetSoft  ResetMode = "soft"
	ResetMixed ResetMode = "mixed"
	ResetHard  ResetMode = "hard"
)

// PatchMode selects how a synthesized patch is applied.
type PatchMode int

const (
	// PatchStage applies forward against the index (--cached).
	PatchStage PatchMode = iota
	// PatchUnstage applies in reverse against the index (--cached -R).
	PatchUnstage
	// PatchDiscard applies in reverse against the working tree (-R).
	PatchDiscard
)

// RepositoryEngine is the full set of git operations the orchestrator
// delegates to. Every method takes the repository path explicitly; there
// is no implicit current repository. All methods are safe to call from a
// background goroutine.
type RepositoryEngine interface {
	OpenRepository(ctx context.Context, path string) (domain.RepositoryContext, error)
	CloneRepository(ctx context.Context, url, path string) (domain.RepositoryContext, error)
	InitRepository(ctx context.Context, path string) (domain.RepositoryContext, error)

	GetStatus(ctx context.Context, path string) (domain.RepositoryStatus, error)
	GetCurrentBranch(ctx context.Context, path string) (string, error)
	GetBranches(ctx context.Context, path string) ([]domain.Branch, error)
	GetRemoteBranches(ctx context.Context, path string) ([]domain.RemoteBranch, error)
	GetTags(ctx context.Context, path string) ([]domain.Tag, error)
	GetRemotes(ctx context.Context, path string) ([]domain.Remote, error)
	GetStashes(ctx context.Context, path string) ([]domain.Stash, error)
	GetDiff(ctx context.Context, path, file string, staged bool) ([]domain.FileDiff, error)

	Stage(ctx context.Context, path string, files []string) error
	Unstage(ctx context.Context, path string, files []string) error
	DiscardChanges(ctx context.Context, path string, files []string) error
	ApplyPatch(ctx context.Context, path, patch string, mode PatchMode) error

	Commit(ctx context.Context, path string, opts CommitOptions) error
	Checkout(ctx context.Context, path, ref string) error
	CreateBranch(ctx context.Context, path, name, startPoint string) error
	DeleteBranch(ctx context.Context, path, name string, force bool) error
	Merge(ctx context.Context, path, ref string) error
	Reset(ctx context.Context, path, ref string, mode ResetMode) error
	Revert(ctx context.Context, path, commit string) error
	Rebase(ctx context.Context, path, onto string) error
	CherryPick(ctx context.Context, path, commit string) error
	CreateTag(ctx context.Context, path, name, target string) error
	DeleteTag(ctx context.Context, path, name string) error

	Fetch(ctx context.Context, path, remote string) error
	Pull(ctx context.Context, path string, opts PullOptions) error
	Push(ctx context.Context, path string, opts PushOptions) error

	StashSave(ctx context.Context, path, message string, includeUntracked bool) error
	StashPop(ctx context.Context, path string, index int) error
	StashApply(ctx context.Context, path string, index int) error
	StashDrop(ctx context.Context, path string, index int) error
}
