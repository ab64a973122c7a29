package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/gitdeck/internal/log"
	"github.com/zjrosen/gitdeck/internal/repo/application"
	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// refreshKind selects how much state a mutation re-derives afterwards.
type refreshKind int

const (
	refreshNone refreshKind = iota
	refreshStatusOnly
	refreshFull
)

// mutate wraps a mutating operation with tracing, active-repository
// validation and the post-operation refresh. record, when non-nil, is
// called after the operation succeeds (but before the refresh) to push
// an undo entry.
func (o *Orchestrator) mutate(ctx context.Context, name string, after refreshKind, fn func(ctx context.Context, path string) error, record func() *domain.GitOperation) error {
	ctx, span := o.tracer.Start(ctx, "orchestrator."+name)
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil {
		return domain.ErrNoActiveRepository
	}
	path := o.active.Path

	if err := fn(ctx, path); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if record != nil {
		if op := record(); op != nil {
			o.undoLog.Record(*op)
		}
	}

	switch after {
	case refreshStatusOnly:
		return o.refreshStatusLocked(ctx)
	case refreshFull:
		return o.refreshLocked(ctx)
	}
	return nil
}

// newOp builds a recorded operation with identity and timestamp filled in.
func newOp(opType domain.OperationType, desc string, inverse []string, redo domain.RedoPayload) *domain.GitOperation {
	return &domain.GitOperation{
		ID:          uuid.NewString(),
		Type:        opType,
		Description: desc,
		Inverse:     inverse,
		Redo:        redo,
		Timestamp:   time.Now(),
	}
}

// StageFiles stages files into the index.
func (o *Orchestrator) StageFiles(ctx context.Context, files []string) error {
	return o.mutate(ctx, "stage", refreshStatusOnly,
		func(ctx context.Context, path string) error {
			return o.engine.Stage(ctx, path, files)
		},
		func() *domain.GitOperation {
			inverse := append([]string{"restore", "--staged", "--"}, files...)
			return newOp(domain.OpStage, describeFiles("stage", files), inverse, domain.StageRedo{Files: files})
		})
}

// UnstageFiles removes files from the index, keeping worktree content.
func (o *Orchestrator) UnstageFiles(ctx context.Context, files []string) error {
	return o.mutate(ctx, "unstage", refreshStatusOnly,
		func(ctx context.Context, path string) error {
			return o.engine.Unstage(ctx, path, files)
		},
		func() *domain.GitOperation {
			inverse := append([]string{"add", "--"}, files...)
			return newOp(domain.OpUnstage, describeFiles("unstage", files), inverse, domain.UnstageRedo{Files: files})
		})
}

// DiscardFiles throws away worktree modifications to files. Destructive
// and deliberately not recorded: the discarded content is gone and no
// inverse command can bring it back.
func (o *Orchestrator) DiscardFiles(ctx context.Context, files []string) error {
	return o.mutate(ctx, "discard", refreshStatusOnly,
		func(ctx context.Context, path string) error {
			return o.engine.DiscardChanges(ctx, path, files)
		}, nil)
}

// Commit creates a commit from the current index.
func (o *Orchestrator) Commit(ctx context.Context, opts application.CommitOptions) error {
	opType := domain.OpCommit
	if opts.Amend {
		opType = domain.OpAmend
	}
	return o.mutate(ctx, "commit", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.Commit(ctx, path, opts)
		},
		func() *domain.GitOperation {
			// A soft reset restores the index exactly as it was before the
			// commit. For amend this collapses the amended commit too, which
			// loses the pre-amend message; accepted imprecision.
			return newOp(opType, summarize(opts.Message), []string{"reset", "--soft", "HEAD~1"}, nil)
		})
}

// Checkout switches to ref.
func (o *Orchestrator) Checkout(ctx context.Context, ref string) error {
	var previous string
	return o.mutate(ctx, "checkout", refreshFull,
		func(ctx context.Context, path string) error {
			branch, err := o.engine.GetCurrentBranch(ctx, path)
			if err != nil {
				return err
			}
			previous = branch
			return o.engine.Checkout(ctx, path, ref)
		},
		func() *domain.GitOperation {
			return newOp(domain.OpCheckout, "checkout "+ref,
				[]string{"checkout", previous}, domain.CheckoutRedo{Ref: ref})
		})
}

// CreateBranch creates a branch without switching to it.
func (o *Orchestrator) CreateBranch(ctx context.Context, name, startPoint string) error {
	return o.mutate(ctx, "create-branch", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.CreateBranch(ctx, path, name, startPoint)
		},
		func() *domain.GitOperation {
			return newOp(domain.OpBranchCreate, "create branch "+name,
				[]string{"branch", "-D", name},
				domain.BranchCreateRedo{Name: name, StartPoint: startPoint})
		})
}

// DeleteBranch deletes a local branch.
func (o *Orchestrator) DeleteBranch(ctx context.Context, name string, force bool) error {
	var target string
	return o.mutate(ctx, "delete-branch", refreshFull,
		func(ctx context.Context, path string) error {
			// Resolve the tip before deleting so the inverse can recreate
			// the branch at the exact commit, not at wherever HEAD is later.
			if res, err := o.runner.Run(ctx, path, "rev-parse", "--verify", "refs/heads/"+name); err == nil {
				target = strings.TrimSpace(res.Stdout)
			}
			return o.engine.DeleteBranch(ctx, path, name, force)
		},
		func() *domain.GitOperation {
			inverse := []string{"branch", name}
			if target != "" {
				inverse = append(inverse, target)
			}
			return newOp(domain.OpBranchDelete, "delete branch "+name,
				inverse, domain.BranchDeleteRedo{Name: name})
		})
}

// Merge merges ref into the current branch.
func (o *Orchestrator) Merge(ctx context.Context, ref string) error {
	return o.mutate(ctx, "merge", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.Merge(ctx, path, ref)
		},
		func() *domain.GitOperation {
			// ORIG_HEAD points at the pre-merge tip; a hard reset there
			// removes the merge regardless of how many parents it has.
			return newOp(domain.OpMerge, "merge "+ref,
				[]string{"reset", "--hard", "ORIG_HEAD"}, nil)
		})
}

// Reset moves HEAD to ref with the given mode.
func (o *Orchestrator) Reset(ctx context.Context, ref string, mode application.ResetMode) error {
	return o.mutate(ctx, "reset", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.Reset(ctx, path, ref, mode)
		},
		func() *domain.GitOperation {
			// ORIG_HEAD is set by reset itself. Worktree content destroyed
			// by a hard reset is not recoverable this way; the inverse only
			// restores the ref position.
			return newOp(domain.OpReset, fmt.Sprintf("reset --%s %s", mode, ref),
				[]string{"reset", "--hard", "ORIG_HEAD"}, nil)
		})
}

// Revert creates a commit undoing the given commit.
func (o *Orchestrator) Revert(ctx context.Context, commit string) error {
	return o.mutate(ctx, "revert", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.Revert(ctx, path, commit)
		},
		func() *domain.GitOperation {
			return newOp(domain.OpRevert, "revert "+commit,
				[]string{"reset", "--hard", "HEAD~1"}, nil)
		})
}

// Rebase rebases the current branch onto the given ref. Not recorded:
// a rebase rewrites an unbounded number of commits and has no single
// inverse command.
func (o *Orchestrator) Rebase(ctx context.Context, onto string) error {
	return o.mutate(ctx, "rebase", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.Rebase(ctx, path, onto)
		}, nil)
}

// CherryPick applies commit onto the current branch.
func (o *Orchestrator) CherryPick(ctx context.Context, commit string) error {
	return o.mutate(ctx, "cherry-pick", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.CherryPick(ctx, path, commit)
		},
		func() *domain.GitOperation {
			return newOp(domain.OpCherryPick, "cherry-pick "+commit,
				[]string{"reset", "--hard", "HEAD~1"}, nil)
		})
}

// CreateTag creates a lightweight tag at target (HEAD if empty).
func (o *Orchestrator) CreateTag(ctx context.Context, name, target string) error {
	return o.mutate(ctx, "create-tag", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.CreateTag(ctx, path, name, target)
		},
		func() *domain.GitOperation {
			return newOp(domain.OpTagCreate, "create tag "+name,
				[]string{"tag", "-d", name},
				domain.TagCreateRedo{Name: name, Target: target})
		})
}

// DeleteTag deletes a tag.
func (o *Orchestrator) DeleteTag(ctx context.Context, name string) error {
	var target string
	return o.mutate(ctx, "delete-tag", refreshFull,
		func(ctx context.Context, path string) error {
			if res, err := o.runner.Run(ctx, path, "rev-parse", "--verify", "refs/tags/"+name); err == nil {
				target = strings.TrimSpace(res.Stdout)
			}
			return o.engine.DeleteTag(ctx, path, name)
		},
		func() *domain.GitOperation {
			inverse := []string{"tag", name}
			if target != "" {
				inverse = append(inverse, target)
			}
			return newOp(domain.OpTagDelete, "delete tag "+name,
				inverse, domain.TagDeleteRedo{Name: name})
		})
}

// StashSave stashes the working tree.
func (o *Orchestrator) StashSave(ctx context.Context, message string, includeUntracked bool) error {
	return o.mutate(ctx, "stash-save", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.StashSave(ctx, path, message, includeUntracked)
		},
		func() *domain.GitOperation {
			return newOp(domain.OpStashCreate, "stash changes",
				[]string{"stash", "pop"}, domain.StashCreateRedo{Message: message})
		})
}

// StashPop applies and drops the stash at index.
func (o *Orchestrator) StashPop(ctx context.Context, index int) error {
	return o.mutate(ctx, "stash-pop", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.StashPop(ctx, path, index)
		},
		func() *domain.GitOperation {
			// Re-stashing approximates the inverse: the restored changes go
			// back to a stash, though at index 0 rather than the original.
			return newOp(domain.OpStashPop, fmt.Sprintf("pop stash@{%d}", index),
				[]string{"stash", "push"}, nil)
		})
}

// StashApply applies the stash at index without dropping it. Not
// recorded: applying is additive and the stash entry itself survives.
func (o *Orchestrator) StashApply(ctx context.Context, index int) error {
	return o.mutate(ctx, "stash-apply", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.StashApply(ctx, path, index)
		}, nil)
}

// StashDrop deletes the stash at index. Destructive, not recorded.
func (o *Orchestrator) StashDrop(ctx context.Context, index int) error {
	return o.mutate(ctx, "stash-drop", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.StashDrop(ctx, path, index)
		}, nil)
}

// Fetch downloads from a remote (all remotes if empty).
func (o *Orchestrator) Fetch(ctx context.Context, remote string) error {
	return o.mutate(ctx, "fetch", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.Fetch(ctx, path, remote)
		}, nil)
}

// Pull downloads and integrates without auto-stash handling. Fails if
// the worktree state blocks the merge; callers wanting the stash dance
// use PullWithAutoStash.
func (o *Orchestrator) Pull(ctx context.Context, opts application.PullOptions) error {
	return o.mutate(ctx, "pull-plain", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.Pull(ctx, path, opts)
		}, nil)
}

// Push uploads the current branch.
func (o *Orchestrator) Push(ctx context.Context, opts application.PushOptions) error {
	return o.mutate(ctx, "push", refreshFull,
		func(ctx context.Context, path string) error {
			return o.engine.Push(ctx, path, opts)
		}, nil)
}

func describeFiles(verb string, files []string) string {
	switch len(files) {
	case 0:
		return verb
	case 1:
		return verb + " " + files[0]
	default:
		return fmt.Sprintf("%s %d files", verb, len(files))
	}
}

// summarize truncates a commit message to its subject line.
func summarize(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		message = message[:idx]
	}
	if len(message) > 72 {
		message = message[:72]
	}
	return "commit: " + message
}

// runInverse executes an undo inverse argv against the active repository.
func (o *Orchestrator) runInverse(ctx context.Context, args []string) error {
	o.mu.Lock()
	if o.active == nil {
		o.mu.Unlock()
		return domain.ErrNoActiveRepository
	}
	path := o.active.Path
	o.mu.Unlock()

	_, err := o.runner.Run(ctx, path, args...)
	return err
}

// runRedo re-executes an operation's forward effect from its payload.
// The type switch is exhaustive over the payload variants; operations
// recorded without a payload never reach here.
func (o *Orchestrator) runRedo(ctx context.Context, op domain.GitOperation) error {
	o.mu.Lock()
	if o.active == nil {
		o.mu.Unlock()
		return domain.ErrNoActiveRepository
	}
	path := o.active.Path
	o.mu.Unlock()

	switch p := op.Redo.(type) {
	case domain.StageRedo:
		return o.engine.Stage(ctx, path, p.Files)
	case domain.UnstageRedo:
		return o.engine.Unstage(ctx, path, p.Files)
	case domain.CheckoutRedo:
		return o.engine.Checkout(ctx, path, p.Ref)
	case domain.BranchCreateRedo:
		return o.engine.CreateBranch(ctx, path, p.Name, p.StartPoint)
	case domain.BranchDeleteRedo:
		return o.engine.DeleteBranch(ctx, path, p.Name, true)
	case domain.TagCreateRedo:
		return o.engine.CreateTag(ctx, path, p.Name, p.Target)
	case domain.TagDeleteRedo:
		return o.engine.DeleteTag(ctx, path, p.Name)
	case domain.StashCreateRedo:
		return o.engine.StashSave(ctx, path, p.Message, true)
	default:
		return domain.ErrRedoNotSupported
	}
}

// Undo reverses the most recent recorded operation, then resyncs.
func (o *Orchestrator) Undo(ctx context.Context) (domain.GitOperation, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.undo")
	defer span.End()

	o.mu.Lock()
	l := o.undoLog
	o.mu.Unlock()
	if l == nil {
		return domain.GitOperation{}, domain.ErrNoActiveRepository
	}

	op, err := l.Undo(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.GitOperation{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if rerr := o.refreshLocked(ctx); rerr != nil {
		log.ErrorErr(log.CatOrch, "refresh after undo failed", rerr)
	}
	return op, nil
}

// Redo re-executes the most recently undone operation, then resyncs.
func (o *Orchestrator) Redo(ctx context.Context) (domain.GitOperation, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.redo")
	defer span.End()

	o.mu.Lock()
	l := o.undoLog
	o.mu.Unlock()
	if l == nil {
		return domain.GitOperation{}, domain.ErrNoActiveRepository
	}

	op, err := l.Redo(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.GitOperation{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if rerr := o.refreshLocked(ctx); rerr != nil {
		log.ErrorErr(log.CatOrch, "refresh after redo failed", rerr)
	}
	return op, nil
}

// CanUndo reports whether an undo is available.
func (o *Orchestrator) CanUndo() bool {
	o.mu.Lock()
	l := o.undoLog
	o.mu.Unlock()
	return l != nil && l.CanUndo()
}

// CanRedo reports whether a redo is available.
func (o *Orchestrator) CanRedo() bool {
	o.mu.Lock()
	l := o.undoLog
	o.mu.Unlock()
	return l != nil && l.CanRedo()
}

// History returns the undo stack, oldest first.
func (o *Orchestrator) History() []domain.GitOperation {
	o.mu.Lock()
	l := o.undoLog
	o.mu.Unlock()
	if l == nil {
		return nil
	}
	return l.UndoEntries()
}
