package orchestrator

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/gitdeck/internal/gitexec"
	"github.com/zjrosen/gitdeck/internal/log"
	"github.com/zjrosen/gitdeck/internal/repo/application"
	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// autoStashMessage marks stashes created by the pull flow so they are
// recognizable in the stash list if a pop ever fails.
const autoStashMessage = "gitdeck: auto-stash before pull"

// PullWithAutoStash pulls from the remote, stashing local changes first
// when the worktree is dirty and popping them back afterwards. The
// returned result reports what actually happened regardless of error:
// a pull can succeed while the pop conflicts, and callers need both
// facts to tell the user where their changes went.
func (o *Orchestrator) PullWithAutoStash(ctx context.Context, opts application.PullOptions) (domain.PullResult, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.pull")
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	var result domain.PullResult

	if o.active == nil {
		return result, domain.ErrNoActiveRepository
	}
	path := o.active.Path

	status, err := o.engine.GetStatus(ctx, path)
	if err != nil {
		span.RecordError(err)
		return result, err
	}
	result.HadLocalChanges = !status.IsClean()

	if result.HadLocalChanges {
		if err := o.engine.StashSave(ctx, path, autoStashMessage, true); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "auto-stash failed")
			return result, err
		}
		result.DidStash = true
	}

	pullErr := o.engine.Pull(ctx, path, opts)
	if pullErr != nil {
		span.RecordError(pullErr)
		span.SetStatus(codes.Error, "pull failed")
		// Best-effort restore of the stashed changes. A failure here is
		// logged and discarded: the changes are still safe in the stash
		// and surfacing a second error would bury the pull failure.
		if result.DidStash {
			if popErr := o.engine.StashPop(ctx, path, 0); popErr != nil {
				log.ErrorErr(log.CatOrch, "auto-stash pop after failed pull; changes remain stashed", popErr,
					"repo", path)
			} else {
				result.StashApplied = true
			}
		}
		if rerr := o.refreshLocked(ctx); rerr != nil {
			log.ErrorErr(log.CatOrch, "refresh after failed pull", rerr)
		}
		return result, pullErr
	}

	if result.DidStash {
		if popErr := o.engine.StashPop(ctx, path, 0); popErr != nil {
			if isStashConflict(popErr) {
				// git applied the stash with conflict markers and kept the
				// entry. The pull itself succeeded, so this is reported
				// through the result, not as an operation failure.
				result.StashConflict = true
				log.Warn(log.CatOrch, "auto-stash pop conflicted; stash entry retained", "repo", path)
			} else {
				log.ErrorErr(log.CatOrch, "auto-stash pop failed; changes remain stashed", popErr,
					"repo", path)
			}
		} else {
			result.StashApplied = true
		}
	}

	if err := o.refreshLocked(ctx); err != nil {
		span.RecordError(err)
		return result, err
	}
	return result, nil
}

// isStashConflict reports whether a stash pop failed because the
// restored changes conflicted with the pulled ones.
func isStashConflict(err error) bool {
	var cmdErr *gitexec.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	return strings.Contains(stderr, "conflict") || strings.Contains(stderr, "overwritten by merge")
}
