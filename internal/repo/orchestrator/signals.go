package orchestrator

import (
	"context"

	"github.com/zjrosen/gitdeck/internal/log"
	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// HandleChangeSignal reacts to a debounced filesystem signal by
// refreshing exactly the state the signal implicates. The mapping is
// deliberately conservative: anything ambiguous escalates to a full
// refresh rather than risking a stale view.
func (o *Orchestrator) HandleChangeSignal(ctx context.Context, sig domain.ChangeSignal) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil {
		// Signal raced with Close; nothing to update.
		return nil
	}

	log.Debug(log.CatOrch, "change signal", "repo", o.active.Path, "signal", sig.String())

	switch sig {
	case domain.SignalStatus, domain.SignalHead:
		// HEAD moves also change status (different base for the diff), so
		// both funnel into the status path, which re-reads the current
		// branch as well.
		return o.refreshStatusLocked(ctx)

	case domain.SignalRefs:
		o.branches.Invalidate()
		o.remoteBranches.Invalidate()
		o.tags.Invalidate()
		o.broker.Publish(ChangeEvent{RepoPath: o.active.Path})
		return nil

	case domain.SignalStash:
		o.stashes.Invalidate()
		o.broker.Publish(ChangeEvent{RepoPath: o.active.Path})
		return nil

	case domain.SignalConfig:
		o.remotes.Invalidate()
		o.broker.Publish(ChangeEvent{RepoPath: o.active.Path})
		return nil

	default:
		return o.refreshLocked(ctx)
	}
}
