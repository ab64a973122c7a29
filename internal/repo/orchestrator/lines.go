package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/gitdeck/internal/repo/application"
	"github.com/zjrosen/gitdeck/internal/repo/domain"
	"github.com/zjrosen/gitdeck/internal/repo/patch"
)

// Line- and hunk-granular staging. Every operation re-reads the diff
// fresh before synthesizing a patch: hunk coordinates from an earlier
// read may no longer match the file and git apply would reject them.

// StageHunk stages one hunk of a file's unstaged diff.
func (o *Orchestrator) StageHunk(ctx context.Context, file string, hunkIndex int) error {
	return o.applyHunk(ctx, "stage-hunk", file, hunkIndex, false, application.PatchStage)
}

// UnstageHunk removes one hunk of a file's staged diff from the index.
func (o *Orchestrator) UnstageHunk(ctx context.Context, file string, hunkIndex int) error {
	return o.applyHunk(ctx, "unstage-hunk", file, hunkIndex, true, application.PatchUnstage)
}

// DiscardHunk throws away one hunk of a file's unstaged diff. Destructive.
func (o *Orchestrator) DiscardHunk(ctx context.Context, file string, hunkIndex int) error {
	return o.applyHunk(ctx, "discard-hunk", file, hunkIndex, false, application.PatchDiscard)
}

// StageLine stages a single changed line of a file's unstaged diff.
func (o *Orchestrator) StageLine(ctx context.Context, file string, hunkIndex, lineIndex int) error {
	return o.applyLine(ctx, "stage-line", file, hunkIndex, lineIndex, false, application.PatchStage)
}

// UnstageLine removes a single changed line from the index.
func (o *Orchestrator) UnstageLine(ctx context.Context, file string, hunkIndex, lineIndex int) error {
	return o.applyLine(ctx, "unstage-line", file, hunkIndex, lineIndex, true, application.PatchUnstage)
}

// DiscardLine throws away a single changed line of a file's unstaged
// diff. Destructive.
func (o *Orchestrator) DiscardLine(ctx context.Context, file string, hunkIndex, lineIndex int) error {
	return o.applyLine(ctx, "discard-line", file, hunkIndex, lineIndex, false, application.PatchDiscard)
}

func (o *Orchestrator) applyHunk(ctx context.Context, name, file string, hunkIndex int, staged bool, mode application.PatchMode) error {
	return o.applyPatch(ctx, name, file, staged, mode, func(fd domain.FileDiff) (string, error) {
		if hunkIndex < 0 || hunkIndex >= len(fd.Hunks) {
			return "", fmt.Errorf("hunk %d out of range for %s (%d hunks)", hunkIndex, file, len(fd.Hunks))
		}
		return patch.BuildHunkPatch(fd, fd.Hunks[hunkIndex])
	})
}

func (o *Orchestrator) applyLine(ctx context.Context, name, file string, hunkIndex, lineIndex int, staged bool, mode application.PatchMode) error {
	// Unstage and discard both apply in reverse, so the patch keeps the
	// unselected additions as context instead of the deletions.
	reverse := mode != application.PatchStage
	return o.applyPatch(ctx, name, file, staged, mode, func(fd domain.FileDiff) (string, error) {
		if hunkIndex < 0 || hunkIndex >= len(fd.Hunks) {
			return "", fmt.Errorf("hunk %d out of range for %s (%d hunks)", hunkIndex, file, len(fd.Hunks))
		}
		return patch.BuildLinePatch(fd, fd.Hunks[hunkIndex], lineIndex, reverse)
	})
}

// applyPatch reads the current diff for file, synthesizes a patch via
// build, applies it and re-derives status. Patch operations touch only
// the index and worktree, never refs, so the narrow refresh suffices.
func (o *Orchestrator) applyPatch(ctx context.Context, name, file string, staged bool, mode application.PatchMode, build func(domain.FileDiff) (string, error)) error {
	ctx, span := o.tracer.Start(ctx, "orchestrator."+name)
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil {
		return domain.ErrNoActiveRepository
	}
	path := o.active.Path

	err := func() error {
		diffs, err := o.engine.GetDiff(ctx, path, file, staged)
		if err != nil {
			return err
		}
		fd, ok := findFile(diffs, file)
		if !ok {
			return fmt.Errorf("no %s changes for %s", diffLabel(staged), file)
		}
		text, err := build(fd)
		if err != nil {
			return err
		}
		return o.engine.ApplyPatch(ctx, path, text, mode)
	}()
	if err != nil {
		var patchErr *domain.PatchApplyError
		if errors.As(err, &patchErr) && patchErr.FilePath == "" {
			patchErr.FilePath = file
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return o.refreshStatusLocked(ctx)
}

// UnstageAndDiscardFile removes a file's staged changes and then throws
// them away from the worktree as well. Two sequential operations; if the
// discard fails the unstage is not rolled back and the changes remain in
// the worktree.
func (o *Orchestrator) UnstageAndDiscardFile(ctx context.Context, file string) error {
	ctx, span := o.tracer.Start(ctx, "orchestrator.unstage-discard")
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil {
		return domain.ErrNoActiveRepository
	}
	path := o.active.Path

	if err := o.engine.Unstage(ctx, path, []string{file}); err != nil {
		span.RecordError(err)
		return err
	}
	if err := o.engine.DiscardChanges(ctx, path, []string{file}); err != nil {
		span.RecordError(err)
		return err
	}
	return o.refreshStatusLocked(ctx)
}

func findFile(diffs []domain.FileDiff, file string) (domain.FileDiff, bool) {
	for _, fd := range diffs {
		if fd.Path == file || fd.OldPath == file {
			return fd, true
		}
	}
	return domain.FileDiff{}, false
}

func diffLabel(staged bool) string {
	if staged {
		return "staged"
	}
	return "unstaged"
}
