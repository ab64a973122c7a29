package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveRepository indicates an operation was invoked with no
	// repository open. Reported before any subprocess is spawned.
	ErrNoActiveRepository = errors.New("no active repository")

	// ErrNotGitRepo indicates the path is not inside a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrRedoNotSupported indicates the operation type cannot be redone.
	ErrRedoNotSupported = errors.New("redo not supported for this operation")

	// ErrLineOutOfRange indicates the requested line index is not a
	// change line within the hunk.
	ErrLineOutOfRange = errors.New("line index out of range for hunk")
)

// PatchApplyError indicates a synthesized patch was rejected by git apply,
// typically because the hunk went stale between diff and apply. It is
// distinct from a generic command failure so callers can suggest
// "refresh and retry" instead of a generic error.
type PatchApplyError struct {
	FilePath string
	Mode     string // "stage", "unstage", "discard"
	Stderr   string
}

func (e *PatchApplyError) Error() string {
	return fmt.Sprintf("patch apply failed (%s) for %s: %s", e.Mode, e.FilePath, e.Stderr)
}
