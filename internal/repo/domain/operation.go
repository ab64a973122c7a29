package domain

import "time"

// OperationType tags a recorded mutating operation. The set is closed;
// the undo manager matches on it exhaustively.
type OperationType string

const (
	OpCommit       OperationType = "commit"
	OpStage        OperationType = "stage"
	OpUnstage      OperationType = "unstage"
	OpCheckout     OperationType = "checkout"
	OpBranchCreate OperationType = "branch-create"
	OpBranchDelete OperationType = "branch-delete"
	OpMerge        OperationType = "merge"
	OpStashCreate  OperationType = "stash-create"
	OpStashPop     OperationType = "stash-pop"
	OpReset        OperationType = "reset"
	OpRevert       OperationType = "revert"
	OpCherryPick   OperationType = "cherry-pick"
	OpAmend        OperationType = "amend"
	OpTagCreate    OperationType = "tag-create"
	OpTagDelete    OperationType = "tag-delete"
)

// RedoPayload carries the operation-type-specific data needed to re-execute
// a forward operation after an undo. Each variant is strongly typed and
// selected by exhaustive matching on the operation type; operation types
// without a payload variant do not support redo.
type RedoPayload interface {
	redoPayload()
}

// StageRedo re-stages the listed files.
type StageRedo struct{ Files []string }

// UnstageRedo re-unstages the listed files.
type UnstageRedo struct{ Files []string }

// CheckoutRedo checks the ref out again.
type CheckoutRedo struct{ Ref string }

// BranchCreateRedo recreates the branch at its start point.
type BranchCreateRedo struct {
	Name       string
	StartPoint string
}

// BranchDeleteRedo deletes the branch again.
type BranchDeleteRedo struct{ Name string }

// TagCreateRedo recreates the tag at its target.
type TagCreateRedo struct {
	Name   string
	Target string
}

// TagDeleteRedo deletes the tag again.
type TagDeleteRedo struct{ Name string }

// StashCreateRedo re-stashes with the same message.
type StashCreateRedo struct{ Message string }

func (StageRedo) redoPayload()        {}
func (UnstageRedo) redoPayload()      {}
func (CheckoutRedo) redoPayload()     {}
func (BranchCreateRedo) redoPayload() {}
func (BranchDeleteRedo) redoPayload() {}
func (TagCreateRedo) redoPayload()    {}
func (TagDeleteRedo) redoPayload()    {}
func (StashCreateRedo) redoPayload()  {}

// GitOperation records one successful mutating operation as an invertible
// command. Inverse is the git argv that undoes the operation; Redo is the
// optional typed payload for re-executing it.
type GitOperation struct {
	ID          string
	Type        OperationType
	Description string
	Inverse     []string
	Redo        RedoPayload
	Timestamp   time.Time
}

// CanRedo reports whether this operation type carries enough information
// to be re-executed. A commit, for example, cannot be redone: the files
// that went into it are no longer staged.
func (op GitOperation) CanRedo() bool {
	return op.Redo != nil
}
