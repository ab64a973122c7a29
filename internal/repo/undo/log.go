// Package undo implements the operation log: a bounded undo/redo history
// of mutating git operations recorded as invertible commands.
package undo

import (
	"context"
	"sync"

	"github.com/zjrosen/gitdeck/internal/log"
	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// DefaultCap bounds the undo stack. Oldest entries are dropped silently
// when exceeded; old history is not reconstructible and that is an
// accepted limitation, not a bug.
const DefaultCap = 50

// CommandFunc executes a git argument vector against the repository.
// Used to run an operation's inverse command.
type CommandFunc func(ctx context.Context, args []string) error

// RedoFunc re-executes an operation's forward effect from its typed
// payload. Returns domain.ErrRedoNotSupported for payload types the
// implementation cannot replay.
type RedoFunc func(ctx context.Context, op domain.GitOperation) error

// Journal receives an audit record for every stack transition. Journal
// failures are logged and discarded; the in-memory stacks are the source
// of truth for what can be undone.
type Journal interface {
	Append(op domain.GitOperation, action string) error
}

// Config configures a Log.
type Config struct {
	Cap        int // 0 means DefaultCap
	RunCommand CommandFunc
	RunRedo    RedoFunc
	Journal    Journal // optional
}

// Log is the undo/redo state machine: two stacks whose contents never
// desynchronize from what actually happened on disk. A failed inverse
// command leaves the operation on the undo stack; a new recorded
// operation clears the redo stack (linear history, no branching).
type Log struct {
	// execMu serializes Undo/Redo end to end; at most one inverse or
	// redo command runs at a time.
	execMu     sync.Mutex
	mu         sync.Mutex
	cap        int
	undo       []domain.GitOperation
	redo       []domain.GitOperation
	runCommand CommandFunc
	runRedo    RedoFunc
	journal    Journal
}

// NewLog creates an operation log.
func NewLog(cfg Config) *Log {
	c := cfg.Cap
	if c <= 0 {
		c = DefaultCap
	}
	return &Log{
		cap:        c,
		runCommand: cfg.RunCommand,
		runRedo:    cfg.RunRedo,
		journal:    cfg.Journal,
	}
}

// Record pushes op onto the undo stack and clears the redo stack: new
// history invalidates the old future. Call only after the operation has
// actually succeeded on disk.
func (l *Log) Record(op domain.GitOperation) {
	l.mu.Lock()
	l.undo = append(l.undo, op)
	if len(l.undo) > l.cap {
		l.undo = l.undo[len(l.undo)-l.cap:]
	}
	l.redo = nil
	l.mu.Unlock()

	log.Debug(log.CatUndo, "recorded operation", "type", string(op.Type), "desc", op.Description)
	l.appendJournal(op, "record")
}

// Undo executes the most recent operation's inverse command. On success
// the operation moves to the redo stack; on failure it stays on the undo
// stack unchanged and the error is returned.
func (l *Log) Undo(ctx context.Context) (domain.GitOperation, error) {
	l.execMu.Lock()
	defer l.execMu.Unlock()

	// Pop before executing. A Record landing while the inverse runs must
	// push on top of the remaining stack, not get destroyed by a blind
	// truncation afterwards.
	l.mu.Lock()
	if len(l.undo) == 0 {
		l.mu.Unlock()
		return domain.GitOperation{}, domain.ErrNothingToUndo
	}
	op := l.undo[len(l.undo)-1]
	l.undo = l.undo[:len(l.undo)-1]
	l.mu.Unlock()

	if err := l.runCommand(ctx, op.Inverse); err != nil {
		l.mu.Lock()
		l.undo = append(l.undo, op)
		l.mu.Unlock()
		log.ErrorErr(log.CatUndo, "inverse command failed", err, "type", string(op.Type))
		return domain.GitOperation{}, err
	}

	l.mu.Lock()
	l.redo = append(l.redo, op)
	l.mu.Unlock()

	log.Info(log.CatUndo, "undid operation", "type", string(op.Type), "desc", op.Description)
	l.appendJournal(op, "undo")
	return op, nil
}

// Redo re-executes the most recently undone operation's forward effect.
// Operation types without a redo payload return ErrRedoNotSupported and
// remain on the redo stack.
func (l *Log) Redo(ctx context.Context) (domain.GitOperation, error) {
	l.execMu.Lock()
	defer l.execMu.Unlock()

	l.mu.Lock()
	if len(l.redo) == 0 {
		l.mu.Unlock()
		return domain.GitOperation{}, domain.ErrNothingToRedo
	}
	op := l.redo[len(l.redo)-1]
	if !op.CanRedo() {
		l.mu.Unlock()
		return domain.GitOperation{}, domain.ErrRedoNotSupported
	}
	l.redo = l.redo[:len(l.redo)-1]
	l.mu.Unlock()

	if err := l.runRedo(ctx, op); err != nil {
		l.mu.Lock()
		l.redo = append(l.redo, op)
		l.mu.Unlock()
		log.ErrorErr(log.CatUndo, "redo failed", err, "type", string(op.Type))
		return domain.GitOperation{}, err
	}

	l.mu.Lock()
	l.undo = append(l.undo, op)
	if len(l.undo) > l.cap {
		l.undo = l.undo[len(l.undo)-l.cap:]
	}
	l.mu.Unlock()

	log.Info(log.CatUndo, "redid operation", "type", string(op.Type), "desc", op.Description)
	l.appendJournal(op, "redo")
	return op, nil
}

// CanUndo reports whether the undo stack is non-empty.
func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.redo) > 0
}

// UndoCount returns the undo stack depth.
func (l *Log) UndoCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.undo)
}

// RedoCount returns the redo stack depth.
func (l *Log) RedoCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.redo)
}

// UndoEntries returns a copy of the undo stack, oldest first.
func (l *Log) UndoEntries() []domain.GitOperation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.GitOperation(nil), l.undo...)
}

// appendJournal records a stack transition, discarding failures after
// logging them: the journal is an audit trail, never a gate.
func (l *Log) appendJournal(op domain.GitOperation, action string) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Append(op, action); err != nil {
		log.Warn(log.CatUndo, "journal append failed; continuing", "action", action, "error", err)
	}
}
