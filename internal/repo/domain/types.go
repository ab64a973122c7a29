// Package domain provides value types for repository state.
package domain

import (
	"strconv"
	"time"
)

// RepositoryContext is the in-memory view of one open repository. It is
// replaced wholesale on every refresh and never mutated in place.
type RepositoryContext struct {
	Path          string // absolute path to the working tree; unique key
	CurrentBranch string
	Status        RepositoryStatus
	OpenedAt      time.Time
}

// RepositoryStatus holds the staged and unstaged file lists.
type RepositoryStatus struct {
	Staged    []StatusFile
	Unstaged  []StatusFile
	Untracked []string
}

// IsClean reports whether the working tree has no pending changes.
func (s RepositoryStatus) IsClean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0
}

// StatusFile is one entry from git status.
type StatusFile struct {
	Path   string
	Status string // porcelain XY code, e.g. "M.", ".M", "A."
}

// Branch is a read-only snapshot of a local branch.
type Branch struct {
	Name      string
	Upstream  string // tracking ref, e.g. "origin/main"; empty if none
	Ahead     int
	Behind    int
	IsCurrent bool
}

// RemoteBranch is a read-only snapshot of a remote-tracking branch.
type RemoteBranch struct {
	Name   string // e.g. "origin/feature/auth"
	Remote string // e.g. "origin"
}

// Tag is an immutable tag record.
type Tag struct {
	Name   string
	Target string // abbreviated commit hash
}

// Remote is an immutable remote record.
type Remote struct {
	Name     string
	FetchURL string
	PushURL  string
}

// Stash is one stash entry. The Index is positional: it shifts after any
// pop or drop, so callers must re-list before referencing by index again.
type Stash struct {
	Index     int
	Message   string
	CreatedAt time.Time
}

// Ref returns the positional stash reference, e.g. "stash@{0}".
func (s Stash) Ref() string {
	return "stash@{" + strconv.Itoa(s.Index) + "}"
}

// PullResult reports the composite outcome of an auto-stash pull. Partial
// outcomes like "pull succeeded but the stash pop hit conflicts" are valid
// end states and are reported as facts, not errors.
type PullResult struct {
	HadLocalChanges bool
	DidStash        bool
	StashApplied    bool
	StashConflict   bool
}
