package watcher

import (
	"path/filepath"
	"strings"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// classify maps one filesystem event path (relative to the .git directory)
// to a change signal. Priority order, first match wins: status, head, refs,
// stash, config. Anything unclassifiable resolves to SignalFull.
func classify(rel string) domain.ChangeSignal {
	rel = filepath.ToSlash(rel)

	switch {
	case rel == "index" || rel == "index.lock":
		return domain.SignalStatus
	case rel == "HEAD" || rel == "HEAD.lock":
		return domain.SignalHead
	case rel == "refs/stash" || rel == "logs/refs/stash":
		return domain.SignalStash
	case strings.HasPrefix(rel, "refs/heads/"),
		strings.HasPrefix(rel, "refs/remotes/"),
		rel == "packed-refs", rel == "packed-refs.lock",
		rel == "FETCH_HEAD", rel == "FETCH_HEAD.lock":
		// FETCH_HEAD is rewritten on every fetch, which is also when
		// remote-tracking refs may have moved.
		return domain.SignalRefs
	case rel == "config" || rel == "config.lock":
		return domain.SignalConfig
	default:
		return domain.SignalFull
	}
}

// ignorable reports event paths that carry no repository-state meaning and
// would only force needless full refreshes. Object writes accompany every
// commit that already touches HEAD/refs, and editor message files are
// scratch space.
func ignorable(rel string) bool {
	rel = filepath.ToSlash(rel)

	if strings.HasPrefix(rel, "objects/") {
		return true
	}
	switch rel {
	case "COMMIT_EDITMSG", "MERGE_MSG", "TAG_EDITMSG", "SQUASH_MSG":
		return true
	}
	return false
}
