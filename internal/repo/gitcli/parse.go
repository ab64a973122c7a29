package gitcli

import (
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// unit separator used in --format strings; cannot appear in ref names.
const fieldSep = "\x1f"

// parseStatus parses `git status --porcelain` output. Each line is
// "XY path" where X is the index status and Y the worktree status.
func parseStatus(out string) domain.RepositoryStatus {
	var status domain.RepositoryStatus

	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := line[3:]

		// Renames are reported as "R  old -> new"; the new path is the
		// one callers act on.
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}

		if code == "??" {
			status.Untracked = append(status.Untracked, path)
			continue
		}
		if code[0] != ' ' && code[0] != '?' {
			status.Staged = append(status.Staged, domain.StatusFile{Path: path, Status: code})
		}
		if code[1] != ' ' && code[1] != '?' {
			status.Unstaged = append(status.Unstaged, domain.StatusFile{Path: path, Status: code})
		}
	}
	return status
}

// parseBranches parses for-each-ref output with fields
// name, upstream, track, head-marker.
func parseBranches(out string) []domain.Branch {
	var branches []domain.Branch

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, fieldSep)
		if len(fields) < 4 {
			continue
		}
		ahead, behind := parseTrack(fields[2])
		branches = append(branches, domain.Branch{
			Name:      fields[0],
			Upstream:  fields[1],
			Ahead:     ahead,
			Behind:    behind,
			IsCurrent: fields[3] == "*",
		})
	}
	return branches
}

// parseTrack parses "[ahead 2, behind 1]", "[ahead 2]", "[behind 1]",
// "[gone]" or "".
func parseTrack(track string) (ahead, behind int) {
	track = strings.Trim(track, "[]")
	for _, part := range strings.Split(track, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "ahead "):
			ahead, _ = strconv.Atoi(strings.TrimPrefix(part, "ahead "))
		case strings.HasPrefix(part, "behind "):
			behind, _ = strconv.Atoi(strings.TrimPrefix(part, "behind "))
		}
	}
	return ahead, behind
}

// parseRemoteBranches parses for-each-ref refs/remotes output, skipping
// the symbolic HEAD entries ("origin/HEAD").
func parseRemoteBranches(out string) []domain.RemoteBranch {
	var branches []domain.RemoteBranch

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasSuffix(name, "/HEAD") {
			continue
		}
		remote := name
		if idx := strings.Index(name, "/"); idx > 0 {
			remote = name[:idx]
		}
		branches = append(branches, domain.RemoteBranch{Name: name, Remote: remote})
	}
	return branches
}

// parseTags parses for-each-ref refs/tags output with fields name, target.
func parseTags(out string) []domain.Tag {
	var tags []domain.Tag

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, fieldSep)
		if len(fields) < 2 {
			continue
		}
		tags = append(tags, domain.Tag{Name: fields[0], Target: fields[1]})
	}
	return tags
}

// parseRemotes parses `git remote -v` output:
// "origin<TAB>url (fetch)" / "origin<TAB>url (push)".
func parseRemotes(out string) []domain.Remote {
	byName := make(map[string]*domain.Remote)
	var order []string

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			continue
		}
		name := line[:tab]
		rest := line[tab+1:]

		r, ok := byName[name]
		if !ok {
			r = &domain.Remote{Name: name}
			byName[name] = r
			order = append(order, name)
		}
		switch {
		case strings.HasSuffix(rest, " (fetch)"):
			r.FetchURL = strings.TrimSuffix(rest, " (fetch)")
		case strings.HasSuffix(rest, " (push)"):
			r.PushURL = strings.TrimSuffix(rest, " (push)")
		}
	}

	remotes := make([]domain.Remote, 0, len(order))
	for _, name := range order {
		remotes = append(remotes, *byName[name])
	}
	return remotes
}

// parseStashes parses stash list output with fields
// "stash@{N}", unix timestamp, subject.
func parseStashes(out string) []domain.Stash {
	var stashes []domain.Stash

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, fieldSep)
		if len(fields) < 3 {
			continue
		}

		ref := fields[0]
		if !strings.HasPrefix(ref, "stash@{") || !strings.HasSuffix(ref, "}") {
			continue
		}
		index, err := strconv.Atoi(ref[len("stash@{") : len(ref)-1])
		if err != nil {
			continue
		}

		var created time.Time
		if ts, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			created = time.Unix(ts, 0)
		}

		stashes = append(stashes, domain.Stash{
			Index:     index,
			Message:   fields[2],
			CreatedAt: created,
		})
	}
	return stashes
}
