// Package patch parses unified diffs and synthesizes minimal patch
// fragments for line- and hunk-level staging.
package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// ParseDiff parses `git diff` output into per-file diffs with typed hunks.
// An empty or whitespace-only diff yields no files.
func ParseDiff(text string) ([]domain.FileDiff, error) {
	var files []domain.FileDiff
	var cur *domain.FileDiff
	var hunk *domain.DiffHunk

	flushHunk := func() {
		if cur != nil && hunk != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
		}
		hunk = nil
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			files = append(files, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flushFile()
			cur = &domain.FileDiff{HeaderLines: []string{line}}
			if path, ok := parseGitHeaderPath(line); ok {
				cur.Path = path
				cur.OldPath = path
			}

		case cur == nil:
			// Preamble before the first file header; ignore.

		case strings.HasPrefix(line, "@@ "):
			flushHunk()
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, err
			}
			h.FilePath = cur.Path
			hunk = &h

		case hunk != nil && strings.HasPrefix(line, "+"):
			hunk.Lines = append(hunk.Lines, domain.DiffLine{
				Kind: domain.LineAddition, Content: line[1:],
			})

		case hunk != nil && strings.HasPrefix(line, "-"):
			hunk.Lines = append(hunk.Lines, domain.DiffLine{
				Kind: domain.LineDeletion, Content: line[1:],
			})

		case hunk != nil && strings.HasPrefix(line, " "):
			hunk.Lines = append(hunk.Lines, domain.DiffLine{
				Kind: domain.LineContext, Content: line[1:],
			})

		case hunk != nil && strings.HasPrefix(line, `\`):
			// "\ No newline at end of file" applies to the previous line.
			if n := len(hunk.Lines); n > 0 {
				hunk.Lines[n-1].NoEOL = true
			}

		case hunk != nil && line == "":
			// Blank line between files (or trailing newline of the output).

		default:
			// Extended header lines: index, mode, rename, ---/+++.
			cur.HeaderLines = append(cur.HeaderLines, line)
			switch {
			case strings.HasPrefix(line, "new file mode"):
				cur.IsNew = true
			case strings.HasPrefix(line, "deleted file mode"):
				cur.IsDeleted = true
			case strings.HasPrefix(line, "rename from "):
				cur.OldPath = strings.TrimPrefix(line, "rename from ")
			case strings.HasPrefix(line, "rename to "):
				cur.Path = strings.TrimPrefix(line, "rename to ")
			case strings.HasPrefix(line, "+++ b/"):
				cur.Path = strings.TrimPrefix(line, "+++ b/")
			case strings.HasPrefix(line, "--- a/"):
				cur.OldPath = strings.TrimPrefix(line, "--- a/")
			}
		}
	}
	flushFile()

	return files, nil
}

// parseGitHeaderPath extracts the b-side path from a "diff --git a/x b/y"
// line. Quoted paths (containing spaces or escapes) are left for the
// ---/+++ lines to resolve.
func parseGitHeaderPath(line string) (string, bool) {
	rest := strings.TrimPrefix(line, "diff --git ")
	if strings.HasPrefix(rest, `"`) {
		return "", false
	}
	idx := strings.Index(rest, " b/")
	if idx < 0 || !strings.HasPrefix(rest, "a/") {
		return "", false
	}
	return rest[idx+3:], true
}

// parseHunkHeader parses "@@ -oldStart[,oldLines] +newStart[,newLines] @@ heading".
func parseHunkHeader(line string) (domain.DiffHunk, error) {
	var h domain.DiffHunk

	rest := strings.TrimPrefix(line, "@@ ")
	end := strings.Index(rest, " @@")
	if end < 0 {
		return h, fmt.Errorf("malformed hunk header: %q", line)
	}
	ranges := rest[:end]
	if heading := rest[end+len(" @@"):]; strings.HasPrefix(heading, " ") {
		h.Header = heading[1:]
	}

	parts := strings.Fields(ranges)
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "-") || !strings.HasPrefix(parts[1], "+") {
		return h, fmt.Errorf("malformed hunk ranges: %q", line)
	}

	var err error
	h.OldStart, h.OldLines, err = parseRange(parts[0][1:])
	if err != nil {
		return h, fmt.Errorf("malformed hunk header %q: %w", line, err)
	}
	h.NewStart, h.NewLines, err = parseRange(parts[1][1:])
	if err != nil {
		return h, fmt.Errorf("malformed hunk header %q: %w", line, err)
	}
	return h, nil
}

// parseRange parses "start[,count]"; a missing count means 1.
func parseRange(s string) (start, count int, err error) {
	if comma := strings.Index(s, ","); comma >= 0 {
		start, err = strconv.Atoi(s[:comma])
		if err != nil {
			return 0, 0, err
		}
		count, err = strconv.Atoi(s[comma+1:])
		return start, count, err
	}
	start, err = strconv.Atoi(s)
	return start, 1, err
}
