package patch

import (
	"fmt"
	"strings"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// BuildHunkPatch renders a complete, applicable patch containing exactly
// one hunk, unmodified. The same fragment serves all modes: stage applies
// it forward against the index, unstage/discard apply it with -R.
func BuildHunkPatch(file domain.FileDiff, hunk domain.DiffHunk) (string, error) {
	if len(hunk.Lines) == 0 {
		return "", fmt.Errorf("empty hunk for %s", file.Path)
	}
	return render(file, hunk), nil
}

// BuildLinePatch renders a patch fragment containing only the single
// change line at lineIndex within the hunk, with surrounding context
// preserved and the hunk header counts adjusted to the reduced content.
//
// reverse selects which side of the diff the patch will be applied
// against. A forward patch (stage) applies against the index, so
// unselected deletions stay as context (they are still present there) and
// unselected additions are dropped (they are not). A reverse patch
// (unstage, discard) applies with -R against content that already carries
// the change, so the roles swap: unselected additions become context and
// unselected deletions are dropped.
func BuildLinePatch(file domain.FileDiff, hunk domain.DiffHunk, lineIndex int, reverse bool) (string, error) {
	if lineIndex < 0 || lineIndex >= len(hunk.Lines) {
		return "", domain.ErrLineOutOfRange
	}
	if hunk.Lines[lineIndex].Kind == domain.LineContext {
		return "", domain.ErrLineOutOfRange
	}

	reduced := domain.DiffHunk{
		FilePath: hunk.FilePath,
		OldStart: hunk.OldStart,
		NewStart: hunk.NewStart,
		Header:   hunk.Header,
	}

	for i, ln := range hunk.Lines {
		switch {
		case i == lineIndex:
			reduced.Lines = append(reduced.Lines, ln)
		case ln.Kind == domain.LineContext:
			reduced.Lines = append(reduced.Lines, ln)
		case ln.Kind == domain.LineDeletion && !reverse:
			// Still present in the apply target; demote to context.
			reduced.Lines = append(reduced.Lines, domain.DiffLine{
				Kind: domain.LineContext, Content: ln.Content, NoEOL: ln.NoEOL,
			})
		case ln.Kind == domain.LineAddition && reverse:
			reduced.Lines = append(reduced.Lines, domain.DiffLine{
				Kind: domain.LineContext, Content: ln.Content, NoEOL: ln.NoEOL,
			})
		default:
			// Not part of this patch's universe; drop.
		}
	}

	recount(&reduced, hunk, reverse)
	return render(file, reduced), nil
}

// recount recomputes the hunk header's line-count fields from the reduced
// content. The side the patch will be matched against keeps the original
// hunk's start (old side for forward application, new side for -R); the
// other side is derived. An empty side must never claim a non-zero count,
// and its start shifts to the line before the change, matching git's own
// convention (e.g. "@@ -5,3 +4,0 @@" for a pure deletion).
func recount(h *domain.DiffHunk, orig domain.DiffHunk, reverse bool) {
	oldCount, newCount := 0, 0
	for _, ln := range h.Lines {
		switch ln.Kind {
		case domain.LineContext:
			oldCount++
			newCount++
		case domain.LineDeletion:
			oldCount++
		case domain.LineAddition:
			newCount++
		}
	}
	h.OldLines = oldCount
	h.NewLines = newCount

	if !reverse {
		h.OldStart = orig.OldStart
		if oldCount == 0 && orig.OldLines > 0 {
			h.OldStart = max(orig.OldStart-1, 0)
		}
		h.NewStart = h.OldStart
		if newCount == 0 {
			h.NewStart = max(h.OldStart-1, 0)
		} else if oldCount == 0 {
			// Insertion-only hunk: old start names the line before the
			// insertion point, new content begins on the next line.
			h.NewStart = h.OldStart + 1
		}
		return
	}

	h.NewStart = orig.NewStart
	if newCount == 0 && orig.NewLines > 0 {
		h.NewStart = max(orig.NewStart-1, 0)
	}
	h.OldStart = h.NewStart
	if oldCount == 0 {
		h.OldStart = max(h.NewStart-1, 0)
	}
}

// render produces the final patch text: file header, hunk header, lines.
func render(file domain.FileDiff, hunk domain.DiffHunk) string {
	var b strings.Builder

	path := file.Path
	oldPath := file.OldPath
	if oldPath == "" {
		oldPath = path
	}

	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", oldPath, path)
	if file.IsNew {
		b.WriteString("--- /dev/null\n")
	} else {
		fmt.Fprintf(&b, "--- a/%s\n", oldPath)
	}
	if file.IsDeleted {
		b.WriteString("+++ /dev/null\n")
	} else {
		fmt.Fprintf(&b, "+++ b/%s\n", path)
	}

	fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@", hunk.OldStart, hunk.OldLines, hunk.NewStart, hunk.NewLines)
	if hunk.Header != "" {
		b.WriteString(" ")
		b.WriteString(hunk.Header)
	}
	b.WriteString("\n")

	for _, ln := range hunk.Lines {
		switch ln.Kind {
		case domain.LineAddition:
			b.WriteString("+")
		case domain.LineDeletion:
			b.WriteString("-")
		case domain.LineContext:
			b.WriteString(" ")
		}
		b.WriteString(ln.Content)
		b.WriteString("\n")
		if ln.NoEOL {
			b.WriteString("\\ No newline at end of file\n")
		}
	}

	return b.String()
}
