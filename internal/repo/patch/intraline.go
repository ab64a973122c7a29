package patch

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// AnnotateIntraline fills in word-level change segments for paired
// deletion/addition lines in a hunk. Within each block of consecutive
// deletions followed by consecutive additions, the i-th deletion is paired
// with the i-th addition and character-diffed; unpaired lines get no
// annotation. The hunk is modified in place.
func AnnotateIntraline(hunk *domain.DiffHunk) {
	dmp := diffmatchpatch.New()

	i := 0
	for i < len(hunk.Lines) {
		if hunk.Lines[i].Kind != domain.LineDeletion {
			i++
			continue
		}

		delStart := i
		for i < len(hunk.Lines) && hunk.Lines[i].Kind == domain.LineDeletion {
			i++
		}
		addStart := i
		for i < len(hunk.Lines) && hunk.Lines[i].Kind == domain.LineAddition {
			i++
		}

		pairs := min(addStart-delStart, i-addStart)
		for p := 0; p < pairs; p++ {
			del := &hunk.Lines[delStart+p]
			add := &hunk.Lines[addStart+p]
			annotatePair(dmp, del, add)
		}
	}
}

// annotatePair computes character diffs between a deletion line and its
// paired addition line and records changed runs on both.
func annotatePair(dmp *diffmatchpatch.DiffMatchPatch, del, add *domain.DiffLine) {
	diffs := dmp.DiffMain(del.Content, add.Content, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	delOff, addOff := 0, 0
	for _, d := range diffs {
		n := len(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			del.Intraline = append(del.Intraline, domain.IntralineSegment{Start: delOff, End: delOff + n})
			add.Intraline = append(add.Intraline, domain.IntralineSegment{Start: addOff, End: addOff + n})
			delOff += n
			addOff += n
		case diffmatchpatch.DiffDelete:
			del.Intraline = append(del.Intraline, domain.IntralineSegment{Start: delOff, End: delOff + n, Changed: true})
			delOff += n
		case diffmatchpatch.DiffInsert:
			add.Intraline = append(add.Intraline, domain.IntralineSegment{Start: addOff, End: addOff + n, Changed: true})
			addOff += n
		}
	}
}
