package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

func sampleFileDiff(t *testing.T) domain.FileDiff {
	t.Helper()
	files, err := ParseDiff(sampleDiff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	return files[0]
}

func TestBuildHunkPatchRoundTrips(t *testing.T) {
	f := sampleFileDiff(t)

	out, err := BuildHunkPatch(f, f.Hunks[0])
	require.NoError(t, err)

	files, err := ParseDiff(out)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, f.Hunks[0].Lines, files[0].Hunks[0].Lines)
	require.Equal(t, f.Hunks[0].OldLines, files[0].Hunks[0].OldLines)
	require.Equal(t, f.Hunks[0].NewLines, files[0].Hunks[0].NewLines)
}

func TestBuildLinePatchStageAddition(t *testing.T) {
	f := sampleFileDiff(t)

	// Index 2 is the +B addition.
	out, err := BuildLinePatch(f, f.Hunks[0], 2, false)
	require.NoError(t, err)

	require.Contains(t, out, "@@ -10,6 +10,7 @@")
	require.Contains(t, out, "+\tfmt.Println(\"B\")")
	require.NotContains(t, out, "+\tfmt.Println(\"C\")")
	// The unselected deletion is demoted to context: still present in the
	// index the patch applies against.
	require.Contains(t, out, " \tfmt.Println(\"b\")")
	require.NotContains(t, out, "-\tfmt.Println(\"b\")")
}

func TestBuildLinePatchStageDeletion(t *testing.T) {
	f := sampleFileDiff(t)

	// Index 1 is the -b deletion.
	out, err := BuildLinePatch(f, f.Hunks[0], 1, false)
	require.NoError(t, err)

	require.Contains(t, out, "@@ -10,6 +10,5 @@")
	require.Contains(t, out, "-\tfmt.Println(\"b\")")
	// Unselected additions do not exist in the index; dropped entirely.
	require.NotContains(t, out, "B")
	require.NotContains(t, out, "C")
}

func TestBuildLinePatchUnstageAddition(t *testing.T) {
	f := sampleFileDiff(t)

	out, err := BuildLinePatch(f, f.Hunks[0], 2, true)
	require.NoError(t, err)

	require.Contains(t, out, "@@ -10,6 +10,7 @@")
	require.Contains(t, out, "+\tfmt.Println(\"B\")")
	// The other addition is present in the staged content the reverse
	// patch matches against, so it becomes context.
	require.Contains(t, out, " \tfmt.Println(\"C\")")
	// Deletions are absent from the staged content; dropped.
	require.NotContains(t, out, "fmt.Println(\"b\")")
}

func TestBuildLinePatchRejectsContextLine(t *testing.T) {
	f := sampleFileDiff(t)

	_, err := BuildLinePatch(f, f.Hunks[0], 0, false)
	require.ErrorIs(t, err, domain.ErrLineOutOfRange)
}

func TestBuildLinePatchRejectsOutOfRange(t *testing.T) {
	f := sampleFileDiff(t)

	_, err := BuildLinePatch(f, f.Hunks[0], 99, false)
	require.ErrorIs(t, err, domain.ErrLineOutOfRange)

	_, err = BuildLinePatch(f, f.Hunks[0], -1, true)
	require.ErrorIs(t, err, domain.ErrLineOutOfRange)
}

func TestBuildHunkPatchEmptyHunk(t *testing.T) {
	_, err := BuildHunkPatch(domain.FileDiff{Path: "x"}, domain.DiffHunk{})
	require.Error(t, err)
}

func TestBuildLinePatchPureAdditionHunk(t *testing.T) {
	diff := `diff --git a/notes.txt b/notes.txt
new file mode 100644
--- /dev/null
+++ b/notes.txt
@@ -0,0 +1,2 @@
+hello
+world
`
	files, err := ParseDiff(diff)
	require.NoError(t, err)

	out, err := BuildLinePatch(files[0], files[0].Hunks[0], 0, false)
	require.NoError(t, err)

	// Old side is empty; header must claim zero lines for it.
	require.Contains(t, out, "@@ -0,0 +1,1 @@")
	require.Contains(t, out, "--- /dev/null")
	require.Contains(t, out, "+hello")
	require.NotContains(t, out, "world")
}

func TestBuildLinePatchPureDeletionHunk(t *testing.T) {
	diff := `diff --git a/old.txt b/old.txt
deleted file mode 100644
--- a/old.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-first
-second
`
	files, err := ParseDiff(diff)
	require.NoError(t, err)

	out, err := BuildLinePatch(files[0], files[0].Hunks[0], 0, false)
	require.NoError(t, err)

	// New side is empty; header must claim zero lines for it.
	require.Contains(t, out, "@@ -1,1 +0,0 @@")
	require.Contains(t, out, "-first")
	require.NotContains(t, out, "second")
	require.Contains(t, out, "+++ /dev/null")
}

func TestBuildLinePatchPreservesNoEOL(t *testing.T) {
	diff := `diff --git a/x.txt b/x.txt
index 1111111..2222222 100644
--- a/x.txt
+++ b/x.txt
@@ -1,1 +1,1 @@
-old line
\ No newline at end of file
+new line
\ No newline at end of file
`
	files, err := ParseDiff(diff)
	require.NoError(t, err)

	out, err := BuildLinePatch(files[0], files[0].Hunks[0], 1, false)
	require.NoError(t, err)
	require.Contains(t, out, "\\ No newline at end of file")
}

// TestBuildLinePatchHeaderArithmetic checks, over arbitrary hunks and
// selections, that the emitted header counts always match the emitted
// content and that an empty side never claims a non-zero count.
func TestBuildLinePatchHeaderArithmetic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kinds := rapid.SliceOfN(
			rapid.SampledFrom([]domain.DiffLineKind{
				domain.LineContext, domain.LineAddition, domain.LineDeletion,
			}), 1, 20).Draw(t, "kinds")

		hunk := domain.DiffHunk{
			OldStart: rapid.IntRange(1, 500).Draw(t, "oldStart"),
			NewStart: rapid.IntRange(1, 500).Draw(t, "newStart"),
		}
		var changeIdx []int
		for i, k := range kinds {
			hunk.Lines = append(hunk.Lines, domain.DiffLine{
				Kind:    k,
				Content: rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "content"),
			})
			if k != domain.LineContext {
				changeIdx = append(changeIdx, i)
			}
			switch k {
			case domain.LineContext:
				hunk.OldLines++
				hunk.NewLines++
			case domain.LineDeletion:
				hunk.OldLines++
			case domain.LineAddition:
				hunk.NewLines++
			}
		}
		if len(changeIdx) == 0 {
			t.Skip("no change lines to select")
		}

		target := rapid.SampledFrom(changeIdx).Draw(t, "target")
		reverse := rapid.Bool().Draw(t, "reverse")

		out, err := BuildLinePatch(domain.FileDiff{Path: "f.txt", OldPath: "f.txt"}, hunk, target, reverse)
		require.NoError(t, err)

		parsed, err := ParseDiff(out)
		require.NoError(t, err)
		require.Len(t, parsed, 1)
		require.Len(t, parsed[0].Hunks, 1)

		h := parsed[0].Hunks[0]
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
		require.Equal(t, oldCount, h.OldLines, "old count must match content")
		require.Equal(t, newCount, h.NewLines, "new count must match content")

		// Exactly one change line survives, and it is the selected one.
		changes := 0
		for _, ln := range h.Lines {
			if ln.Kind != domain.LineContext {
				changes++
				require.Equal(t, hunk.Lines[target].Content, ln.Content)
				require.Equal(t, hunk.Lines[target].Kind, ln.Kind)
			}
		}
		require.Equal(t, 1, changes)

		// Header invariant: empty sides claim zero lines.
		if oldCount == 0 {
			require.Contains(t, strings.Split(out, "\n")[3], ",0 ")
		}
	})
}
