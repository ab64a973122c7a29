package patch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

func TestAnnotateIntralinePairsDeletionWithAddition(t *testing.T) {
	hunk := domain.DiffHunk{
		Lines: []domain.DiffLine{
			{Kind: domain.LineContext, Content: "unchanged"},
			{Kind: domain.LineDeletion, Content: "the quick brown fox"},
			{Kind: domain.LineAddition, Content: "the quick red fox"},
		},
	}

	AnnotateIntraline(&hunk)

	require.Empty(t, hunk.Lines[0].Intraline, "context lines get no annotation")
	require.NotEmpty(t, hunk.Lines[1].Intraline)
	require.NotEmpty(t, hunk.Lines[2].Intraline)

	// The deletion must contain a changed segment covering "brown".
	del := hunk.Lines[1]
	foundChanged := false
	for _, seg := range del.Intraline {
		if seg.Changed {
			foundChanged = true
			require.Contains(t, "the quick brown fox"[seg.Start:seg.End], "brown"[0:1])
		}
	}
	require.True(t, foundChanged)

	// Segments must tile the line without gaps.
	last := 0
	for _, seg := range del.Intraline {
		require.Equal(t, last, seg.Start)
		last = seg.End
	}
	require.Equal(t, len(del.Content), last)
}

func TestAnnotateIntralineUnpairedLines(t *testing.T) {
	hunk := domain.DiffHunk{
		Lines: []domain.DiffLine{
			{Kind: domain.LineDeletion, Content: "gone entirely"},
			{Kind: domain.LineAddition, Content: "replacement one"},
			{Kind: domain.LineAddition, Content: "surplus addition"},
		},
	}

	AnnotateIntraline(&hunk)

	require.NotEmpty(t, hunk.Lines[0].Intraline)
	require.NotEmpty(t, hunk.Lines[1].Intraline)
	require.Empty(t, hunk.Lines[2].Intraline, "unpaired addition stays unannotated")
}

func TestAnnotateIntralineAdditionOnlyHunk(t *testing.T) {
	hunk := domain.DiffHunk{
		Lines: []domain.DiffLine{
			{Kind: domain.LineAddition, Content: "brand new"},
		},
	}

	AnnotateIntraline(&hunk)
	require.Empty(t, hunk.Lines[0].Intraline)
}
