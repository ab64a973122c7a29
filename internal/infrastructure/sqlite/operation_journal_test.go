package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gitdeck/internal/infrastructure/migrations"
	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

func newTestJournal(t *testing.T, repoPath string) *OperationJournal {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.RunMigrations(db))
	return newOperationJournal(db, repoPath)
}

func testOp(id, desc string) domain.GitOperation {
	return domain.GitOperation{
		ID:          id,
		Type:        domain.OpStage,
		Description: desc,
		Inverse:     []string{"restore", "--staged", "--", desc},
		Timestamp:   time.Unix(1706000000, 0),
	}
}

func TestJournalAppendAndRecent(t *testing.T) {
	j := newTestJournal(t, "/repo")

	require.NoError(t, j.Append(testOp("op-1", "a.go"), "record"))
	require.NoError(t, j.Append(testOp("op-1", "a.go"), "undo"))

	entries, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "undo", entries[0].Action, "newest first")
	require.Equal(t, "record", entries[1].Action)
	require.Equal(t, domain.OpStage, entries[0].Type)
	require.Equal(t, []string{"restore", "--staged", "--", "a.go"}, entries[0].Inverse)
}

func TestJournalRecentLimit(t *testing.T) {
	j := newTestJournal(t, "/repo")

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(testOp("op", "f.go"), "record"))
	}

	entries, err := j.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestJournalScopedToRepoPath(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.RunMigrations(db))

	one := newOperationJournal(db, "/repo-one")
	two := newOperationJournal(db, "/repo-two")

	require.NoError(t, one.Append(testOp("op-1", "a.go"), "record"))
	require.NoError(t, two.Append(testOp("op-2", "b.go"), "record"))

	entries, err := one.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "op-1", entries[0].GUID)
}

func TestJournalEmptyInverse(t *testing.T) {
	j := newTestJournal(t, "/repo")

	op := testOp("op-1", "a.go")
	op.Inverse = nil
	require.NoError(t, j.Append(op, "record"))

	entries, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Nil(t, entries[0].Inverse)
}

func TestJournalPrune(t *testing.T) {
	j := newTestJournal(t, "/repo")

	old := testOp("op-old", "a.go")
	old.Timestamp = time.Unix(1600000000, 0)
	recent := testOp("op-new", "b.go")
	recent.Timestamp = time.Unix(1706000000, 0)

	require.NoError(t, j.Append(old, "record"))
	require.NoError(t, j.Append(recent, "record"))

	removed, err := j.Prune(time.Unix(1700000000, 0))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	entries, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "op-new", entries[0].GUID)
}

func TestNewDBCreatesFileAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gitdeck.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var tableName string
	err = db.Connection().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='operations'`).Scan(&tableName)
	require.NoError(t, err)
	require.Equal(t, "operations", tableName)

	j := db.OperationJournal("/repo")
	require.NoError(t, j.Append(testOp("op-1", "a.go"), "record"))
}
