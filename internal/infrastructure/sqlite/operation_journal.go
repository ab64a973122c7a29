package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
	"github.com/zjrosen/gitdeck/internal/repo/undo"
)

// OperationJournal persists an audit trail of undo-log transitions for
// one repository. It is write-mostly: the in-memory undo stacks remain
// the source of truth for what can actually be undone, and the journal
// exists so a user can see what gitdeck did to their repository and
// when.
type OperationJournal struct {
	db       *sql.DB
	repoPath string
}

// newOperationJournal creates a journal scoped to repoPath.
func newOperationJournal(db *sql.DB, repoPath string) *OperationJournal {
	return &OperationJournal{db: db, repoPath: repoPath}
}

// Ensure OperationJournal satisfies the undo log's journal port.
var _ undo.Journal = (*OperationJournal)(nil)

// Append records one stack transition. action is "record", "undo" or
// "redo".
func (j *OperationJournal) Append(op domain.GitOperation, action string) error {
	model, err := toOperationModel(op, j.repoPath, action)
	if err != nil {
		return err
	}

	_, err = j.db.Exec(
		`INSERT INTO operations (guid, repo_path, op_type, action, description, inverse_argv, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		model.GUID, model.RepoPath, model.OpType, model.Action,
		model.Description, model.InverseArgv, model.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}
	return nil
}

// Entry is one journal row returned by Recent.
type Entry struct {
	ID          int64
	GUID        string
	Type        domain.OperationType
	Action      string
	Description string
	Inverse     []string
	RecordedAt  time.Time
}

// Recent returns the newest journal entries for this repository, newest
// first. limit <= 0 returns everything.
func (j *OperationJournal) Recent(limit int) ([]Entry, error) {
	query := `SELECT id, guid, op_type, action, description, inverse_argv, recorded_at
			  FROM operations
			  WHERE repo_path = ?
			  ORDER BY recorded_at DESC, id DESC`
	args := []any{j.repoPath}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var model OperationModel
		if err := rows.Scan(&model.ID, &model.GUID, &model.OpType, &model.Action,
			&model.Description, &model.InverseArgv, &model.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}
		entry, err := model.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operation rows: %w", err)
	}

	return entries, nil
}

// Prune deletes journal entries older than the cutoff. Returns the
// number of rows removed.
func (j *OperationJournal) Prune(olderThan time.Time) (int64, error) {
	result, err := j.db.Exec(
		`DELETE FROM operations WHERE repo_path = ? AND recorded_at < ?`,
		j.repoPath, olderThan.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune operations: %w", err)
	}
	return result.RowsAffected()
}

// argvJSON round-trips the inverse argv through JSON for storage in a
// single TEXT column.
func argvJSON(args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode inverse argv: %w", err)
	}
	return string(b), nil
}
