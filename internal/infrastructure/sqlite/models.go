package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// OperationModel represents the database row for the operations table.
// Fields map directly to SQL columns with Unix timestamps for time values.
type OperationModel struct {
	ID          int64
	GUID        string
	RepoPath    string
	OpType      string
	Action      string
	Description string
	InverseArgv string // JSON-encoded argv, empty when none
	RecordedAt  int64  // Unix timestamp
}

// toOperationModel converts a domain operation plus journal metadata to
// a database row.
func toOperationModel(op domain.GitOperation, repoPath, action string) (*OperationModel, error) {
	inverse, err := argvJSON(op.Inverse)
	if err != nil {
		return nil, err
	}

	ts := op.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &OperationModel{
		GUID:        op.ID,
		RepoPath:    repoPath,
		OpType:      string(op.Type),
		Action:      action,
		Description: op.Description,
		InverseArgv: inverse,
		RecordedAt:  ts.Unix(),
	}, nil
}

// toEntry converts a database row back to a journal entry.
func (m *OperationModel) toEntry() (Entry, error) {
	var inverse []string
	if m.InverseArgv != "" {
		if err := json.Unmarshal([]byte(m.InverseArgv), &inverse); err != nil {
			return Entry{}, fmt.Errorf("failed to decode inverse argv: %w", err)
		}
	}
	return Entry{
		ID:          m.ID,
		GUID:        m.GUID,
		Type:        domain.OperationType(m.OpType),
		Action:      m.Action,
		Description: m.Description,
		Inverse:     inverse,
		RecordedAt:  time.Unix(m.RecordedAt, 0),
	}, nil
}
