package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new approval history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append adds one entry to a record's approval history
func (r *HistoryRepository) Append(ctx context.Context, recordID string, entry *entity.ApprovalEntry) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO approval_history (record_id, level, decision, actor_id, actor_name, comment, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		recordID,
		entry.Level,
		entry.Decision,
		entry.ActorID,
		entry.ActorName,
		entry.Comment,
		entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append history entry",
			zap.String("record_id", recordID),
			zap.Int("level", entry.Level),
			zap.Error(err))
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// ListByRecordID retrieves a record's history in insertion order
func (r *HistoryRepository) ListByRecordID(ctx context.Context, recordID string) ([]entity.ApprovalEntry, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT level, decision, actor_id, actor_name, comment, timestamp
		FROM approval_history
		WHERE record_id = ?
		ORDER BY id
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []entity.ApprovalEntry
	for rows.Next() {
		var entry entity.ApprovalEntry
		if err := rows.Scan(
			&entry.Level,
			&entry.Decision,
			&entry.ActorID,
			&entry.ActorName,
			&entry.Comment,
			&entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
