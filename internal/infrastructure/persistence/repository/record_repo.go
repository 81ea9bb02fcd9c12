package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// RecordRepository implements port.RecordRepository
type RecordRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecordRepository creates a new field record repository
func NewRecordRepository(db *sql.DB, logger *zap.Logger) port.RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new field record
func (r *RecordRepository) Create(ctx context.Context, record *entity.FieldRecord) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO field_records (id, form_type, submitter_id, project, form_data, status, approval_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.FormType,
		record.SubmitterID,
		record.Project,
		record.FormData,
		record.Status,
		record.ApprovalLevel,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create record",
			zap.String("id", record.ID),
			zap.String("form_type", string(record.FormType)),
			zap.Error(err))
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// GetByID retrieves a record by id, or nil when unknown. History is left
// empty; it belongs to the history repository.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*entity.FieldRecord, error) {
	var record entity.FieldRecord
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, form_type, submitter_id, project, form_data, status, approval_level, created_at, updated_at
		FROM field_records
		WHERE id = ?
	`, id).Scan(
		&record.ID,
		&record.FormType,
		&record.SubmitterID,
		&record.Project,
		&record.FormData,
		&record.Status,
		&record.ApprovalLevel,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}

// UpdateApprovalState writes a record's status and current level
func (r *RecordRepository) UpdateApprovalState(ctx context.Context, id string, status entity.RecordStatus, level int) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE field_records
		SET status = ?, approval_level = ?, updated_at = ?
		WHERE id = ?
	`, status, level, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update approval state",
			zap.String("id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("failed to update approval state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("record not found: %s", id)
	}
	return nil
}

// ListByFormType retrieves a page of records for one form type, newest first
func (r *RecordRepository) ListByFormType(ctx context.Context, formType entity.FormType, limit, offset int) ([]*entity.FieldRecord, error) {
	return r.list(ctx, `
		SELECT id, form_type, submitter_id, project, form_data, status, approval_level, created_at, updated_at
		FROM field_records
		WHERE form_type = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, formType, limit, offset)
}

// ListByStatus retrieves a page of records in one status, newest first
func (r *RecordRepository) ListByStatus(ctx context.Context, status entity.RecordStatus, limit, offset int) ([]*entity.FieldRecord, error) {
	return r.list(ctx, `
		SELECT id, form_type, submitter_id, project, form_data, status, approval_level, created_at, updated_at
		FROM field_records
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, status, limit, offset)
}

func (r *RecordRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.FieldRecord, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*entity.FieldRecord
	for rows.Next() {
		var record entity.FieldRecord
		if err := rows.Scan(
			&record.ID,
			&record.FormType,
			&record.SubmitterID,
			&record.Project,
			&record.FormData,
			&record.Status,
			&record.ApprovalLevel,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Verify interface compliance
var _ port.RecordRepository = (*RecordRepository)(nil)
