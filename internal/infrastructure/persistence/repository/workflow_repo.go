package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// WorkflowRepository implements port.WorkflowRepository
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *sql.DB, logger *zap.Logger) port.WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a workflow and its levels
func (r *WorkflowRepository) Create(ctx context.Context, workflow *entity.Workflow) error {
	forms, err := json.Marshal(workflow.AssignedForms)
	if err != nil {
		return fmt.Errorf("failed to marshal assigned forms: %w", err)
	}

	exec := getExecutor(ctx, r.db)
	_, err = exec.ExecContext(ctx, `
		INSERT INTO workflows (id, name, is_active, assigned_forms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		workflow.ID,
		workflow.Name,
		workflow.IsActive,
		string(forms),
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create workflow",
			zap.String("id", workflow.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	return r.insertLevels(ctx, exec, workflow)
}

// GetByID retrieves a workflow with its levels ordered by level number.
// Returns nil when the id is unknown.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*entity.Workflow, error) {
	exec := getExecutor(ctx, r.db)

	workflow, err := r.scanWorkflow(exec.QueryRowContext(ctx, `
		SELECT id, name, is_active, assigned_forms, created_at, updated_at
		FROM workflows
		WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if err := r.loadLevels(ctx, exec, workflow); err != nil {
		return nil, err
	}
	return workflow, nil
}

// Update rewrites a workflow row and replaces its level set
func (r *WorkflowRepository) Update(ctx context.Context, workflow *entity.Workflow) error {
	forms, err := json.Marshal(workflow.AssignedForms)
	if err != nil {
		return fmt.Errorf("failed to marshal assigned forms: %w", err)
	}

	exec := getExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE workflows
		SET name = ?, is_active = ?, assigned_forms = ?, updated_at = ?
		WHERE id = ?
	`,
		workflow.Name,
		workflow.IsActive,
		string(forms),
		workflow.UpdatedAt,
		workflow.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update workflow",
			zap.String("id", workflow.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update workflow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workflow not found: %s", workflow.ID)
	}

	if _, err := exec.ExecContext(ctx, "DELETE FROM workflow_levels WHERE workflow_id = ?", workflow.ID); err != nil {
		return fmt.Errorf("failed to clear workflow levels: %w", err)
	}
	return r.insertLevels(ctx, exec, workflow)
}

// Delete removes a workflow; levels cascade
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, "DELETE FROM workflows WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete workflow", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	return nil
}

// List retrieves all workflows in creation order
func (r *WorkflowRepository) List(ctx context.Context) ([]*entity.Workflow, error) {
	return r.list(ctx, `
		SELECT id, name, is_active, assigned_forms, created_at, updated_at
		FROM workflows
		ORDER BY created_at, id
	`)
}

// ListActive retrieves active workflows in creation order. Creation order
// makes the registry's first-match lookup deterministic.
func (r *WorkflowRepository) ListActive(ctx context.Context) ([]*entity.Workflow, error) {
	return r.list(ctx, `
		SELECT id, name, is_active, assigned_forms, created_at, updated_at
		FROM workflows
		WHERE is_active = 1
		ORDER BY created_at, id
	`)
}

func (r *WorkflowRepository) list(ctx context.Context, query string) ([]*entity.Workflow, error) {
	exec := getExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*entity.Workflow
	for rows.Next() {
		workflow, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, workflow)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, workflow := range workflows {
		if err := r.loadLevels(ctx, exec, workflow); err != nil {
			return nil, err
		}
	}
	return workflows, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *WorkflowRepository) scanWorkflow(row rowScanner) (*entity.Workflow, error) {
	var workflow entity.Workflow
	var forms string

	if err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.IsActive,
		&forms,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(forms), &workflow.AssignedForms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assigned forms: %w", err)
	}
	return &workflow, nil
}

func (r *WorkflowRepository) loadLevels(ctx context.Context, exec executor, workflow *entity.Workflow) error {
	rows, err := exec.QueryContext(ctx, `
		SELECT id, level_number, level_type, approval_type, approver_ids
		FROM workflow_levels
		WHERE workflow_id = ?
		ORDER BY level_number
	`, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to load workflow levels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level entity.Level
		var approvers string
		if err := rows.Scan(
			&level.ID,
			&level.LevelNumber,
			&level.LevelType,
			&level.ApprovalType,
			&approvers,
		); err != nil {
			return fmt.Errorf("failed to scan workflow level: %w", err)
		}
		if err := json.Unmarshal([]byte(approvers), &level.ApproverIDs); err != nil {
			return fmt.Errorf("failed to unmarshal approver ids: %w", err)
		}
		workflow.Levels = append(workflow.Levels, level)
	}
	return rows.Err()
}

func (r *WorkflowRepository) insertLevels(ctx context.Context, exec executor, workflow *entity.Workflow) error {
	for _, level := range workflow.Levels {
		approvers, err := json.Marshal(level.ApproverIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal approver ids: %w", err)
		}

		if _, err := exec.ExecContext(ctx, `
			INSERT INTO workflow_levels (id, workflow_id, level_number, level_type, approval_type, approver_ids)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			level.ID,
			workflow.ID,
			level.LevelNumber,
			level.LevelType,
			level.ApprovalType,
			string(approvers),
		); err != nil {
			r.logger.Error("Failed to insert workflow level",
				zap.String("workflow_id", workflow.ID),
				zap.Int("level", level.LevelNumber),
				zap.Error(err))
			return fmt.Errorf("failed to insert workflow level: %w", err)
		}
	}
	return nil
}

// Verify interface compliance
var _ port.WorkflowRepository = (*WorkflowRepository)(nil)
