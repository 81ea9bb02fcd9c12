package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// EmployeeRepository implements port.EmployeeRepository
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) port.EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new employee
func (r *EmployeeRepository) Create(ctx context.Context, employee *entity.Employee) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO employees (id, display_name, app_role, job_title, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		employee.ID,
		employee.DisplayName,
		employee.AppRole,
		employee.JobTitle,
		employee.IsActive,
		employee.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create employee",
			zap.String("id", employee.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

// GetByID retrieves an employee by id, or nil when unknown
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*entity.Employee, error) {
	var employee entity.Employee
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, display_name, app_role, job_title, is_active, created_at
		FROM employees
		WHERE id = ?
	`, id).Scan(
		&employee.ID,
		&employee.DisplayName,
		&employee.AppRole,
		&employee.JobTitle,
		&employee.IsActive,
		&employee.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &employee, nil
}

// List retrieves all employees, active and inactive
func (r *EmployeeRepository) List(ctx context.Context) ([]*entity.Employee, error) {
	return r.list(ctx, `
		SELECT id, display_name, app_role, job_title, is_active, created_at
		FROM employees
		ORDER BY display_name, id
	`)
}

// ListActive retrieves the employees approver resolution runs against
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]*entity.Employee, error) {
	return r.list(ctx, `
		SELECT id, display_name, app_role, job_title, is_active, created_at
		FROM employees
		WHERE is_active = 1
		ORDER BY display_name, id
	`)
}

// SetActive toggles whether an employee participates in resolution
func (r *EmployeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE employees SET is_active = ? WHERE id = ?
	`, active, id)
	if err != nil {
		r.logger.Error("Failed to set employee active flag",
			zap.String("id", id),
			zap.Bool("active", active),
			zap.Error(err))
		return fmt.Errorf("failed to set employee active flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("employee not found: %s", id)
	}
	return nil
}

func (r *EmployeeRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Employee, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*entity.Employee
	for rows.Next() {
		var employee entity.Employee
		if err := rows.Scan(
			&employee.ID,
			&employee.DisplayName,
			&employee.AppRole,
			&employee.JobTitle,
			&employee.IsActive,
			&employee.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, &employee)
	}
	return employees, rows.Err()
}

// Verify interface compliance
var _ port.EmployeeRepository = (*EmployeeRepository)(nil)
