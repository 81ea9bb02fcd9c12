package port

import (
	"context"

	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// Directory is the employee directory the engine resolves approver
// references against. Resolution re-reads the directory on every call so
// role membership changes affect pending approvals immediately.
type Directory interface {
	ListActive(ctx context.Context) ([]*entity.Employee, error)
	GetByID(ctx context.Context, id string) (*entity.Employee, error)
}

// EmployeeRepository extends Directory with the write operations the admin
// API needs
type EmployeeRepository interface {
	Directory
	Create(ctx context.Context, employee *entity.Employee) error
	List(ctx context.Context) ([]*entity.Employee, error)
	SetActive(ctx context.Context, id string, active bool) error
}
