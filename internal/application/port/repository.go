package port

import (
	"context"

	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// WorkflowRepository defines persistence operations for Workflow
type WorkflowRepository interface {
	Create(ctx context.Context, workflow *entity.Workflow) error
	GetByID(ctx context.Context, id string) (*entity.Workflow, error)
	Update(ctx context.Context, workflow *entity.Workflow) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Workflow, error)
	ListActive(ctx context.Context) ([]*entity.Workflow, error)
}

// RecordRepository defines persistence operations for FieldRecord.
// History is owned by HistoryRepository; GetByID returns the record with
// History left empty.
type RecordRepository interface {
	Create(ctx context.Context, record *entity.FieldRecord) error
	GetByID(ctx context.Context, id string) (*entity.FieldRecord, error)
	UpdateApprovalState(ctx context.Context, id string, status entity.RecordStatus, level int) error
	ListByFormType(ctx context.Context, formType entity.FormType, limit, offset int) ([]*entity.FieldRecord, error)
	ListByStatus(ctx context.Context, status entity.RecordStatus, limit, offset int) ([]*entity.FieldRecord, error)
}

// HistoryRepository defines persistence operations for the append-only
// approval history of a record
type HistoryRepository interface {
	Append(ctx context.Context, recordID string, entry *entity.ApprovalEntry) error
	ListByRecordID(ctx context.Context, recordID string) ([]entity.ApprovalEntry, error)
}

// NotificationRepository defines persistence operations for the per-user
// notification inbox
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListUnread(ctx context.Context, recipientID string) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
