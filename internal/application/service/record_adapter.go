package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
	"github.com/fieldtrack/paperflow/internal/domain/workflow"
)

// UngatedPolicy is the record adapter's behavior for form types no active
// workflow governs. The engine imposes nothing in that case.
type UngatedPolicy string

const (
	// UngatedAutoApprove marks ungated submissions approved immediately
	UngatedAutoApprove UngatedPolicy = "auto_approve"

	// UngatedManual leaves ungated records in draft for manual handling
	UngatedManual UngatedPolicy = "manual"
)

// RecordService binds the generic approval engine to stored field records.
// It owns per-record atomicity: every transition is loaded, computed and
// persisted inside one transaction before the action is acknowledged, so
// two simultaneous actors cannot double-advance a record.
type RecordService interface {
	CreateRecord(ctx context.Context, record *entity.FieldRecord) error
	GetRecord(ctx context.Context, id string) (*entity.FieldRecord, error)
	ListRecords(ctx context.Context, formType entity.FormType, limit, offset int) ([]*entity.FieldRecord, error)

	Submit(ctx context.Context, recordID string) (*entity.FieldRecord, error)
	Approve(ctx context.Context, recordID, actorID, comment string) (*entity.FieldRecord, error)
	Reject(ctx context.Context, recordID, actorID, reason string) (*entity.FieldRecord, error)
}

type recordService struct {
	recordRepo    port.RecordRepository
	historyRepo   port.HistoryRepository
	registry      WorkflowRegistry
	engine        ApprovalEngine
	dispatcher    NotificationDispatcher
	directory     port.Directory
	txManager     port.TransactionManager
	ungatedPolicy UngatedPolicy
	logger        Logger
}

// NewRecordService creates a new RecordService
func NewRecordService(
	recordRepo port.RecordRepository,
	historyRepo port.HistoryRepository,
	registry WorkflowRegistry,
	engine ApprovalEngine,
	dispatcher NotificationDispatcher,
	directory port.Directory,
	txManager port.TransactionManager,
	ungatedPolicy UngatedPolicy,
	logger Logger,
) RecordService {
	return &recordService{
		recordRepo:    recordRepo,
		historyRepo:   historyRepo,
		registry:      registry,
		engine:        engine,
		dispatcher:    dispatcher,
		directory:     directory,
		txManager:     txManager,
		ungatedPolicy: ungatedPolicy,
		logger:        logger,
	}
}

// CreateRecord stores a new draft record
func (s *recordService) CreateRecord(ctx context.Context, record *entity.FieldRecord) error {
	if !record.FormType.IsValid() {
		return fmt.Errorf("unknown form type: %s", record.FormType)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.Status = entity.StatusDraft
	record.ApprovalLevel = 1
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := s.recordRepo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to create record", "error", err, "form_type", record.FormType)
		return err
	}

	s.logger.Info("Record created", "id", record.ID, "form_type", record.FormType)
	return nil
}

// GetRecord retrieves a record together with its approval history
func (s *recordService) GetRecord(ctx context.Context, id string) (*entity.FieldRecord, error) {
	return s.load(ctx, id)
}

// ListRecords retrieves a page of records for one form type
func (s *recordService) ListRecords(ctx context.Context, formType entity.FormType, limit, offset int) ([]*entity.FieldRecord, error) {
	return s.recordRepo.ListByFormType(ctx, formType, limit, offset)
}

// Submit sends a record into approval, or applies the ungated policy when
// no active workflow governs its form type
func (s *recordService) Submit(ctx context.Context, recordID string) (*entity.FieldRecord, error) {
	var record *entity.FieldRecord
	var outcome *Outcome

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		record, err = s.load(txCtx, recordID)
		if err != nil {
			return err
		}

		wf, err := s.registry.FindWorkflowForForm(txCtx, record.FormType)
		if err != nil {
			return err
		}

		if wf == nil {
			return s.applyUngated(txCtx, record)
		}

		outcome, err = s.engine.Submit(txCtx, record, wf)
		if err != nil {
			return err
		}
		return s.persist(txCtx, record, outcome)
	})
	if err != nil {
		s.logger.Error("Failed to submit record", "error", err, "record_id", recordID)
		return nil, err
	}

	if outcome != nil {
		s.dispatcher.DispatchAll(ctx, outcome.Directives)
	}
	return record, nil
}

// Approve records an approval action by the given actor
func (s *recordService) Approve(ctx context.Context, recordID, actorID, comment string) (*entity.FieldRecord, error) {
	return s.act(ctx, recordID, actorID, func(txCtx context.Context, record *entity.FieldRecord, wf *entity.Workflow, actor entity.Actor) (*Outcome, error) {
		return s.engine.Approve(txCtx, record, wf, actor, comment, []string{record.SubmitterID})
	})
}

// Reject terminates the record's approval pass with a reason
func (s *recordService) Reject(ctx context.Context, recordID, actorID, reason string) (*entity.FieldRecord, error) {
	return s.act(ctx, recordID, actorID, func(txCtx context.Context, record *entity.FieldRecord, wf *entity.Workflow, actor entity.Actor) (*Outcome, error) {
		return s.engine.Reject(txCtx, record, wf, actor, reason, []string{record.SubmitterID})
	})
}

type transitionFunc func(ctx context.Context, record *entity.FieldRecord, wf *entity.Workflow, actor entity.Actor) (*Outcome, error)

// act runs one approval transition inside a transaction and dispatches the
// resulting notifications after commit
func (s *recordService) act(ctx context.Context, recordID, actorID string, fn transitionFunc) (*entity.FieldRecord, error) {
	var record *entity.FieldRecord
	var outcome *Outcome

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		record, err = s.load(txCtx, recordID)
		if err != nil {
			return err
		}

		wf, err := s.registry.FindWorkflowForForm(txCtx, record.FormType)
		if err != nil {
			return err
		}
		if wf == nil {
			// A pending record whose workflow was deleted or deactivated
			// can no longer resolve its level
			return fmt.Errorf("%w: no active workflow governs %s", ErrMissingLevel, record.FormType)
		}

		actor, err := s.lookupActor(txCtx, actorID)
		if err != nil {
			return err
		}

		outcome, err = fn(txCtx, record, wf, actor)
		if err != nil {
			return err
		}
		return s.persist(txCtx, record, outcome)
	})
	if err != nil {
		s.logger.Error("Approval action failed", "error", err, "record_id", recordID, "actor", actorID)
		return nil, err
	}

	s.dispatcher.DispatchAll(ctx, outcome.Directives)
	return record, nil
}

// load retrieves a record and hydrates its approval history
func (s *recordService) load(ctx context.Context, id string) (*entity.FieldRecord, error) {
	record, err := s.recordRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}

	history, err := s.historyRepo.ListByRecordID(ctx, id)
	if err != nil {
		return nil, err
	}
	record.History = history
	return record, nil
}

// persist applies an engine outcome to storage and mirrors it onto the
// in-memory record
func (s *recordService) persist(ctx context.Context, record *entity.FieldRecord, outcome *Outcome) error {
	if outcome.Entry != nil {
		if err := s.historyRepo.Append(ctx, record.ID, outcome.Entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		record.History = append(record.History, *outcome.Entry)
	}
	if err := s.recordRepo.UpdateApprovalState(ctx, record.ID, outcome.Status, outcome.ApprovalLevel); err != nil {
		return fmt.Errorf("update approval state: %w", err)
	}
	record.Status = outcome.Status
	record.ApprovalLevel = outcome.ApprovalLevel
	return nil
}

// applyUngated handles submission of a record no workflow governs. The
// submit precondition still holds here: a record mid-approval whose
// workflow disappeared must not slip through to auto-approval.
func (s *recordService) applyUngated(ctx context.Context, record *entity.FieldRecord) error {
	if record.Status != entity.StatusDraft && record.Status != entity.StatusRejected {
		return fmt.Errorf("%w: cannot submit record in status %s", workflow.ErrInvalidTransition, record.Status)
	}
	switch s.ungatedPolicy {
	case UngatedAutoApprove:
		if err := s.recordRepo.UpdateApprovalState(ctx, record.ID, entity.StatusApproved, record.ApprovalLevel); err != nil {
			return err
		}
		record.Status = entity.StatusApproved
		s.logger.Info("Record auto-approved, no governing workflow",
			"record_id", record.ID, "form_type", record.FormType)
	default:
		s.logger.Info("Record left ungated, no governing workflow",
			"record_id", record.ID, "form_type", record.FormType)
	}
	return nil
}

// lookupActor resolves the acting employee's identity and role fields
func (s *recordService) lookupActor(ctx context.Context, actorID string) (entity.Actor, error) {
	employee, err := s.directory.GetByID(ctx, actorID)
	if err != nil {
		return entity.Actor{}, err
	}
	if employee == nil || !employee.IsActive {
		return entity.Actor{}, fmt.Errorf("%w: unknown or inactive employee %s", ErrUnauthorizedActor, actorID)
	}
	return employee.Actor(), nil
}

var _ RecordService = (*recordService)(nil)
