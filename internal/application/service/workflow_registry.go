package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// WorkflowRegistry stores named workflow definitions and answers "which
// active workflow governs form type F" with a first-match policy.
type WorkflowRegistry interface {
	CreateWorkflow(ctx context.Context, workflow *entity.Workflow) error
	UpdateWorkflow(ctx context.Context, workflow *entity.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	GetWorkflow(ctx context.Context, id string) (*entity.Workflow, error)
	ListWorkflows(ctx context.Context) ([]*entity.Workflow, error)

	// FindWorkflowForForm scans active workflows only and returns the
	// first whose assigned forms contain the given type, or nil when the
	// form is not approval-gated.
	FindWorkflowForForm(ctx context.Context, formType entity.FormType) (*entity.Workflow, error)

	// FindLevel returns the level with the given 1-based number, or nil
	FindLevel(workflow *entity.Workflow, levelNumber int) *entity.Level
}

type workflowRegistry struct {
	workflowRepo port.WorkflowRepository
	logger       Logger
}

// NewWorkflowRegistry creates a new WorkflowRegistry
func NewWorkflowRegistry(workflowRepo port.WorkflowRepository, logger Logger) WorkflowRegistry {
	return &workflowRegistry{
		workflowRepo: workflowRepo,
		logger:       logger,
	}
}

// CreateWorkflow validates, normalizes and stores a new workflow
func (s *workflowRegistry) CreateWorkflow(ctx context.Context, workflow *entity.Workflow) error {
	if err := s.normalize(workflow); err != nil {
		return err
	}

	if workflow.IsActive {
		if err := s.checkOverlap(ctx, workflow); err != nil {
			return err
		}
	}

	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
	}
	now := time.Now()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := s.workflowRepo.Create(ctx, workflow); err != nil {
		s.logger.Error("Failed to create workflow", "error", err, "name", workflow.Name)
		return err
	}

	s.logger.Info("Workflow created", "id", workflow.ID, "name", workflow.Name, "levels", len(workflow.Levels))
	return nil
}

// UpdateWorkflow validates and stores an edited workflow. A level whose
// type changed gets its approver references cleared: a reference list
// written under the old interpretation is meaningless under the new one.
func (s *workflowRegistry) UpdateWorkflow(ctx context.Context, workflow *entity.Workflow) error {
	existing, err := s.workflowRepo.GetByID(ctx, workflow.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrWorkflowNotFound
	}

	if err := s.normalize(workflow); err != nil {
		return err
	}

	previousTypes := make(map[string]entity.LevelType, len(existing.Levels))
	for _, lvl := range existing.Levels {
		previousTypes[lvl.ID] = lvl.LevelType
	}
	for i := range workflow.Levels {
		lvl := &workflow.Levels[i]
		if prev, ok := previousTypes[lvl.ID]; ok && prev != lvl.LevelType {
			lvl.ApproverIDs = nil
		}
	}

	if workflow.IsActive {
		if err := s.checkOverlap(ctx, workflow); err != nil {
			return err
		}
	}

	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now()

	if err := s.workflowRepo.Update(ctx, workflow); err != nil {
		s.logger.Error("Failed to update workflow", "error", err, "id", workflow.ID)
		return err
	}

	s.logger.Info("Workflow updated", "id", workflow.ID, "name", workflow.Name)
	return nil
}

// DeleteWorkflow removes a workflow definition. Records already
// mid-approval under it keep only a level number; they will surface a
// missing-level error on their next action.
func (s *workflowRegistry) DeleteWorkflow(ctx context.Context, id string) error {
	existing, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrWorkflowNotFound
	}

	if existing.IsActive {
		s.logger.Info("Deleting active workflow; pending records governed by it will no longer resolve",
			"id", id, "name", existing.Name)
	}

	return s.workflowRepo.Delete(ctx, id)
}

// SetActive enables or disables a workflow
func (s *workflowRegistry) SetActive(ctx context.Context, id string, active bool) error {
	existing, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrWorkflowNotFound
	}

	if active {
		existing.IsActive = true
		if err := s.checkOverlap(ctx, existing); err != nil {
			return err
		}
	} else {
		existing.IsActive = false
		s.logger.Info("Deactivating workflow; pending records governed by it will no longer resolve",
			"id", id, "name", existing.Name)
	}

	existing.UpdatedAt = time.Now()
	return s.workflowRepo.Update(ctx, existing)
}

// GetWorkflow retrieves a workflow by id
func (s *workflowRegistry) GetWorkflow(ctx context.Context, id string) (*entity.Workflow, error) {
	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}
	return workflow, nil
}

// ListWorkflows retrieves all workflow definitions
func (s *workflowRegistry) ListWorkflows(ctx context.Context) ([]*entity.Workflow, error) {
	return s.workflowRepo.List(ctx)
}

// FindWorkflowForForm returns the first active workflow governing the form
// type, or nil when none does
func (s *workflowRegistry) FindWorkflowForForm(ctx context.Context, formType entity.FormType) (*entity.Workflow, error) {
	active, err := s.workflowRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	for _, wf := range active {
		if wf.Governs(formType) {
			return wf, nil
		}
	}
	return nil, nil
}

// FindLevel returns the level with the given 1-based number, or nil
func (s *workflowRegistry) FindLevel(workflow *entity.Workflow, levelNumber int) *entity.Level {
	if workflow == nil {
		return nil
	}
	return workflow.LevelAt(levelNumber)
}

// normalize validates enum fields and renumbers levels so LevelNumber is
// 1-based, contiguous and equal to the level's position
func (s *workflowRegistry) normalize(workflow *entity.Workflow) error {
	if workflow.Name == "" {
		return fmt.Errorf("workflow name must not be empty")
	}

	for _, formType := range workflow.AssignedForms {
		if !formType.IsValid() {
			return fmt.Errorf("unknown form type: %s", formType)
		}
	}

	for i := range workflow.Levels {
		lvl := &workflow.Levels[i]
		if !lvl.LevelType.IsValid() {
			return fmt.Errorf("level %d: unknown level type: %s", i+1, lvl.LevelType)
		}
		if !lvl.ApprovalType.IsValid() {
			return fmt.Errorf("level %d: unknown approval type: %s", i+1, lvl.ApprovalType)
		}
		if lvl.ID == "" {
			lvl.ID = uuid.NewString()
		}
		lvl.LevelNumber = i + 1
	}

	return nil
}

// checkOverlap rejects a workflow claiming a form type already assigned to
// a different active workflow. Overlap is a configuration error caught at
// save time; the first-match lookup never has to tie-break.
func (s *workflowRegistry) checkOverlap(ctx context.Context, workflow *entity.Workflow) error {
	active, err := s.workflowRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, other := range active {
		if other.ID == workflow.ID {
			continue
		}
		for _, formType := range workflow.AssignedForms {
			if other.Governs(formType) {
				return fmt.Errorf("%w: %s claimed by %q", ErrFormOverlap, formType, other.Name)
			}
		}
	}
	return nil
}

var _ WorkflowRegistry = (*workflowRegistry)(nil)
