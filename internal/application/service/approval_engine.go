package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldtrack/paperflow/internal/domain/entity"
	"github.com/fieldtrack/paperflow/internal/domain/workflow"
)

// Directive instructs the dispatcher who to notify after a transition.
// Refs are raw approver references interpreted under LevelType; the
// dispatcher expands them to concrete recipients.
type Directive struct {
	Refs      []string
	LevelType entity.LevelType
	Kind      string
	Title     string
	Body      string
	Link      string
}

// Outcome is the result of an engine transition: the record's new approval
// state plus the notification fan-out. Entry is the history row appended
// by the transition, nil for submissions.
type Outcome struct {
	Status        entity.RecordStatus
	ApprovalLevel int
	Entry         *entity.ApprovalEntry
	Directives    []Directive
}

// ApprovalEngine computes approval state transitions. Every transition is
// a synchronous pure function of (record, workflow, actor) to an Outcome;
// the engine performs no locking and no persistence. Callers must only
// invoke it for records governed by a workflow; when no workflow governs
// a form type the policy belongs to the record adapter, not the engine.
type ApprovalEngine interface {
	// Submit moves a draft or rejected record into approval at level 1
	Submit(ctx context.Context, record *entity.FieldRecord, wf *entity.Workflow) (*Outcome, error)

	// CanAct reports whether the actor may approve at the record's
	// current level. Always false outside PENDING_APPROVAL.
	CanAct(record *entity.FieldRecord, wf *entity.Workflow, actor entity.Actor) bool

	// Approve records the actor's approval and either holds the level
	// (ALL quorum not yet met), advances to the next level, or finalizes
	// the record. The interested list receives the terminal notification;
	// the engine does not track the submitter itself.
	Approve(ctx context.Context, record *entity.FieldRecord, wf *entity.Workflow, actor entity.Actor, comment string, interested []string) (*Outcome, error)

	// Reject terminates the current approval pass. Resubmission restarts
	// at level 1, never at the rejecting level.
	Reject(ctx context.Context, record *entity.FieldRecord, wf *entity.Workflow, actor entity.Actor, reason string, interested []string) (*Outcome, error)
}

type approvalEngine struct {
	resolver IdentityResolver
	// openRejection restores the permissive legacy behavior where any
	// authenticated caller may reject a pending record. Default is to
	// gate rejection behind the same CanAct check as approval.
	openRejection bool
	logger        Logger
}

// NewApprovalEngine creates a new ApprovalEngine
func NewApprovalEngine(resolver IdentityResolver, openRejection bool, logger Logger) ApprovalEngine {
	return &approvalEngine{
		resolver:      resolver,
		openRejection: openRejection,
		logger:        logger,
	}
}

// Submit moves the record into approval at level 1
func (e *approvalEngine) Submit(ctx context.Context, record *entity.FieldRecord, wf *entity.Workflow) (*Outcome, error) {
	machine := workflow.Lifecycle(workflow.State(record.Status))
	if err := machine.Fire(ctx, workflow.TriggerSubmit); err != nil {
		return nil, err
	}

	first := wf.LevelAt(1)
	if first == nil {
		return nil, fmt.Errorf("%w: workflow %q has no level 1", ErrMissingLevel, wf.Name)
	}

	outcome := &Outcome{
		Status:        entity.StatusPendingApproval,
		ApprovalLevel: 1,
		Directives: []Directive{{
			Refs:      first.ApproverIDs,
			LevelType: first.LevelType,
			Kind:      entity.NotificationKindApprovalRequest,
			Title:     fmt.Sprintf("%s ready for Level 1 approval", record.FormType),
			Body:      fmt.Sprintf("A %s record was submitted and awaits your approval.", record.FormType),
			Link:      recordLink(record.ID),
		}},
	}

	e.logger.Info("Record submitted for approval",
		"record_id", record.ID, "form_type", record.FormType, "workflow", wf.Name)
	return outcome, nil
}

// CanAct reports whether the actor may act at the record's current level
func (e *approvalEngine) CanAct(record *entity.FieldRecord, wf *entity.Workflow, actor entity.Actor) bool {
	if record.Status != entity.StatusPendingApproval {
		return false
	}
	if wf == nil {
		return false
	}
	level := wf.LevelAt(record.ApprovalLevel)
	if level == nil {
		return false
	}
	return e.resolver.ActorMatches(actor, level)
}

// Approve records an approval action at the current level
func (e *approvalEngine) Approve(ctx context.Context, record *entity.FieldRecord, wf *entity.Workflow, actor entity.Actor, comment string, interested []string) (*Outcome, error) {
	machine := workflow.Lifecycle(workflow.State(record.Status))
	if !machine.CanFire(workflow.TriggerApprove) {
		return nil, fmt.Errorf("%w: cannot approve record in status %s", workflow.ErrInvalidTransition, record.Status)
	}

	level := wf.LevelAt(record.ApprovalLevel)
	if level == nil {
		return nil, fmt.Errorf("%w: workflow %q has no level %d", ErrMissingLevel, wf.Name, record.ApprovalLevel)
	}

	if !e.resolver.ActorMatches(actor, level) {
		return nil, fmt.Errorf("%w: %s at level %d", ErrUnauthorizedActor, actor.ID, record.ApprovalLevel)
	}

	acted := approvalsAtCurrentLevel(record.History, record.ApprovalLevel)
	if acted[actor.ID] {
		return nil, fmt.Errorf("%w: %s already approved level %d", workflow.ErrInvalidTransition, actor.ID, record.ApprovalLevel)
	}

	entry := &entity.ApprovalEntry{
		Level:     record.ApprovalLevel,
		Decision:  entity.DecisionApproved,
		ActorID:   actor.ID,
		ActorName: actor.DisplayName,
		Comment:   comment,
		Timestamp: time.Now(),
	}

	satisfied, err := e.levelSatisfied(ctx, level, acted, actor.ID)
	if err != nil {
		return nil, err
	}
	if !satisfied {
		// ALL quorum not yet exhausted: hold the level, record the action
		e.logger.Info("Approval recorded, level quorum pending",
			"record_id", record.ID, "level", record.ApprovalLevel, "actor", actor.ID)
		return &Outcome{
			Status:        entity.StatusPendingApproval,
			ApprovalLevel: record.ApprovalLevel,
			Entry:         entry,
		}, nil
	}

	next := wf.LevelAt(record.ApprovalLevel + 1)
	if next != nil {
		if err := machine.Fire(ctx, workflow.TriggerAdvance); err != nil {
			return nil, err
		}
		e.logger.Info("Record advanced to next approval level",
			"record_id", record.ID, "level", next.LevelNumber, "actor", actor.ID)
		return &Outcome{
			Status:        entity.StatusPendingApproval,
			ApprovalLevel: next.LevelNumber,
			Entry:         entry,
			Directives: []Directive{{
				Refs:      next.ApproverIDs,
				LevelType: next.LevelType,
				Kind:      entity.NotificationKindApprovalRequest,
				Title:     fmt.Sprintf("%s ready for Level %d approval", record.FormType, next.LevelNumber),
				Body:      fmt.Sprintf("A %s record passed Level %d and awaits your approval.", record.FormType, record.ApprovalLevel),
				Link:      recordLink(record.ID),
			}},
		}, nil
	}

	// Current level was the last: the record is fully approved
	if err := machine.Fire(ctx, workflow.TriggerApprove); err != nil {
		return nil, err
	}
	e.logger.Info("Record fully approved",
		"record_id", record.ID, "level", record.ApprovalLevel, "actor", actor.ID)
	return &Outcome{
		Status:        entity.StatusApproved,
		ApprovalLevel: record.ApprovalLevel,
		Entry:         entry,
		Directives: []Directive{{
			Refs:      interested,
			LevelType: entity.LevelTypeUsers,
			Kind:      entity.NotificationKindApproved,
			Title:     fmt.Sprintf("%s approved", record.FormType),
			Body:      fmt.Sprintf("Your %s record completed all approval levels.", record.FormType),
			Link:      recordLink(record.ID),
		}},
	}, nil
}

// Reject terminates the current approval pass
func (e *approvalEngine) Reject(ctx context.Context, record *entity.FieldRecord, wf *entity.Workflow, actor entity.Actor, reason string, interested []string) (*Outcome, error) {
	machine := workflow.Lifecycle(workflow.State(record.Status))
	if err := machine.Fire(ctx, workflow.TriggerReject); err != nil {
		return nil, err
	}

	if !e.openRejection && !e.CanAct(record, wf, actor) {
		return nil, fmt.Errorf("%w: %s may not reject at level %d", ErrUnauthorizedActor, actor.ID, record.ApprovalLevel)
	}

	entry := &entity.ApprovalEntry{
		Level:     record.ApprovalLevel,
		Decision:  entity.DecisionRejected,
		ActorID:   actor.ID,
		ActorName: actor.DisplayName,
		Comment:   reason,
		Timestamp: time.Now(),
	}

	e.logger.Info("Record rejected",
		"record_id", record.ID, "level", record.ApprovalLevel, "actor", actor.ID, "reason", reason)
	return &Outcome{
		Status:        entity.StatusRejected,
		ApprovalLevel: record.ApprovalLevel,
		Entry:         entry,
		Directives: []Directive{{
			Refs:      interested,
			LevelType: entity.LevelTypeUsers,
			Kind:      entity.NotificationKindRejected,
			Title:     fmt.Sprintf("%s rejected", record.FormType),
			Body:      fmt.Sprintf("Your %s record was rejected: %s", record.FormType, reason),
			Link:      recordLink(record.ID),
		}},
	}, nil
}

// levelSatisfied decides whether the level's quorum is met once actorID
// acts. ANY levels are satisfied by a single action; ALL levels require
// every currently-resolved active approver to have acted within the
// current level occupancy. Approvers are re-resolved here, so membership
// and active-flag changes mid-level adjust the quorum; a deactivated
// approver never counts toward an unreachable quorum.
func (e *approvalEngine) levelSatisfied(ctx context.Context, level *entity.Level, acted map[string]bool, actorID string) (bool, error) {
	if level.ApprovalType != entity.ApprovalTypeAll {
		return true, nil
	}

	resolved, err := e.resolver.ResolveActiveApprovers(ctx, level.ApproverIDs, level.LevelType)
	if err != nil {
		return false, err
	}

	for _, id := range resolved {
		if id == actorID || acted[id] {
			continue
		}
		return false, nil
	}
	return true, nil
}

// approvalsAtCurrentLevel collects the actor ids that approved since the
// record last entered its current level: the maximal suffix of history
// holding approvals at that level. Entries from earlier levels or earlier
// submission cycles never count toward the current quorum.
func approvalsAtCurrentLevel(history []entity.ApprovalEntry, level int) map[string]bool {
	acted := make(map[string]bool)
	for i := len(history) - 1; i >= 0; i-- {
		entry := history[i]
		if entry.Level != level || entry.Decision != entity.DecisionApproved {
			break
		}
		acted[entry.ActorID] = true
	}
	return acted
}

func recordLink(recordID string) string {
	return "/records/" + recordID
}

var _ ApprovalEngine = (*approvalEngine)(nil)
