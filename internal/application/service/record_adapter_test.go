package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldtrack/paperflow/internal/domain/entity"
	"github.com/fieldtrack/paperflow/internal/domain/workflow"
)

type adapterFixture struct {
	records     RecordService
	registry    WorkflowRegistry
	recordRepo  *mockRecordRepo
	historyRepo *mockHistoryRepo
	inbox       *mockNotificationRepo
	directory   *mockDirectory
}

func newAdapterFixture(policy UngatedPolicy) *adapterFixture {
	directory := testDirectory()
	resolver := NewIdentityResolver(directory, nopLogger{})
	workflowRepo := newMockWorkflowRepo()
	registry := NewWorkflowRegistry(workflowRepo, nopLogger{})
	engine := NewApprovalEngine(resolver, false, nopLogger{})
	inbox := &mockNotificationRepo{}
	dispatcher := NewNotificationDispatcher(inbox, resolver, nopLogger{})
	recordRepo := newMockRecordRepo()
	historyRepo := newMockHistoryRepo()

	records := NewRecordService(
		recordRepo, historyRepo, registry, engine, dispatcher,
		directory, mockTxManager{}, policy, nopLogger{},
	)

	return &adapterFixture{
		records:     records,
		registry:    registry,
		recordRepo:  recordRepo,
		historyRepo: historyRepo,
		inbox:       inbox,
		directory:   directory,
	}
}

func (f *adapterFixture) mustCreateWorkflow(t *testing.T) *entity.Workflow {
	t.Helper()
	wf := &entity.Workflow{
		Name:     "Timesheet Approval",
		IsActive: true,
		Levels: []entity.Level{
			{LevelType: entity.LevelTypeUsers, ApprovalType: entity.ApprovalTypeAny, ApproverIDs: []string{"u1"}},
			{LevelType: entity.LevelTypeUsers, ApprovalType: entity.ApprovalTypeAny, ApproverIDs: []string{"u2"}},
		},
		AssignedForms: []entity.FormType{entity.FormTimesheet},
	}
	if err := f.registry.CreateWorkflow(context.Background(), wf); err != nil {
		t.Fatalf("CreateWorkflow() error = %v", err)
	}
	return wf
}

func (f *adapterFixture) mustCreateRecord(t *testing.T, formType entity.FormType) *entity.FieldRecord {
	t.Helper()
	record := &entity.FieldRecord{
		FormType:    formType,
		SubmitterID: "u5",
		Project:     "North Yard",
		FormData:    `{"hours": 8}`,
	}
	if err := f.records.CreateRecord(context.Background(), record); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	return record
}

func (f *adapterFixture) unreadFor(t *testing.T, userID string) []*entity.Notification {
	t.Helper()
	var out []*entity.Notification
	for _, n := range f.inbox.notifications {
		if n.RecipientID == userID && !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}

func TestRecordService_FullTwoLevelApproval(t *testing.T) {
	f := newAdapterFixture(UngatedAutoApprove)
	f.mustCreateWorkflow(t)
	record := f.mustCreateRecord(t, entity.FormTimesheet)
	ctx := context.Background()

	// Submit: pending at level 1, u1 notified
	submitted, err := f.records.Submit(ctx, record.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if submitted.Status != entity.StatusPendingApproval || submitted.ApprovalLevel != 1 {
		t.Fatalf("after submit: status=%s level=%d, want PENDING_APPROVAL level 1", submitted.Status, submitted.ApprovalLevel)
	}
	if len(f.unreadFor(t, "u1")) != 1 {
		t.Fatalf("u1 unread = %d, want 1", len(f.unreadFor(t, "u1")))
	}

	// u1 approves: advances to level 2, u2 notified
	advanced, err := f.records.Approve(ctx, record.ID, "u1", "looks right")
	if err != nil {
		t.Fatalf("Approve(u1) error = %v", err)
	}
	if advanced.Status != entity.StatusPendingApproval || advanced.ApprovalLevel != 2 {
		t.Fatalf("after u1: status=%s level=%d, want PENDING_APPROVAL level 2", advanced.Status, advanced.ApprovalLevel)
	}
	if len(f.unreadFor(t, "u2")) != 1 {
		t.Fatalf("u2 unread = %d, want 1", len(f.unreadFor(t, "u2")))
	}

	// u2 approves the final level: fully approved, submitter notified
	final, err := f.records.Approve(ctx, record.ID, "u2", "")
	if err != nil {
		t.Fatalf("Approve(u2) error = %v", err)
	}
	if final.Status != entity.StatusApproved {
		t.Fatalf("after u2: status=%s, want APPROVED", final.Status)
	}
	if len(final.History) != 2 {
		t.Fatalf("history = %d entries, want 2", len(final.History))
	}
	for i, entry := range final.History {
		if entry.Decision != entity.DecisionApproved {
			t.Errorf("history[%d].Decision = %s, want APPROVED", i, entry.Decision)
		}
	}
	if len(f.unreadFor(t, "u5")) != 1 {
		t.Errorf("submitter unread = %d, want 1", len(f.unreadFor(t, "u5")))
	}
}

func TestRecordService_RejectAndResubmit(t *testing.T) {
	f := newAdapterFixture(UngatedAutoApprove)
	f.mustCreateWorkflow(t)
	record := f.mustCreateRecord(t, entity.FormTimesheet)
	ctx := context.Background()

	if _, err := f.records.Submit(ctx, record.ID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	rejected, err := f.records.Reject(ctx, record.ID, "u1", "missing hours")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if rejected.Status != entity.StatusRejected {
		t.Fatalf("status = %s, want REJECTED", rejected.Status)
	}
	if len(rejected.History) != 1 || rejected.History[0].Comment != "missing hours" {
		t.Fatalf("history = %+v, want one entry with the rejection reason", rejected.History)
	}

	// Resubmission restarts at level 1
	resubmitted, err := f.records.Submit(ctx, record.ID)
	if err != nil {
		t.Fatalf("Submit() after rejection error = %v", err)
	}
	if resubmitted.Status != entity.StatusPendingApproval || resubmitted.ApprovalLevel != 1 {
		t.Fatalf("after resubmit: status=%s level=%d, want PENDING_APPROVAL level 1", resubmitted.Status, resubmitted.ApprovalLevel)
	}
	// The rejection stays in the audit trail
	if len(resubmitted.History) != 1 {
		t.Errorf("history = %d entries, want 1 preserved", len(resubmitted.History))
	}
}

func TestRecordService_UngatedAutoApprove(t *testing.T) {
	f := newAdapterFixture(UngatedAutoApprove)
	f.mustCreateWorkflow(t) // governs timesheets only
	record := f.mustCreateRecord(t, entity.FormBillOfLading)

	submitted, err := f.records.Submit(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if submitted.Status != entity.StatusApproved {
		t.Errorf("status = %s, want APPROVED under auto-approve policy", submitted.Status)
	}
	if len(submitted.History) != 0 {
		t.Errorf("history = %d entries, want 0 for ungated approval", len(submitted.History))
	}
	if len(f.inbox.notifications) != 0 {
		t.Errorf("notifications = %d, want 0 for ungated approval", len(f.inbox.notifications))
	}
}

func TestRecordService_UngatedManualLeavesDraft(t *testing.T) {
	f := newAdapterFixture(UngatedManual)
	record := f.mustCreateRecord(t, entity.FormBillOfLading)

	submitted, err := f.records.Submit(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if submitted.Status != entity.StatusDraft {
		t.Errorf("status = %s, want DRAFT under manual policy", submitted.Status)
	}
}

func TestRecordService_UnknownActor(t *testing.T) {
	f := newAdapterFixture(UngatedAutoApprove)
	f.mustCreateWorkflow(t)
	record := f.mustCreateRecord(t, entity.FormTimesheet)
	ctx := context.Background()

	if _, err := f.records.Submit(ctx, record.ID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := f.records.Approve(ctx, record.ID, "ghost", ""); !errors.Is(err, ErrUnauthorizedActor) {
		t.Errorf("Approve(ghost) error = %v, want ErrUnauthorizedActor", err)
	}

	// Inactive employees cannot act either
	if _, err := f.records.Approve(ctx, record.ID, "u4", ""); !errors.Is(err, ErrUnauthorizedActor) {
		t.Errorf("Approve(inactive) error = %v, want ErrUnauthorizedActor", err)
	}
}

func TestRecordService_PendingRecordLosesWorkflow(t *testing.T) {
	f := newAdapterFixture(UngatedAutoApprove)
	wf := f.mustCreateWorkflow(t)
	record := f.mustCreateRecord(t, entity.FormTimesheet)
	ctx := context.Background()

	if _, err := f.records.Submit(ctx, record.ID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := f.registry.SetActive(ctx, wf.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	if _, err := f.records.Approve(ctx, record.ID, "u1", ""); !errors.Is(err, ErrMissingLevel) {
		t.Errorf("Approve() after deactivation error = %v, want ErrMissingLevel", err)
	}
}

func TestRecordService_PendingRecordCannotResubmitUngated(t *testing.T) {
	f := newAdapterFixture(UngatedAutoApprove)
	wf := f.mustCreateWorkflow(t)
	record := f.mustCreateRecord(t, entity.FormTimesheet)
	ctx := context.Background()

	if _, err := f.records.Submit(ctx, record.ID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := f.registry.SetActive(ctx, wf.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	// A second submit must not route the pending record through the
	// ungated auto-approve path
	if _, err := f.records.Submit(ctx, record.ID); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("Submit() on pending record error = %v, want ErrInvalidTransition", err)
	}

	stored, err := f.records.GetRecord(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if stored.Status != entity.StatusPendingApproval {
		t.Errorf("status = %s, want PENDING_APPROVAL untouched", stored.Status)
	}
}

func TestRecordService_UnknownRecord(t *testing.T) {
	f := newAdapterFixture(UngatedAutoApprove)

	if _, err := f.records.Submit(context.Background(), "nope"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Submit(nope) error = %v, want ErrRecordNotFound", err)
	}
}
