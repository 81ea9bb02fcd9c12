package service

import (
	"context"
	"errors"

	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// In-memory fakes shared by the service tests.

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockDirectory struct {
	employees []*entity.Employee
	listErr   error
}

func (m *mockDirectory) ListActive(ctx context.Context) ([]*entity.Employee, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var active []*entity.Employee
	for _, emp := range m.employees {
		if emp.IsActive {
			active = append(active, emp)
		}
	}
	return active, nil
}

func (m *mockDirectory) GetByID(ctx context.Context, id string) (*entity.Employee, error) {
	for _, emp := range m.employees {
		if emp.ID == id {
			return emp, nil
		}
	}
	return nil, nil
}

type mockWorkflowRepo struct {
	order     []string
	workflows map[string]*entity.Workflow
}

// copyWorkflow clones a workflow deeply enough that callers mutating the
// returned value (or the original) cannot alias the stored copy, matching
// what a real persistence layer would return.
func copyWorkflow(wf *entity.Workflow) *entity.Workflow {
	copied := *wf
	copied.Levels = make([]entity.Level, len(wf.Levels))
	for i, lvl := range wf.Levels {
		copied.Levels[i] = lvl
		copied.Levels[i].ApproverIDs = append([]string(nil), lvl.ApproverIDs...)
	}
	copied.AssignedForms = append([]entity.FormType(nil), wf.AssignedForms...)
	return &copied
}

func newMockWorkflowRepo() *mockWorkflowRepo {
	return &mockWorkflowRepo{workflows: make(map[string]*entity.Workflow)}
}

func (m *mockWorkflowRepo) Create(ctx context.Context, wf *entity.Workflow) error {
	if _, exists := m.workflows[wf.ID]; exists {
		return errors.New("duplicate workflow id")
	}
	m.workflows[wf.ID] = copyWorkflow(wf)
	m.order = append(m.order, wf.ID)
	return nil
}

func (m *mockWorkflowRepo) GetByID(ctx context.Context, id string) (*entity.Workflow, error) {
	wf, ok := m.workflows[id]
	if !ok {
		return nil, nil
	}
	return copyWorkflow(wf), nil
}

func (m *mockWorkflowRepo) Update(ctx context.Context, wf *entity.Workflow) error {
	if _, ok := m.workflows[wf.ID]; !ok {
		return errors.New("workflow not found")
	}
	m.workflows[wf.ID] = copyWorkflow(wf)
	return nil
}

func (m *mockWorkflowRepo) Delete(ctx context.Context, id string) error {
	delete(m.workflows, id)
	for i, stored := range m.order {
		if stored == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockWorkflowRepo) List(ctx context.Context) ([]*entity.Workflow, error) {
	var out []*entity.Workflow
	for _, id := range m.order {
		out = append(out, copyWorkflow(m.workflows[id]))
	}
	return out, nil
}

func (m *mockWorkflowRepo) ListActive(ctx context.Context) ([]*entity.Workflow, error) {
	var out []*entity.Workflow
	for _, id := range m.order {
		if m.workflows[id].IsActive {
			copied := *m.workflows[id]
			out = append(out, &copied)
		}
	}
	return out, nil
}

type mockRecordRepo struct {
	records map[string]*entity.FieldRecord
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: make(map[string]*entity.FieldRecord)}
}

func (m *mockRecordRepo) Create(ctx context.Context, record *entity.FieldRecord) error {
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

func (m *mockRecordRepo) GetByID(ctx context.Context, id string) (*entity.FieldRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	copied := *record
	copied.History = nil
	return &copied, nil
}

func (m *mockRecordRepo) UpdateApprovalState(ctx context.Context, id string, status entity.RecordStatus, level int) error {
	record, ok := m.records[id]
	if !ok {
		return errors.New("record not found")
	}
	record.Status = status
	record.ApprovalLevel = level
	return nil
}

func (m *mockRecordRepo) ListByFormType(ctx context.Context, formType entity.FormType, limit, offset int) ([]*entity.FieldRecord, error) {
	var out []*entity.FieldRecord
	for _, record := range m.records {
		if record.FormType == formType {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockRecordRepo) ListByStatus(ctx context.Context, status entity.RecordStatus, limit, offset int) ([]*entity.FieldRecord, error) {
	var out []*entity.FieldRecord
	for _, record := range m.records {
		if record.Status == status {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

type mockHistoryRepo struct {
	entries map[string][]entity.ApprovalEntry
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{entries: make(map[string][]entity.ApprovalEntry)}
}

func (m *mockHistoryRepo) Append(ctx context.Context, recordID string, entry *entity.ApprovalEntry) error {
	m.entries[recordID] = append(m.entries[recordID], *entry)
	return nil
}

func (m *mockHistoryRepo) ListByRecordID(ctx context.Context, recordID string) ([]entity.ApprovalEntry, error) {
	return append([]entity.ApprovalEntry{}, m.entries[recordID]...), nil
}

type mockNotificationRepo struct {
	notifications []*entity.Notification
	createErr     error
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.notifications = append(m.notifications, notification)
	return nil
}

func (m *mockNotificationRepo) ListUnread(ctx context.Context, recipientID string) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string) error {
	for _, n := range m.notifications {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return errors.New("notification not found")
}

type mockTxManager struct{}

func (mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
