package entity

import "time"

// RecordStatus is the approval status of a field record
type RecordStatus string

const (
	StatusDraft           RecordStatus = "DRAFT"
	StatusPendingApproval RecordStatus = "PENDING_APPROVAL"
	StatusApproved        RecordStatus = "APPROVED"
	StatusRejected        RecordStatus = "REJECTED"
)

var validStatuses = map[RecordStatus]bool{
	StatusDraft:           true,
	StatusPendingApproval: true,
	StatusApproved:        true,
	StatusRejected:        true,
}

// IsValid returns true if the status is a known value
func (s RecordStatus) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true if no further transition is defined from the
// status. Rejected is not terminal: a rejected record may be resubmitted.
func (s RecordStatus) IsTerminal() bool {
	return s == StatusApproved
}

// String returns the string representation of the status
func (s RecordStatus) String() string {
	return string(s)
}

// Decision records the outcome of a single approval action
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// ApprovalEntry is one row of a record's append-only approval history
type ApprovalEntry struct {
	Level     int       `json:"level"`
	Decision  Decision  `json:"decision"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ApprovalState is the generic projection every approvable record exposes
// to the engine. ApprovalLevel is meaningful only while the status is
// PENDING_APPROVAL.
type ApprovalState struct {
	Status        RecordStatus    `json:"status"`
	ApprovalLevel int             `json:"approval_level"`
	History       []ApprovalEntry `json:"approval_history"`
}

// FieldRecord is a stored piece of field paperwork together with its
// approval state. FormData carries the form-specific fields as JSON; the
// engine never looks inside it.
type FieldRecord struct {
	ID          string    `json:"id"`
	FormType    FormType  `json:"form_type"`
	SubmitterID string    `json:"submitter_id"`
	Project     string    `json:"project,omitempty"`
	FormData    string    `json:"form_data"`
	ApprovalState
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor is the identity attempting an approval action
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AppRole     string `json:"app_role"`
	JobTitle    string `json:"job_title"`
}
