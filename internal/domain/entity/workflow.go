package entity

import "time"

// LevelType determines how a level's approver references are interpreted
type LevelType string

const (
	LevelTypeUsers LevelType = "USERS"
	LevelTypeRoles LevelType = "ROLES"
)

// IsValid returns true if the level type is a known value
func (t LevelType) IsValid() bool {
	return t == LevelTypeUsers || t == LevelTypeRoles
}

// ApprovalType governs whether one or all resolved approvers must act
// before a level is satisfied
type ApprovalType string

const (
	ApprovalTypeAny ApprovalType = "ANY"
	ApprovalTypeAll ApprovalType = "ALL"
)

// IsValid returns true if the approval type is a known value
func (t ApprovalType) IsValid() bool {
	return t == ApprovalTypeAny || t == ApprovalTypeAll
}

// Level is one escalation rung within a workflow. ApproverIDs holds user
// identifiers when LevelType is USERS and role names when it is ROLES.
type Level struct {
	ID           string       `json:"id"`
	LevelNumber  int          `json:"level_number"`
	LevelType    LevelType    `json:"level_type"`
	ApprovalType ApprovalType `json:"approval_type"`
	ApproverIDs  []string     `json:"approver_ids"`
}

// Workflow is a named approval pipeline: an ordered sequence of levels plus
// the set of form types it governs. Level ordering is the escalation order.
type Workflow struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	IsActive      bool       `json:"is_active"`
	Levels        []Level    `json:"levels"`
	AssignedForms []FormType `json:"assigned_forms"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Governs returns true if the workflow claims the given form type
func (w *Workflow) Governs(formType FormType) bool {
	for _, f := range w.AssignedForms {
		if f == formType {
			return true
		}
	}
	return false
}

// LevelAt returns the level with the given 1-based number, or nil
func (w *Workflow) LevelAt(levelNumber int) *Level {
	for i := range w.Levels {
		if w.Levels[i].LevelNumber == levelNumber {
			return &w.Levels[i]
		}
	}
	return nil
}
