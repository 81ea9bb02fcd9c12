package service

import "errors"

var (
	// ErrUnauthorizedActor is returned when an actor is not among the
	// current level's resolved approvers
	ErrUnauthorizedActor = errors.New("actor not permitted to act at the current approval level")

	// ErrMissingLevel is returned when a record's approval level has no
	// corresponding level in the governing workflow. This indicates the
	// workflow changed under an in-flight record and must surface as a
	// blocking error, never a silent default.
	ErrMissingLevel = errors.New("approval level missing from governing workflow")

	// ErrWorkflowNotFound is returned for lookups of unknown workflow ids
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRecordNotFound is returned for lookups of unknown record ids
	ErrRecordNotFound = errors.New("record not found")

	// ErrFormOverlap is returned when saving a workflow whose assigned
	// forms are already claimed by another active workflow
	ErrFormOverlap = errors.New("form type already assigned to an active workflow")
)
