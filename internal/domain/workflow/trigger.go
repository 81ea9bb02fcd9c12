package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerSubmit sends a draft or rejected record into approval
	TriggerSubmit Trigger = "SUBMIT"

	// TriggerAdvance moves a pending record to its next approval level
	TriggerAdvance Trigger = "ADVANCE"

	// TriggerApprove completes the final approval level
	TriggerApprove Trigger = "APPROVE"

	// TriggerReject terminates the current approval pass
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
