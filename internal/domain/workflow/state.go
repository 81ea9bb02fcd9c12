package workflow

// State represents a record's position in the approval lifecycle
type State string

const (
	StateDraft           State = "DRAFT"
	StatePendingApproval State = "PENDING_APPROVAL"
	StateApproved        State = "APPROVED"
	StateRejected        State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:           true,
	StatePendingApproval: true,
	StateApproved:        true,
	StateRejected:        true,
}

// Rejected is not terminal: it still permits Submit (resubmission)
var terminalStates = map[State]bool{
	StateApproved: true,
}

// IsTerminal returns true if the state permits no further transitions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
