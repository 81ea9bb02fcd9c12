package workflow

// lifecycle is the shared transition table for record approval:
//
//	Draft --Submit--> PendingApproval
//	PendingApproval --Advance--> PendingApproval (next level)
//	PendingApproval --Approve--> Approved (final level satisfied)
//	PendingApproval --Reject--> Rejected
//	Rejected --Submit--> PendingApproval (restarts at level 1)
var lifecycle = NewBuilder().
	Permit(StateDraft, TriggerSubmit, StatePendingApproval).
	Permit(StatePendingApproval, TriggerAdvance, StatePendingApproval).
	Permit(StatePendingApproval, TriggerApprove, StateApproved).
	Permit(StatePendingApproval, TriggerReject, StateRejected).
	Permit(StateRejected, TriggerSubmit, StatePendingApproval)

// Lifecycle returns a machine positioned at the given state, configured
// with the record approval transition table.
func Lifecycle(current State) StateMachine {
	return lifecycle.Build(current)
}
