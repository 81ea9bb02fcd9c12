package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachine tracks a current state and validates trigger firings
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts the trigger, moving to the target state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger
}

// Builder assembles a transition table and stamps out machine instances
type Builder struct {
	transitions map[State]map[Trigger][]transition
}

type transition struct {
	target State
	guard  GuardFunc
}

// NewBuilder creates an empty state machine builder
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger][]transition)}
}

// Permit allows trigger to move from state to target
func (b *Builder) Permit(from State, trigger Trigger, target State) *Builder {
	return b.PermitIf(from, trigger, target, nil)
}

// PermitIf allows trigger to move from state to target when guard passes
func (b *Builder) PermitIf(from State, trigger Trigger, target State, guard GuardFunc) *Builder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid source state: %s", from))
	}
	if !target.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", target))
	}

	if b.transitions[from] == nil {
		b.transitions[from] = make(map[Trigger][]transition)
	}
	b.transitions[from][trigger] = append(b.transitions[from][trigger], transition{
		target: target,
		guard:  guard,
	})
	return b
}

// Build creates a machine positioned at the given initial state. The machine
// shares the builder's transition table; builders are configured once and
// never mutated afterwards.
func (b *Builder) Build(initial State) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}
	return &stateMachine{current: initial, transitions: b.transitions}
}

type stateMachine struct {
	current     State
	transitions map[State]map[Trigger][]transition
}

func (m *stateMachine) State() State {
	return m.current
}

func (m *stateMachine) CanFire(trigger Trigger) bool {
	return len(m.transitions[m.current][trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	candidates := m.transitions[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.target
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from %s", ErrGuardFailed, trigger, m.current)
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	configured := m.transitions[m.current]
	triggers := make([]Trigger, 0, len(configured))
	for trigger := range configured {
		triggers = append(triggers, trigger)
	}
	return triggers
}
