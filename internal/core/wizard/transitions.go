package wizard

import "fmt"

// Step is a persisted creation session state. Idle has no row and Commit is
// transient, so neither is a Step.
type Step int

const (
	StepAwaitTargetChannel Step = 1
	StepCollectingBindings Step = 2
	StepAwaitBody          Step = 3
)

func (s Step) String() string {
	switch s {
	case StepAwaitTargetChannel:
		return "await_target_channel"
	case StepCollectingBindings:
		return "collecting_bindings"
	case StepAwaitBody:
		return "await_body"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// InitialStep returns the step of a new session.
func InitialStep() Step {
	return StepAwaitTargetChannel
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepAwaitTargetChannel && s <= StepAwaitBody
}

// CanAdvance evaluates a step transition. Steps only move one forward.
func CanAdvance(from, to Step) GuardResult {
	if !from.Valid() || !to.Valid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown session step %s -> %s", from, to),
		}
	}
	if to != from+1 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot move session from %s to %s", from, to),
		}
	}
	return GuardResult{Allowed: true}
}
