package manager

import (
	"github.com/looplab/fsm"
)

// Slot states and transition events. A slot is NONE while no active row
// exists for its key and ACTIVE while exactly one does; RETIRED is a
// per-row terminal state, not a slot state.
const (
	StateNone   = "none"
	StateActive = "active"

	TransitionCreate  = "create"
	TransitionUpgrade = "upgrade"
	TransitionSwitch  = "switch"
	TransitionRetire  = "retire"

	// Cascade transitions originate from an artifact or artifactory
	// operation rather than from the slot itself.
	TransitionCascadeSwitch = "cascade_switch"
	TransitionCascadeRetire = "cascade_retire"
)

// newSlotLifecycle builds the state machine guarding which transitions are
// legal from the slot's current state.
func newSlotLifecycle(current string) *fsm.FSM {
	return fsm.NewFSM(
		current,
		fsm.Events{
			{Name: TransitionCreate, Src: []string{StateNone}, Dst: StateActive},
			{Name: TransitionUpgrade, Src: []string{StateActive}, Dst: StateActive},
			{Name: TransitionSwitch, Src: []string{StateActive}, Dst: StateActive},
			{Name: TransitionRetire, Src: []string{StateActive}, Dst: StateNone},
		},
		fsm.Callbacks{},
	)
}

// transitionError maps an illegal event to the business outcome the caller
// reports: creating over an occupied slot is a conflict, anything that
// requires an active row on an empty slot is not found.
func transitionError(transition string) error {
	if transition == TransitionCreate {
		return ErrDeploymentAlreadyActive
	}

	return ErrDeploymentNotFound
}

func checkTransition(current, transition string) error {
	if !newSlotLifecycle(current).Can(transition) {
		return transitionError(transition)
	}

	return nil
}
