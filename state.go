package achan

import (
	"sync/atomic"
)

// controllerState represents a Controller's position in its monotonic
// lifecycle (spec §3, "Controller state").
//
// State Machine:
//
//	Initial (0) → Started (1)   [first Next starts the executor]
//	Initial (0) → Stopped (2)   [throw before the executor started]
//	Initial (0) → Finished (3)  [return before the executor started]
//	Started (1) → Stopped (2)   [close/stop, return, throw]
//	Stopped (2) → Finished (3)  [buffer and push queue drained]
//	Stopped (2) → Rejected (4)  [terminal outcome is an error]
//
// State never moves backwards (invariant I3). Finished and Rejected are
// both terminal; Rejected is a distinct value purely so callers inspecting
// state can distinguish a clean finish from an error outcome without also
// consulting the outcome slot.
type controllerState int32

const (
	// stateInitial: executor not started.
	stateInitial controllerState = iota
	// stateStarted: executor running or scheduled.
	stateStarted
	// stateStopped: stop signal delivered; no new values accepted; buffer may still drain.
	stateStopped
	// stateFinished: buffer cleared; only terminal iterations remain.
	stateFinished
	// stateRejected: terminal outcome is an error (equivalent terminal state to stateFinished).
	stateRejected
)

// String returns a human-readable representation of the state.
func (s controllerState) String() string {
	switch s {
	case stateInitial:
		return "Initial"
	case stateStarted:
		return "Started"
	case stateStopped:
		return "Stopped"
	case stateFinished:
		return "Finished"
	case stateRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// atomicState is a lock-free holder for controllerState, read without
// holding the Controller's mutex. The Controller itself only ever mutates
// state while holding its mutex; the atomic load lets diagnostics (e.g.
// Channel.State) read it cheaply from any goroutine.
type atomicState struct {
	v atomic.Int32
}

func newAtomicState() *atomicState {
	s := &atomicState{}
	s.v.Store(int32(stateInitial))
	return s
}

// Load returns the current state atomically.
func (s *atomicState) Load() controllerState {
	return controllerState(s.v.Load())
}

// Store atomically stores a new state. Callers must already hold whatever
// lock serializes transitions; this type does not itself enforce
// monotonicity (invariant I3 is the Controller's responsibility).
func (s *atomicState) Store(state controllerState) {
	s.v.Store(int32(state))
}

// isTerminal returns true if the state is Finished or Rejected.
func (s *atomicState) isTerminal() bool {
	switch s.Load() {
	case stateFinished, stateRejected:
		return true
	default:
		return false
	}
}

// atLeastStopped returns true once the state has reached Stopped or beyond.
func (s *atomicState) atLeastStopped() bool {
	return s.Load() >= stateStopped
}
