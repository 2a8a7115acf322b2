package state

import (
	"sync/atomic"
)

// State captures the handshake state of a node: Uninitialized or Active.
type State uint32

const (
	// Uninitialized is the state of a node that has not received its init
	// message yet. Only an init payload is accepted in this state.
	Uninitialized State = iota

	// Active is the state in which a node has an identity and a peer list,
	// and hands every envelope to its behavior.
	Active
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Active:
		return "Active"
	default:
		return "Unknown"
	}
}

// Manager wraps a State with get and set methods. The node loop is the only
// writer; reads may come from other goroutines, e.g. for logging.
type Manager struct {
	state State
}

// GetState returns the current state.
func (b *Manager) GetState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

// SetState sets the state.
func (b *Manager) SetState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}
