// Package status tracks the watcher's lifecycle state.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/imsgwatch/internal/bus"
)

// State represents a watcher runtime state.
type State string

const (
	Booting      State = "BOOTING"
	Initializing State = "INITIALIZING"
	Watching     State = "WATCHING"
	Stopped      State = "STOPPED"
	Error        State = "ERROR"
)

var validTransitions = map[State][]State{
	Booting:      {Initializing, Stopped, Error},
	Initializing: {Watching, Stopped, Error},
	Watching:     {Stopped, Error},
	Error:        {Stopped},
}

// Machine tracks and enforces watcher state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Emit(bus.KindStatusChanged, StatusChange{From: from, To: to})
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
