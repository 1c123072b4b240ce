// SPDX-License-Identifier: MIT
package actuator

import (
	"fmt"
	"sync"
)

// State is where a session sits in its lifecycle. The legal path is
// Disconnected -> Connected -> Airborne -> Landed -> Disconnected,
// with Faulted reachable from Connected or Airborne. A Faulted
// session only exits through End.
type State uint8

const (
	Disconnected State = iota
	Connected
	Airborne
	Landed
	Faulted
)

var stateNames = map[State]string{
	Disconnected: "disconnected",
	Connected:    "connected",
	Airborne:     "airborne",
	Landed:       "landed",
	Faulted:      "faulted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", uint8(s))
}

// Session is the explicit per-session state both actuator backends
// share: lifecycle state plus the latest battery reading. It replaces
// any notion of global drone state; the orchestrator owns exactly one
// for the session's lifetime.
//
// Reads and writes are mutex-guarded because hardware backends update
// battery from a telemetry goroutine while the dispatch loop reads it.
type Session struct {
	mu      sync.Mutex
	state   State
	battery int
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Battery returns the latest battery percentage.
func (s *Session) Battery() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.battery
}

// SetBattery records a battery reading, clamped to 0-100.
func (s *Session) SetBattery(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	s.mu.Lock()
	s.battery = pct
	s.mu.Unlock()
}

// Advance moves to a new state, but only from one of the allowed
// current states. The error reports the illegal transition; callers
// wrap it in their taxonomy type.
func (s *Session) Advance(to State, from ...State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range from {
		if s.state == f {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid transition from %s to %s", s.state, to)
}

// Force sets the state unconditionally. Reserved for teardown and
// fault paths, where the machine must converge no matter where it
// started.
func (s *Session) Force(to State) {
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
}
