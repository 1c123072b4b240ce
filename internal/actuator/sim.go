// SPDX-License-Identifier: MIT
package actuator

import (
	"context"
	"fmt"
	"time"

	applog "dronebeat/internal/log"
	"dronebeat/internal/moves"
)

// Simulator performs moves as timed log lines instead of flight
// commands. It is the default backend: the full pipeline, including
// move pacing and battery bookkeeping, runs with no hardware on the
// network.
type Simulator struct {
	session Session
	moved   int
}

// NewSimulator returns a simulator ready to Connect.
func NewSimulator() *Simulator {
	return &Simulator{}
}

var _ Actuator = (*Simulator)(nil)

// Connect brings the simulated drone online with a full battery.
func (s *Simulator) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Addr: "simulator", Err: err}
	}
	if err := s.session.Advance(Connected, Disconnected); err != nil {
		return &ConnectionError{Addr: "simulator", Err: err}
	}
	s.session.SetBattery(100)
	applog.Infof("simulator connected, battery %d%%", s.session.Battery())
	return nil
}

// Begin takes off.
func (s *Simulator) Begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.session.Advance(Airborne, Connected); err != nil {
		return &ActuationError{Err: err}
	}
	applog.Infof("simulator airborne")
	return nil
}

// Execute performs one move by sleeping for its duration. The sleep
// is cut short when ctx is canceled, so a shutting-down dispatch loop
// never waits on a pretend drone.
func (s *Simulator) Execute(ctx context.Context, move moves.Move) error {
	if s.session.State() != Airborne {
		return &ActuationError{Move: move.Name, Err: fmt.Errorf("not airborne (state %s)", s.session.State())}
	}
	if move.Mode != moves.Simulated {
		return &ActuationError{Move: move.Name, Err: fmt.Errorf("%s move routed to simulator", move.Mode)}
	}

	applog.Infof("move: %s", move)
	if move.Duration > 0 {
		timer := time.NewTimer(move.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return &ActuationError{Move: move.Name, Err: ctx.Err()}
		}
	}

	s.moved++
	if pct := s.session.Battery(); pct > 0 {
		s.session.SetBattery(pct - 1)
	}
	return nil
}

// End lands and disconnects. It converges from any state and never
// fails; there is nothing a caller could do about a simulated landing
// going wrong anyway.
func (s *Simulator) End() error {
	if s.session.State() == Airborne {
		applog.Infof("simulator landing after %d moves", s.moved)
		s.session.Force(Landed)
	}
	s.session.Force(Disconnected)
	return nil
}

// Battery returns the simulated charge. Each move costs one percent.
func (s *Simulator) Battery() int {
	return s.session.Battery()
}

// State returns the lifecycle state.
func (s *Simulator) State() State {
	return s.session.State()
}
