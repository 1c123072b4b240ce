// SPDX-License-Identifier: MIT
//
// Package actuator defines the drone control surface the dispatch loop
// drives, the session state machine both backends share, and the error
// taxonomy that tells the loop which failures are fatal.
package actuator

import (
	"context"

	"dronebeat/internal/moves"
)

// Actuator is one dance session's control surface. Implementations
// back it with real hardware or a simulator; the dispatch loop cannot
// tell the difference.
//
// Lifecycle: Connect, Begin, any number of Executes, End. End is
// best-effort from any state, including after a failed Connect, and is
// called exactly once per session by the orchestrator. Every method
// must bound its own blocking time so shutdown latency stays bounded
// even when the backend cannot be interrupted mid-call.
type Actuator interface {
	// Connect establishes the control link. Failure is a
	// *ConnectionError and is fatal to the session.
	Connect(ctx context.Context) error

	// Begin starts the performance (takeoff for hardware). It runs
	// once, after Connect. A battery below the safety floor is a
	// *SafetyFault; a rejected takeoff is an *ActuationError. Either
	// way the session aborts before the dance starts.
	Begin(ctx context.Context) error

	// Execute performs one move. Only legal while Airborne. Failures
	// are *ActuationError (skip the move, keep dancing) or
	// *SafetyFault (stop the session).
	Execute(ctx context.Context, move moves.Move) error

	// End lands and disconnects, best-effort from whatever state the
	// session is in. Errors are for logging only; callers must not
	// treat a failed End as anything but a bad day.
	End() error

	// Battery reports the latest known charge percentage, 0-100.
	Battery() int

	// State reports the session state.
	State() State
}
