// SPDX-License-Identifier: MIT
package actuator

import "fmt"

// ConnectionError means the control link could not be established.
// Always fatal: the session aborts during startup.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("connection failed: %v", e.Err)
	}
	return fmt.Sprintf("connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ActuationError means one command failed mid-session. The dispatch
// loop logs it, skips the move, and keeps dancing.
type ActuationError struct {
	Move string // empty for lifecycle commands like takeoff
	Err  error
}

func (e *ActuationError) Error() string {
	if e.Move == "" {
		return fmt.Sprintf("actuation failed: %v", e.Err)
	}
	return fmt.Sprintf("move %q failed: %v", e.Move, e.Err)
}

func (e *ActuationError) Unwrap() error { return e.Err }

// SafetyFault means continuing is unsafe: battery under the floor or
// the hardware reporting a fault. The session stops dispatching, still
// attempts End, and the process exits non-zero.
type SafetyFault struct {
	Reason  string
	Battery int // percentage at fault time, -1 when not battery-related
}

func (e *SafetyFault) Error() string {
	if e.Battery >= 0 {
		return fmt.Sprintf("safety fault: %s (battery %d%%)", e.Reason, e.Battery)
	}
	return fmt.Sprintf("safety fault: %s", e.Reason)
}
