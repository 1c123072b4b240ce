// SPDX-License-Identifier: MIT
package actuator

import (
	"errors"
	"fmt"
	"testing"
)

func TestConnectionError(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *ConnectionError
		want string
	}{
		{
			name: "with address",
			err:  &ConnectionError{Addr: "192.168.10.1:8889", Err: cause},
			want: `connection to 192.168.10.1:8889 failed: connection refused`,
		},
		{
			name: "without address",
			err:  &ConnectionError{Err: cause},
			want: `connection failed: connection refused`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("expected errors.Is to find the wrapped cause")
			}
		})
	}
}

func TestActuationError(t *testing.T) {
	cause := errors.New("command rejected")

	tests := []struct {
		name string
		err  *ActuationError
		want string
	}{
		{
			name: "named move",
			err:  &ActuationError{Move: "quarter spin", Err: cause},
			want: `move "quarter spin" failed: command rejected`,
		},
		{
			name: "lifecycle command",
			err:  &ActuationError{Err: cause},
			want: `actuation failed: command rejected`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("expected errors.Is to find the wrapped cause")
			}
		})
	}
}

func TestSafetyFault(t *testing.T) {
	tests := []struct {
		name string
		err  *SafetyFault
		want string
	}{
		{
			name: "battery fault",
			err:  &SafetyFault{Reason: "battery below floor", Battery: 12},
			want: "safety fault: battery below floor (battery 12%)",
		},
		{
			name: "non-battery fault",
			err:  &SafetyFault{Reason: "motor stop reported", Battery: -1},
			want: "safety fault: motor stop reported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	// The dispatch loop sorts failures with errors.As after they pass
	// through fmt.Errorf wrapping; the taxonomy has to survive that.
	wrapped := fmt.Errorf("session aborted: %w", &SafetyFault{Reason: "battery below floor", Battery: 9})

	var fault *SafetyFault
	if !errors.As(wrapped, &fault) {
		t.Fatal("expected errors.As to recover *SafetyFault")
	}
	if fault.Battery != 9 {
		t.Errorf("Battery = %d, want 9", fault.Battery)
	}

	var actuation *ActuationError
	if errors.As(wrapped, &actuation) {
		t.Error("SafetyFault must not match *ActuationError")
	}
}
