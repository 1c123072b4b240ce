// SPDX-License-Identifier: MIT
//
// Package tello drives a Ryze Tello over its text-command UDP protocol.
// Commands go to the control port and each expects an "ok"/"error"
// reply; the drone pushes telemetry records to a separate state port.
package tello

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"dronebeat/internal/actuator"
	applog "dronebeat/internal/log"
	"dronebeat/internal/moves"
)

const (
	// DefaultAddr is the control endpoint the drone exposes on its own
	// access point.
	DefaultAddr = "192.168.10.1:8889"

	// DefaultStateAddr is where the drone pushes telemetry.
	DefaultStateAddr = ":8890"

	defaultCommandTimeout = 3 * time.Second
	defaultMoveTimeout    = 10 * time.Second
	defaultBatteryFloor   = 15
)

// Config carries the connection endpoints and safety limits for one
// drone session.
type Config struct {
	Addr           string        // control host:port
	StateAddr      string        // local bind for telemetry
	CommandTimeout time.Duration // short commands: command, battery?
	MoveTimeout    time.Duration // long commands: takeoff, land, moves
	BatteryFloor   int           // percent below which flying refuses
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.StateAddr == "" {
		c.StateAddr = DefaultStateAddr
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = defaultCommandTimeout
	}
	if c.MoveTimeout <= 0 {
		c.MoveTimeout = defaultMoveTimeout
	}
	if c.BatteryFloor <= 0 {
		c.BatteryFloor = defaultBatteryFloor
	}
}

// Driver is the hardware actuator. All commands run serially over one
// control connection; the only concurrent touch is the state listener
// refreshing the session battery.
type Driver struct {
	config  Config
	session actuator.Session
	conn    *controlConn
	state   *stateListener
	endOnce sync.Once
}

// NewDriver returns a driver ready to Connect. Zero config fields fall
// back to the stock Tello endpoints and limits.
func NewDriver(config Config) *Driver {
	config.applyDefaults()
	return &Driver{config: config}
}

var _ actuator.Actuator = (*Driver)(nil)

// Connect dials the control port, switches the drone into SDK mode and
// reads the initial battery level. The telemetry listener keeps that
// level fresh for the rest of the session; failing to bind it is only
// a warning because the battery query already succeeded.
func (d *Driver) Connect(ctx context.Context) error {
	if err := d.session.Advance(actuator.Connected, actuator.Disconnected); err != nil {
		return &actuator.ConnectionError{Addr: d.config.Addr, Err: err}
	}

	conn, err := dialControl(d.config.Addr)
	if err != nil {
		d.session.Force(actuator.Disconnected)
		return &actuator.ConnectionError{Addr: d.config.Addr, Err: err}
	}

	reply, err := conn.roundTrip(ctx, "command", d.config.CommandTimeout)
	if err == nil && reply != "ok" {
		err = fmt.Errorf("SDK mode rejected: %q", reply)
	}
	if err == nil {
		var pct int
		pct, err = d.queryBattery(ctx, conn)
		if err == nil {
			d.session.SetBattery(pct)
			applog.Infof("connected to %s, battery %d%%", d.config.Addr, pct)
		}
	}
	if err != nil {
		conn.Close()
		d.session.Force(actuator.Disconnected)
		return &actuator.ConnectionError{Addr: d.config.Addr, Err: err}
	}

	d.conn = conn
	if listener, err := listenState(d.config.StateAddr, d.session.SetBattery); err != nil {
		applog.Warnf("telemetry unavailable on %s: %v", d.config.StateAddr, err)
	} else {
		d.state = listener
	}
	return nil
}

func (d *Driver) queryBattery(ctx context.Context, conn *controlConn) (int, error) {
	reply, err := conn.roundTrip(ctx, "battery?", d.config.CommandTimeout)
	if err != nil {
		return 0, err
	}
	pct, err := strconv.Atoi(reply)
	if err != nil {
		return 0, fmt.Errorf("unreadable battery reply %q", reply)
	}
	return pct, nil
}

// Begin takes off. Refused outright when the battery sits below the
// safety floor; a rejected takeoff is an actuation failure.
func (d *Driver) Begin(ctx context.Context) error {
	if pct := d.session.Battery(); pct < d.config.BatteryFloor {
		d.session.Force(actuator.Faulted)
		return &actuator.SafetyFault{Reason: "battery below floor for takeoff", Battery: pct}
	}

	reply, err := d.conn.roundTrip(ctx, "takeoff", d.config.MoveTimeout)
	if err != nil {
		return &actuator.ActuationError{Err: fmt.Errorf("takeoff: %w", err)}
	}
	if reply != "ok" {
		return &actuator.ActuationError{Err: fmt.Errorf("takeoff rejected: %q", reply)}
	}
	if err := d.session.Advance(actuator.Airborne, actuator.Connected); err != nil {
		return &actuator.ActuationError{Err: err}
	}
	applog.Infof("airborne")
	return nil
}

// Execute sends one move command and waits for the drone to accept
// it. Hardware rejection and reply timeouts are actuation errors; the
// session stays airborne and the dance continues. A battery reading
// under the floor faults the session instead.
func (d *Driver) Execute(ctx context.Context, move moves.Move) error {
	if state := d.session.State(); state != actuator.Airborne {
		return &actuator.ActuationError{Move: move.Name, Err: fmt.Errorf("not airborne (state %s)", state)}
	}
	if move.Mode != moves.Real {
		return &actuator.ActuationError{Move: move.Name, Err: fmt.Errorf("%s move routed to hardware", move.Mode)}
	}
	if pct := d.session.Battery(); pct < d.config.BatteryFloor {
		d.session.Force(actuator.Faulted)
		return &actuator.SafetyFault{Reason: "battery below floor", Battery: pct}
	}

	cmd := commandFor(move)
	reply, err := d.conn.roundTrip(ctx, cmd, d.config.MoveTimeout)
	if err != nil {
		return &actuator.ActuationError{Move: move.Name, Err: err}
	}
	if reply != "ok" {
		return &actuator.ActuationError{Move: move.Name, Err: fmt.Errorf("drone replied %q to %q", reply, cmd)}
	}
	return nil
}

// End lands if airborne, then tears the connections down. It runs its
// body once, converges on Disconnected from any state, and never
// returns an error: this is the last line of defense, so a failed land
// is logged and teardown continues.
func (d *Driver) End() error {
	d.endOnce.Do(func() {
		if d.session.State() == actuator.Airborne && d.conn != nil {
			reply, err := d.conn.roundTrip(context.Background(), "land", d.config.MoveTimeout)
			switch {
			case err != nil:
				applog.Errorf("land failed: %v", err)
			case reply != "ok":
				applog.Errorf("land rejected: %q", reply)
			default:
				applog.Infof("landed")
				d.session.Force(actuator.Landed)
			}
		}
		if d.state != nil {
			d.state.Stop()
		}
		if d.conn != nil {
			d.conn.Close()
		}
		d.session.Force(actuator.Disconnected)
	})
	return nil
}

// Battery returns the latest telemetry or query reading.
func (d *Driver) Battery() int {
	return d.session.Battery()
}

// State returns the session state.
func (d *Driver) State() actuator.State {
	return d.session.State()
}

// commandFor renders a move as its SDK command. Action names are the
// SDK verbs, so a quarter spin becomes "cw 90" and a 30cm rise "up 30".
func commandFor(move moves.Move) string {
	return fmt.Sprintf("%s %d", move.Action, move.Param)
}
