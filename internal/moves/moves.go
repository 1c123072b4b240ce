// SPDX-License-Identifier: MIT
//
// Package moves holds the dance move catalogs and the selection policy
// that picks one on each beat. Moves are plain data: the actuator
// decides what a RotateCW by 90 means for its backend.
package moves

import (
	"fmt"
	"strings"
	"time"
)

// Mode tags a move with the actuator backend it is written for. The
// two catalogs are disjoint; a simulated session never executes a move
// tuned for real hardware and vice versa.
type Mode uint8

const (
	Simulated Mode = iota
	Real
)

func (m Mode) String() string {
	switch m {
	case Simulated:
		return "simulated"
	case Real:
		return "real"
	}
	return fmt.Sprintf("MODE(%d)", uint8(m))
}

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simulated", "sim":
		return Simulated, nil
	case "real":
		return Real, nil
	}
	return Simulated, fmt.Errorf("unknown mode %q (want simulated or real)", s)
}

// Action is the kind of motion a move performs.
type Action uint8

const (
	RotateCW Action = iota
	RotateCCW
	Up
	Down
	Left
	Right
	Forward
	Back
)

var actionNames = map[Action]string{
	RotateCW:  "cw",
	RotateCCW: "ccw",
	Up:        "up",
	Down:      "down",
	Left:      "left",
	Right:     "right",
	Forward:   "forward",
	Back:      "back",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ACTION(%d)", uint8(a))
}

// Move is one catalog entry. Param is degrees for rotations and
// centimeters for translations. Duration is how long the simulator
// takes to perform it; hardware moves are timed by the drone itself
// and leave it zero.
//
// Keep durations short relative to the beat refractory interval, or
// every other beat lands while the actuator is still busy and gets
// dropped. That balance is catalog authorship, not something the
// dispatcher can enforce.
type Move struct {
	Name     string
	Action   Action
	Param    int
	Duration time.Duration
	Mode     Mode
}

func (m Move) String() string {
	return fmt.Sprintf("%s (%s %d)", m.Name, m.Action, m.Param)
}
