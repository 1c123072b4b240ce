// SPDX-License-Identifier: MIT
package moves

import (
	"fmt"
	"time"
)

// Library maps each mode to its move catalog and applies the selection
// policy on Pick.
type Library struct {
	catalogs map[Mode][]Move
	selector Selector
}

// NewLibrary returns an empty library using the given selector, or the
// clock-seeded random default when selector is nil.
func NewLibrary(selector Selector) *Library {
	if selector == nil {
		selector = NewRandomSelector(0)
	}
	return &Library{
		catalogs: make(map[Mode][]Move),
		selector: selector,
	}
}

// DefaultLibrary returns the built-in catalogs: conservative
// hardware moves for real mode, quick log-friendly moves for
// simulation. Simulated durations sit well under the default beat
// refractory interval so the actuator is free again before the next
// plausible beat.
func DefaultLibrary(selector Selector) *Library {
	l := NewLibrary(selector)

	// Real catalog. Params respect the Tello SDK envelope: rotations
	// 1-360 degrees, translations 20-500 cm. Nothing here flips or
	// travels far; this runs indoors near people.
	for _, m := range []Move{
		{Name: "quarter spin", Action: RotateCW, Param: 90},
		{Name: "reverse quarter", Action: RotateCCW, Param: 90},
		{Name: "clockwise nod", Action: RotateCW, Param: 30},
		{Name: "counter nod", Action: RotateCCW, Param: 30},
		{Name: "rise", Action: Up, Param: 30},
		{Name: "dip", Action: Down, Param: 25},
		{Name: "slide left", Action: Left, Param: 30},
		{Name: "slide right", Action: Right, Param: 30},
		{Name: "step forward", Action: Forward, Param: 30},
		{Name: "step back", Action: Back, Param: 30},
	} {
		m.Mode = Real
		l.Add(m)
	}

	for _, m := range []Move{
		{Name: "spin", Action: RotateCW, Param: 90, Duration: 120 * time.Millisecond},
		{Name: "counterspin", Action: RotateCCW, Param: 90, Duration: 120 * time.Millisecond},
		{Name: "nod", Action: RotateCW, Param: 30, Duration: 80 * time.Millisecond},
		{Name: "bounce", Action: Up, Param: 20, Duration: 100 * time.Millisecond},
		{Name: "dip", Action: Down, Param: 20, Duration: 100 * time.Millisecond},
		{Name: "shimmy left", Action: Left, Param: 20, Duration: 90 * time.Millisecond},
		{Name: "shimmy right", Action: Right, Param: 20, Duration: 90 * time.Millisecond},
		{Name: "lunge", Action: Forward, Param: 25, Duration: 110 * time.Millisecond},
		{Name: "retreat", Action: Back, Param: 25, Duration: 110 * time.Millisecond},
	} {
		m.Mode = Simulated
		l.Add(m)
	}

	return l
}

// Add appends a move to the catalog its Mode tag names.
func (l *Library) Add(move Move) {
	l.catalogs[move.Mode] = append(l.catalogs[move.Mode], move)
}

// Pick selects the next move for the given mode. An empty catalog is
// an error: a session with nothing to dance is misconfigured.
func (l *Library) Pick(mode Mode) (Move, error) {
	catalog := l.catalogs[mode]
	if len(catalog) == 0 {
		return Move{}, fmt.Errorf("no moves in the %s catalog", mode)
	}
	return catalog[l.selector.Next(mode, len(catalog))], nil
}

// Len reports the catalog size for a mode.
func (l *Library) Len(mode Mode) int {
	return len(l.catalogs[mode])
}

// Catalog returns a copy of a mode's catalog.
func (l *Library) Catalog(mode Mode) []Move {
	catalog := l.catalogs[mode]
	out := make([]Move, len(catalog))
	copy(out, catalog)
	return out
}
