// SPDX-License-Identifier: MIT
//
// Package transport fans session events out to observers: a websocket
// hub for live dashboards, an MQTT publisher for telemetry pipelines,
// and a debug sink for development. Producers rate-limit themselves;
// transports deliver whatever they are handed.
package transport

import (
	"errors"
	"time"
)

// Transport sends processed data or events somewhere else.
// Implementations must be safe for concurrent use: the dispatch loop
// and the move executor both publish.
type Transport interface {
	Send(data any) error
	Close() error
}

// Event types carried over the wire.
const (
	EventState      = "state"
	EventBeat       = "beat"
	EventMove       = "move"
	EventEnergy     = "energy"
	EventSpectrum   = "spectrum"
	EventBattery    = "battery"
	EventCalibrated = "calibrated"
	EventFault      = "fault"
)

// Event is the single wire shape for everything a session emits.
// Fields irrelevant to a given type stay at their zero value and are
// omitted from the JSON encoding.
type Event struct {
	Type    string    `json:"type"`
	Session string    `json:"session,omitempty"`
	At      time.Time `json:"at"`

	Energy   float64 `json:"energy,omitempty"`
	Baseline float64 `json:"baseline,omitempty"`

	Move string `json:"move,omitempty"`
	Mode string `json:"mode,omitempty"`

	Battery int    `json:"battery,omitempty"`
	State   string `json:"state,omitempty"`
	Error   string `json:"error,omitempty"`

	Spectrum []float64          `json:"spectrum,omitempty"`
	Bands    map[string]float64 `json:"bands,omitempty"`
}

// Fanout delivers every send to all member transports. A failing
// member does not stop delivery to the others; errors are joined.
type Fanout struct {
	sinks []Transport
}

// NewFanout builds a fanout over the non-nil sinks.
func NewFanout(sinks ...Transport) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Len reports how many sinks are attached.
func (f *Fanout) Len() int { return len(f.sinks) }

// Send implements Transport.
func (f *Fanout) Send(data any) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink, joining any errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Transport = (*Fanout)(nil)
