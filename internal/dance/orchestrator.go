// SPDX-License-Identifier: MIT
/*
Package dance runs the performance: it pulls audio blocks from the
capture source, feeds the beat detector, and on each qualifying beat
dispatches exactly one move to the actuator.

The dispatch loop is the only goroutine that touches the detector, the
calibrator, the move library and the analysis taps. Moves execute on a
separate goroutine behind an in-flight flag, so a hardware command can
never stall capture; beats that land while a move is running are
dropped, not queued. A backlog of stale moves would drift ever further
behind the music.
*/
package dance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"dronebeat/internal/actuator"
	"dronebeat/internal/analysis"
	"dronebeat/internal/audio"
	applog "dronebeat/internal/log"
	"dronebeat/internal/moves"
	"dronebeat/internal/transport"
)

// Config shapes one performance run.
type Config struct {
	// Mode selects which move catalog Pick draws from. It must match
	// the actuator backend: simulated moves for the simulator, real
	// moves for hardware.
	Mode moves.Mode

	// BlockTimeout bounds each wait for an audio block. Expiry means
	// silence between songs, not a capture failure; the loop keeps
	// listening.
	BlockTimeout time.Duration

	// SettleDelay holds the loop after takeoff so the drone reaches
	// stable flight before the first move.
	SettleDelay time.Duration

	// CalibrateBlocks, when positive, spends that many leading blocks
	// measuring the room's noise floor before any beat can fire.
	CalibrateBlocks int

	// EmitInterval paces energy events to the sink. Zero or negative
	// disables them; beats and moves are always published.
	EmitInterval time.Duration

	// BatteryPoll paces battery events to the sink. Zero or negative
	// disables them.
	BatteryPoll time.Duration

	// Session is stamped on every published event.
	Session string
}

// Orchestrator owns one session end to end: startup, the
// capture/detect/dispatch loop, and the landing on the way out.
type Orchestrator struct {
	config   Config
	source   audio.Source
	actuator actuator.Actuator
	library  *moves.Library
	detector *analysis.Detector

	calibrator *analysis.Calibrator
	taps       []analysis.BlockProcessor
	sink       transport.Transport

	// clock supplies detector timestamps and event stamps; tests swap
	// it for a deterministic source.
	clock func() time.Time

	// moving is the at-most-one-move-in-flight latch; movers tracks the
	// executor goroutine so shutdown can wait for it. faults carries a
	// SafetyFault from the executor back to the loop.
	moving  atomic.Bool
	movers  sync.WaitGroup
	faults  chan error
	endOnce sync.Once

	lastEnergyEvent  time.Time
	lastBatteryEvent time.Time

	// Counters are written by the dispatch loop only and read after Run
	// returns.
	dispatched uint64
	dropped    uint64
}

// New validates the collaborators and returns an orchestrator ready to
// Run once. sink may be nil for a bare run; taps are optional block
// processors (the spectrum monitor) run on every non-calibration block.
func New(config Config, source audio.Source, act actuator.Actuator, library *moves.Library, detector *analysis.Detector, sink transport.Transport, taps ...analysis.BlockProcessor) (*Orchestrator, error) {
	if source == nil {
		return nil, fmt.Errorf("nil audio source")
	}
	if act == nil {
		return nil, fmt.Errorf("nil actuator")
	}
	if library == nil {
		return nil, fmt.Errorf("nil move library")
	}
	if detector == nil {
		return nil, fmt.Errorf("nil beat detector")
	}
	if config.BlockTimeout <= 0 {
		config.BlockTimeout = 250 * time.Millisecond
	}
	if config.SettleDelay < 0 {
		config.SettleDelay = 0
	}

	o := &Orchestrator{
		config:   config,
		source:   source,
		actuator: act,
		library:  library,
		detector: detector,
		taps:     taps,
		sink:     sink,
		clock:    time.Now,
		faults:   make(chan error, 1),
	}

	if config.CalibrateBlocks > 0 {
		calibrator, err := analysis.NewCalibrator(config.CalibrateBlocks)
		if err != nil {
			return nil, err
		}
		o.calibrator = calibrator
	}

	return o, nil
}

// Run performs one session: connect, take off, dance until ctx is
// canceled or a fault stops the music, then land. The actuator's End
// runs exactly once on every path out, including failures before the
// loop ever starts. Cancellation is a clean stop, not an error.
//
// Fatal returns are a failed connect or takeoff, an unrecoverable
// capture failure, or a safety fault mid-performance. Per-move and
// per-block failures are logged and absorbed.
func (o *Orchestrator) Run(ctx context.Context) error {
	err := o.perform(ctx)

	// Bounded: every Execute carries its own deadline.
	o.movers.Wait()

	if err == nil {
		select {
		case fault := <-o.faults:
			err = fault
		default:
		}
	}
	if err != nil && errors.Is(err, context.Canceled) {
		// The operator asked us to stop; that is not a failure.
		err = nil
	}

	o.end()

	blocks, beats := o.detector.Counts()
	applog.Infof("performance ended: %d blocks, %d beats, %d moves, %d beats dropped",
		blocks, beats, o.dispatched, o.dropped)
	return err
}

func (o *Orchestrator) perform(ctx context.Context) error {
	if err := o.actuator.Connect(ctx); err != nil {
		return err
	}
	o.publishState()

	if err := o.actuator.Begin(ctx); err != nil {
		return err
	}
	o.publishState()

	// Wait for stable flight before the first move.
	if o.config.SettleDelay > 0 {
		timer := time.NewTimer(o.config.SettleDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := o.source.Open(); err != nil {
		return fmt.Errorf("audio capture failed to start: %w", err)
	}
	defer o.source.Close()

	if o.calibrator != nil {
		applog.Infof("calibrating noise floor over %d blocks, keep the room quiet", o.config.CalibrateBlocks)
	}
	applog.Infof("system ready: play music near the microphone, Ctrl-C to stop")

	return o.loop(ctx)
}

func (o *Orchestrator) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case fault := <-o.faults:
			return fault
		default:
		}

		block, err := o.source.ReadBlock(ctx, o.config.BlockTimeout)
		switch {
		case err == nil:
		case errors.Is(err, audio.ErrTimeout):
			// No audio in the window: silence, keep listening.
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		default:
			return fmt.Errorf("audio capture failed: %w", err)
		}

		o.handleBlock(ctx, block)
		o.source.Recycle(block)
	}
}

// handleBlock consumes one block: calibration while it lasts, then
// detection, taps, rate-limited events, and at most one dispatch.
func (o *Orchestrator) handleBlock(ctx context.Context, block []int32) {
	now := o.clock()

	if o.calibrator != nil && !o.calibrator.Done() {
		if o.calibrator.Observe(block) {
			gate := o.calibrator.MinEnergy()
			o.detector.SetMinEnergy(gate)
			applog.Infof("noise floor calibrated, min beat energy %.6f", gate)
			o.publish(transport.Event{Type: transport.EventCalibrated, At: now, Energy: gate})
		}
		return
	}

	beat := o.detector.Update(block, now)

	for _, tap := range o.taps {
		tap.Process(block)
	}

	o.publishEnergy(now)
	o.publishBattery(now)

	if !beat {
		return
	}
	applog.Debugf("beat: energy %.6f over baseline %.6f", o.detector.Energy(), o.detector.Baseline())
	o.publish(transport.Event{
		Type:     transport.EventBeat,
		At:       now,
		Energy:   o.detector.Energy(),
		Baseline: o.detector.Baseline(),
	})

	if o.actuator.State() != actuator.Airborne {
		o.dropped++
		return
	}
	if !o.moving.CompareAndSwap(false, true) {
		// A move is still running; this beat is stale the moment it has
		// to wait, so it is dropped rather than queued.
		o.dropped++
		return
	}

	move, err := o.library.Pick(o.config.Mode)
	if err != nil {
		o.moving.Store(false)
		applog.Errorf("move selection failed: %v", err)
		return
	}

	o.dispatched++
	o.movers.Add(1)
	go o.execute(ctx, move)
}

// execute runs one move off the dispatch path so capture never waits on
// the actuator. Actuation failures are absorbed here; a safety fault is
// handed back to the loop, which stops dispatching.
func (o *Orchestrator) execute(ctx context.Context, move moves.Move) {
	defer o.movers.Done()

	err := o.actuator.Execute(ctx, move)

	event := transport.Event{
		Type:    transport.EventMove,
		At:      o.clock(),
		Move:    move.Name,
		Mode:    move.Mode.String(),
		Battery: o.actuator.Battery(),
	}
	if err != nil {
		event.Error = err.Error()

		var fault *actuator.SafetyFault
		if errors.As(err, &fault) {
			applog.Errorf("stopping the performance: %v", fault)
			o.publish(transport.Event{Type: transport.EventFault, At: event.At, Error: fault.Error(), Battery: fault.Battery})
			select {
			case o.faults <- fault:
			default:
			}
		} else {
			// One rejected move never ends the performance.
			applog.Warnf("move skipped: %v", err)
		}
	}
	o.publish(event)

	o.moving.Store(false)
}

// end lands exactly once, whatever the state of the session. This is
// the last line of defense, so a failed landing is logged, never
// propagated.
func (o *Orchestrator) end() {
	o.endOnce.Do(func() {
		if err := o.actuator.End(); err != nil {
			applog.Errorf("landing attempt failed: %v", err)
		}
		o.publishState()
	})
}

func (o *Orchestrator) publishState() {
	o.publish(transport.Event{
		Type:    transport.EventState,
		State:   o.actuator.State().String(),
		Battery: o.actuator.Battery(),
	})
}

func (o *Orchestrator) publishEnergy(now time.Time) {
	if o.config.EmitInterval <= 0 || now.Sub(o.lastEnergyEvent) < o.config.EmitInterval {
		return
	}
	o.lastEnergyEvent = now
	o.publish(transport.Event{
		Type:     transport.EventEnergy,
		At:       now,
		Energy:   o.detector.Energy(),
		Baseline: o.detector.Baseline(),
	})
}

func (o *Orchestrator) publishBattery(now time.Time) {
	if o.config.BatteryPoll <= 0 || now.Sub(o.lastBatteryEvent) < o.config.BatteryPoll {
		return
	}
	o.lastBatteryEvent = now
	o.publish(transport.Event{
		Type:    transport.EventBattery,
		At:      now,
		Battery: o.actuator.Battery(),
		State:   o.actuator.State().String(),
	})
}

// publish stamps the session and sends the event. The sink sheds its
// own load; a delivery failure must never slow the dance down.
func (o *Orchestrator) publish(event transport.Event) {
	if o.sink == nil {
		return
	}
	event.Session = o.config.Session
	if event.At.IsZero() {
		event.At = o.clock()
	}
	if err := o.sink.Send(event); err != nil {
		applog.Debugf("event publish failed: %v", err)
	}
}
