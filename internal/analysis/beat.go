// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"time"
)

// DetectorConfig parameterizes the energy beat detector. All values
// are validated by NewDetector; construction fails fast rather than
// letting a bad threshold ride along to the first beat.
type DetectorConfig struct {
	// EnergyThreshold is the relative rise over the baseline that
	// declares a beat: energy > baseline * (1 + EnergyThreshold).
	// Zero means any rise above baseline counts.
	EnergyThreshold float64

	// MinBeatInterval is the refractory window. Two beats are never
	// reported closer together than this, whatever the signal does.
	MinBeatInterval time.Duration

	// Smoothing is the EMA weight alpha on the previous baseline:
	// baseline = alpha*baseline + (1-alpha)*energy. Values near 1 make
	// the baseline lag more, so transients stand out.
	Smoothing float64

	// BaselineFloor clamps the baseline from below. Long silence
	// cannot drag the baseline to zero and make the comparison
	// explode on the next real signal.
	BaselineFloor float64

	// MinEnergy is an absolute gate below which no beat fires,
	// regardless of the relative comparison. Zero disables it; the
	// calibrator raises it above the room's noise floor.
	MinEnergy float64
}

// DefaultDetectorConfig returns the documented defaults: 1% relative
// threshold, 200ms refractory interval, 0.9 smoothing.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		EnergyThreshold: 0.01,
		MinBeatInterval: 200 * time.Millisecond,
		Smoothing:       0.9,
		BaselineFloor:   1e-6,
		MinEnergy:       0,
	}
}

// Detector turns a stream of audio blocks into boolean beat decisions.
// It keeps a smoothed energy baseline and fires when a block's RMS
// energy rises above it by the configured threshold, at most once per
// refractory interval.
//
// Timestamps are supplied by the caller, so the detector is fully
// deterministic: the same block and timestamp sequence always yields
// the same decisions. Not safe for concurrent use; the dispatch loop
// is the only caller.
type Detector struct {
	config DetectorConfig

	baseline float64
	energy   float64
	lastBeat time.Time
	blocks   uint64
	beats    uint64
}

// NewDetector validates the config and returns a ready detector.
func NewDetector(config DetectorConfig) (*Detector, error) {
	if config.EnergyThreshold < 0 {
		return nil, fmt.Errorf("energy threshold must be non-negative, got %g", config.EnergyThreshold)
	}
	if config.MinBeatInterval <= 0 {
		return nil, fmt.Errorf("min beat interval must be positive, got %v", config.MinBeatInterval)
	}
	if config.Smoothing < 0 || config.Smoothing >= 1 {
		return nil, fmt.Errorf("smoothing %g outside [0, 1)", config.Smoothing)
	}
	if config.BaselineFloor <= 0 {
		return nil, fmt.Errorf("baseline floor must be positive, got %g", config.BaselineFloor)
	}
	if config.MinEnergy < 0 {
		return nil, fmt.Errorf("min energy must be non-negative, got %g", config.MinEnergy)
	}

	return &Detector{
		config:   config,
		baseline: config.BaselineFloor,
	}, nil
}

// Update consumes one block and reports whether it is a beat. The
// comparison runs against the baseline as it stood before this block,
// then the baseline absorbs the block's energy. On a beat the
// last-beat timestamp moves to now before returning.
//
// Allocation-free; safe to call at block rate.
func (d *Detector) Update(block []int32, now time.Time) bool {
	energy := BlockEnergy(block)
	d.energy = energy
	d.blocks++

	beat := false
	if energy > d.baseline*(1+d.config.EnergyThreshold) && energy >= d.config.MinEnergy {
		if now.Sub(d.lastBeat) >= d.config.MinBeatInterval {
			d.lastBeat = now
			d.beats++
			beat = true
		}
	}

	d.baseline = d.config.Smoothing*d.baseline + (1-d.config.Smoothing)*energy
	if d.baseline < d.config.BaselineFloor {
		d.baseline = d.config.BaselineFloor
	}

	return beat
}

// SetMinEnergy replaces the absolute gate, typically with a calibrated
// noise-floor estimate. Call from the dispatch loop only; Update and
// SetMinEnergy are not synchronized against each other.
func (d *Detector) SetMinEnergy(energy float64) {
	if energy < 0 {
		energy = 0
	}
	d.config.MinEnergy = energy
}

// Energy returns the RMS energy of the most recent block.
func (d *Detector) Energy() float64 { return d.energy }

// Baseline returns the current smoothed baseline.
func (d *Detector) Baseline() float64 { return d.baseline }

// LastBeat returns the timestamp of the most recent beat, zero when no
// beat has fired yet.
func (d *Detector) LastBeat() time.Time { return d.lastBeat }

// Counts returns blocks consumed and beats fired since construction.
func (d *Detector) Counts() (blocks, beats uint64) {
	return d.blocks, d.beats
}

// BlockEnergy computes the RMS energy of a block, normalized so a
// full-scale square wave measures 1.0. Empty blocks measure zero.
func BlockEnergy(block []int32) float64 {
	if len(block) == 0 {
		return 0
	}

	var sumSquare float64
	for _, sample := range block {
		s := float64(sample) / float64(math.MaxInt32)
		sumSquare += s * s
	}

	return math.Sqrt(sumSquare / float64(len(block)))
}
