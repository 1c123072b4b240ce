// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Noise floor estimate: twice the 25th percentile of the warm-up
// energies. The lower quartile sits under the room tone even when the
// warm-up caught a door slam or two.
const (
	calibrationQuantile = 0.25
	calibrationScale    = 2.0
)

// Calibrator estimates the ambient noise floor from the first blocks
// of a session. Feed it blocks until Done reports true, then install
// MinEnergy on the detector. Run it before music starts; calibrating
// against the track raises the gate above real beats.
type Calibrator struct {
	samples []float64
	need    int
	result  float64
	done    bool
}

// NewCalibrator returns a calibrator that settles after blocks
// observations.
func NewCalibrator(blocks int) (*Calibrator, error) {
	if blocks <= 0 {
		return nil, fmt.Errorf("calibration block count must be positive, got %d", blocks)
	}
	return &Calibrator{
		samples: make([]float64, 0, blocks),
		need:    blocks,
	}, nil
}

// Observe records one block's energy. It returns true exactly once,
// on the observation that completes calibration. Further calls are
// no-ops.
func (c *Calibrator) Observe(block []int32) bool {
	if c.done {
		return false
	}

	c.samples = append(c.samples, BlockEnergy(block))
	if len(c.samples) < c.need {
		return false
	}

	sort.Float64s(c.samples)
	c.result = calibrationScale * stat.Quantile(calibrationQuantile, stat.Empirical, c.samples, nil)
	c.samples = nil
	c.done = true
	return true
}

// Done reports whether calibration has settled.
func (c *Calibrator) Done() bool { return c.done }

// MinEnergy returns the calibrated gate. Zero until Done.
func (c *Calibrator) MinEnergy() float64 { return c.result }
