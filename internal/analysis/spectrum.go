// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"dronebeat/internal/transport"
	"dronebeat/pkg/bitint"
)

// WindowFunc selects the FFT window applied before analysis.
type WindowFunc int

const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// wireBins is how many buckets a spectrum event carries. Full FFT
// frames are too heavy to broadcast at block rate.
const wireBins = 32

type frequencyBand struct {
	name   string
	lowHz  float64
	highHz float64
}

// SpectrumConfig shapes a Spectrum processor.
type SpectrumConfig struct {
	Size         int           // FFT size, power of 2
	SampleRate   float64       // Hz
	Window       WindowFunc    // applied before the FFT
	EmitInterval time.Duration // minimum spacing between emitted events; <=0 emits every block
	Session      string        // stamped on emitted events
}

// Spectrum computes an FFT magnitude spectrum per block and emits
// rate-limited spectrum events with per-band energies to the monitor
// transport. The compute path runs on pre-allocated buffers; only the
// rate-limited emission builds a fresh event. Not safe for concurrent
// use: the dispatch loop is the only caller.
type Spectrum struct {
	fft        *fourier.FFT
	size       int
	sampleRate float64

	input     []float64
	output    []complex128
	magnitude []float64
	window    []float64

	bands []frequencyBand
	wire  []float64

	sink      transport.Transport
	session   string
	emitEvery time.Duration
	lastEmit  time.Time
}

var _ BlockProcessor = (*Spectrum)(nil)

// NewSpectrum validates the config and pre-allocates the workspace.
// sink may be nil, in which case Process only computes.
func NewSpectrum(config SpectrumConfig, sink transport.Transport) (*Spectrum, error) {
	if !bitint.IsPowerOfTwo(config.Size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", config.Size)
	}
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", config.SampleRate)
	}

	windowCoeffs := make([]float64, config.Size)
	applyWindow(windowCoeffs, config.Window)

	// FFT of a real input yields N/2 + 1 complex coefficients.
	magnitudeSize := config.Size/2 + 1
	nyquist := config.SampleRate / 2

	return &Spectrum{
		fft:        fourier.NewFFT(config.Size),
		size:       config.Size,
		sampleRate: config.SampleRate,
		input:      make([]float64, config.Size),
		output:     make([]complex128, magnitudeSize),
		magnitude:  make([]float64, magnitudeSize),
		window:     windowCoeffs,
		bands: []frequencyBand{
			{name: "sub", lowHz: 20, highHz: 60},
			{name: "bass", lowHz: 60, highHz: 250},
			{name: "lowMid", lowHz: 250, highHz: 500},
			{name: "mid", lowHz: 500, highHz: 2000},
			{name: "highMid", lowHz: 2000, highHz: 4000},
			{name: "treble", lowHz: 4000, highHz: nyquist},
		},
		wire:      make([]float64, wireBins),
		sink:      sink,
		session:   config.Session,
		emitEvery: config.EmitInterval,
	}, nil
}

// Process windows the block, runs the FFT and refreshes the magnitude
// spectrum. When a sink is attached and the emit interval has elapsed,
// it sends a spectrum event stamped with the caller's clock.
func (s *Spectrum) Process(block []int32) {
	s.ProcessAt(block, time.Now())
}

// ProcessAt is Process with an injected timestamp, for deterministic
// rate-limit behavior in tests.
func (s *Spectrum) ProcessAt(block []int32, now time.Time) {
	const normFactor = 1.0 / float64(0x80000000)
	blockLen := len(block)
	for i := 0; i < s.size; i++ {
		if i < blockLen {
			s.input[i] = float64(block[i]) * normFactor * s.window[i]
		} else {
			s.input[i] = 0
		}
	}

	s.fft.Coefficients(s.output, s.input)

	for i, c := range s.output {
		s.magnitude[i] = cmplx.Abs(c)
	}

	if s.sink == nil {
		return
	}
	if s.emitEvery > 0 && now.Sub(s.lastEmit) < s.emitEvery {
		return
	}
	s.lastEmit = now
	s.emit(now)
}

func (s *Spectrum) emit(now time.Time) {
	// Bucket the magnitudes down to wire size by averaging.
	per := len(s.magnitude) / wireBins
	if per < 1 {
		per = 1
	}
	for b := 0; b < wireBins; b++ {
		start := b * per
		if start >= len(s.magnitude) {
			s.wire[b] = 0
			continue
		}
		end := start + per
		if end > len(s.magnitude) {
			end = len(s.magnitude)
		}
		var sum float64
		for _, m := range s.magnitude[start:end] {
			sum += m
		}
		s.wire[b] = sum / float64(end-start)
	}

	bands := make(map[string]float64, len(s.bands))
	for _, band := range s.bands {
		bands[band.name] = s.bandEnergy(band)
	}

	spectrum := make([]float64, wireBins)
	copy(spectrum, s.wire)

	event := transport.Event{
		Type:     transport.EventSpectrum,
		Session:  s.session,
		At:       now,
		Spectrum: spectrum,
		Bands:    bands,
	}
	if err := s.sink.Send(event); err != nil {
		// Monitor loss is not an analysis failure; drop and move on.
		return
	}
}

// bandEnergy averages the magnitudes of every bin whose center
// frequency falls inside the band.
func (s *Spectrum) bandEnergy(band frequencyBand) float64 {
	var sum float64
	var count int
	for i := range s.magnitude {
		freq := s.FrequencyForBin(i)
		if freq >= band.lowHz && freq < band.highHz {
			sum += s.magnitude[i]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Magnitudes returns a copy of the latest magnitude spectrum.
func (s *Spectrum) Magnitudes() []float64 {
	out := make([]float64, len(s.magnitude))
	copy(out, s.magnitude)
	return out
}

// FrequencyForBin returns the center frequency in Hz for a bin index,
// or 0 for out-of-range indices.
func (s *Spectrum) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= len(s.output) {
		return 0
	}
	return float64(bin) * (s.sampleRate / float64(s.size))
}

// Size returns the FFT size.
func (s *Spectrum) Size() int { return s.size }

// Close implements ClosableProcessor; the spectrum holds no resources.
func (s *Spectrum) Close() error { return nil }

// ParseWindowFunc converts a case-insensitive name to a WindowFunc.
// Unknown names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window's coefficients.
// Coefficients start at 1.0 because gonum's window functions multiply
// in place.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}
