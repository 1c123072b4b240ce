// Package utils generates deterministic int32 test signals for the
// capture and analysis packages.
package utils

import "math"

// Silence returns n zero samples.
func Silence(n int) []int32 {
	return make([]int32, n)
}

// Constant returns n samples pinned at amplitude, where amplitude is a
// fraction of full scale in [0, 1]. Useful for driving the energy
// detector with a known mean-square level.
func Constant(n int, amplitude float64) []int32 {
	buffer := make([]int32, n)
	sample := int32(amplitude * math.MaxInt32)
	for i := range buffer {
		buffer[i] = sample
	}
	return buffer
}

// Sine returns n samples of a sine at the given frequency and
// fractional amplitude.
func Sine(n int, sampleRate, frequency, amplitude float64) []int32 {
	buffer := make([]int32, n)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int32(math.Sin(2*math.Pi*frequency*t) * amplitude * math.MaxInt32)
	}
	return buffer
}

// Chord returns a 440Hz fundamental with two harmonics, handy for
// spectrum assertions where a lone sine is too clean.
func Chord(n int, sampleRate float64) []int32 {
	buffer := make([]int32, n)
	for i := range buffer {
		t := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		buffer[i] = int32(signal * math.MaxInt32 * 0.9)
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in
// magnitudes[startBin..endBin], clamping the range to valid indices.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
