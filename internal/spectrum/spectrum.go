// Package spectrum provides a coarse FFT-based frequency estimate used as a
// diagnostic second opinion next to the correlation sweep. Its resolution is
// limited to sampleRate/len(samples) per bin, which is exactly why the
// detector itself correlates against arbitrary candidate frequencies instead.
package spectrum

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Estimate returns the frequency of the strongest positive-frequency FFT bin
// and its power. The DC bin is skipped. Degenerate input yields (0, 0).
func Estimate(samples []float64, sampleRate int) (float64, float64) {
	if len(samples) < 2 || sampleRate <= 0 {
		return 0, 0
	}

	spec := fft.FFTReal(samples)
	half := len(spec) / 2

	bestIdx := 0
	bestPower := 0.0
	for i := 1; i < half; i++ {
		a := cmplx.Abs(spec[i])
		if p := a * a; p > bestPower {
			bestPower = p
			bestIdx = i
		}
	}
	if bestIdx == 0 {
		return 0, 0
	}

	freq := float64(bestIdx) * float64(sampleRate) / float64(len(samples))
	return freq, bestPower
}
