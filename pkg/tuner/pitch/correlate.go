package pitch

import (
	"math"

	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
)

// Correlate measures how strongly the sample window matches each candidate
// frequency by accumulating the signal against a complex exponential at that
// frequency:
//
//	real += sample[t] * cos(2π·f·t / rate)
//	imag += sample[t] * sin(2π·f·t / rate)
//
// Each entry is a single arbitrary-frequency DFT bin. Unlike an FFT this
// places the bin exactly on the equal-tempered frequency instead of the
// nearest integer multiple of sampleRate/N, which matters because note
// frequencies almost never fall on an FFT bin. No normalization is applied;
// the decider consumes magnitudes only in ratio form.
//
// The result is index-aligned with the table. An empty window (or a
// non-positive sample rate) yields a zero correlation for every candidate
// rather than an error; transient silence is a normal condition. The call is
// pure, O(len(table) × len(samples)), and retains no reference to samples.
func Correlate(samples []float64, sampleRate int, table []models.Candidate) []complex128 {
	result := make([]complex128, len(table))
	if len(samples) == 0 || sampleRate <= 0 {
		return result
	}

	scale := 2 * math.Pi / float64(sampleRate)
	for i, cand := range table {
		step := scale * cand.Frequency
		var re, im float64
		for t, s := range samples {
			phase := step * float64(t)
			re += s * math.Cos(phase)
			im += s * math.Sin(phase)
		}
		result[i] = complex(re, im)
	}
	return result
}
