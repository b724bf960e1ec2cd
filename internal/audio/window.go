package audio

import (
	"time"

	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
)

// Split slices a decoded recording into consecutive fixed-duration analysis
// windows. A trailing chunk shorter than the window is dropped; partial
// windows would skew the correlation magnitudes against the full ones.
// The windows alias the input slice, which is fine because the engine only
// borrows a window for the duration of one correlation call.
func Split(samples []float64, sampleRate int, window time.Duration) []models.Window {
	if len(samples) == 0 || sampleRate <= 0 || window <= 0 {
		return nil
	}

	n := int(float64(sampleRate) * window.Seconds())
	if n <= 0 {
		return nil
	}

	windows := make([]models.Window, 0, len(samples)/n)
	for start := 0; start+n <= len(samples); start += n {
		windows = append(windows, models.Window{
			Samples:    samples[start : start+n],
			SampleRate: sampleRate,
		})
	}
	return windows
}
