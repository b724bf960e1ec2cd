package pitch

import (
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
)

// Decide applies the confidence rule to one correlation sweep. The squared
// magnitude is computed per candidate (the square root is never needed since
// only ratios matter), the strongest candidate is compared against the mean,
// and the note is reported only when peak/mean exceeds threshold. The ratio
// is scale-invariant: raw magnitude grows with microphone gain and window
// length, peak-to-average does not, so the detector needs no calibration.
//
// corr must be index-aligned with table. Ties keep the earliest index. An
// empty sweep and an all-zero sweep (silence) both yield NoDetection; neither
// is an error.
func Decide(corr []complex128, table []models.Candidate, threshold float64) models.Outcome {
	if len(corr) == 0 || len(corr) != len(table) {
		return models.NoDetection()
	}

	maxIdx := 0
	maxMag := -1.0
	var sum float64
	for i, c := range corr {
		mag := real(c)*real(c) + imag(c)*imag(c)
		sum += mag
		if mag > maxMag {
			maxMag = mag
			maxIdx = i
		}
	}

	average := sum / float64(len(corr))
	if average == 0 {
		return models.NoDetection()
	}

	confidence := maxMag / average
	if confidence <= threshold {
		return models.NoDetection()
	}

	return models.Outcome{
		Detected:   true,
		Note:       table[maxIdx],
		Confidence: confidence,
	}
}
