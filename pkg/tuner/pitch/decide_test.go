package pitch

import (
	"math"
	"testing"

	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
)

// flatTable builds n unnamed candidates for decider tests where only the
// index alignment matters.
func flatTable(n int) []models.Candidate {
	table := make([]models.Candidate, n)
	for i := range table {
		table[i] = models.Candidate{Name: "candidate", Frequency: 100 + float64(i)}
	}
	return table
}

func TestDecideDominantMagnitude(t *testing.T) {
	const n = 90
	table := flatTable(n)
	corr := make([]complex128, n)
	corr[42] = complex(10, 0) // squared magnitude 100, all others zero

	outcome := Decide(corr, table, DefaultConfidenceThreshold)

	if !outcome.Detected {
		t.Fatal("Expected a detection")
	}
	if outcome.Note != table[42] {
		t.Errorf("Expected candidate 42, got %+v", outcome.Note)
	}
	// average = 100/90, confidence = 100 / (100/90) = 90
	if math.Abs(outcome.Confidence-90) > 1e-9 {
		t.Errorf("Expected confidence 90, got %g", outcome.Confidence)
	}
}

func TestDecideUniformMagnitudesIsNoDetection(t *testing.T) {
	table := flatTable(10)
	corr := make([]complex128, 10)
	for i := range corr {
		corr[i] = complex(3, 4)
	}

	// confidence = 1, far below the threshold
	outcome := Decide(corr, table, DefaultConfidenceThreshold)
	if outcome.Detected {
		t.Errorf("Expected NoDetection for uniform magnitudes, got %+v", outcome)
	}
}

func TestDecideEmptyResult(t *testing.T) {
	outcome := Decide(nil, nil, DefaultConfidenceThreshold)
	if outcome.Detected {
		t.Errorf("Expected NoDetection for empty correlation result, got %+v", outcome)
	}
}

func TestDecideSilenceIsNoDetection(t *testing.T) {
	table := flatTable(5)
	corr := make([]complex128, 5) // all zero: average is zero, no division happens

	outcome := Decide(corr, table, DefaultConfidenceThreshold)
	if outcome.Detected {
		t.Errorf("Expected NoDetection for silence, got %+v", outcome)
	}
	if outcome.Confidence != 0 {
		t.Errorf("Expected zero confidence, got %g", outcome.Confidence)
	}
}

func TestDecideThresholdIsStrict(t *testing.T) {
	// Two candidates with magnitudes 3 and 1: confidence = 3/2 = 1.5.
	table := flatTable(2)
	corr := []complex128{complex(math.Sqrt(3), 0), complex(1, 0)}

	if outcome := Decide(corr, table, 1.5); outcome.Detected {
		t.Errorf("Expected NoDetection at confidence == threshold, got %+v", outcome)
	}
	if outcome := Decide(corr, table, 1.4); !outcome.Detected {
		t.Error("Expected detection just above threshold")
	}
}

func TestDecideTieKeepsEarliestIndex(t *testing.T) {
	table := flatTable(4)
	corr := []complex128{0, complex(5, 0), complex(5, 0), 0}

	outcome := Decide(corr, table, 1)
	if !outcome.Detected {
		t.Fatal("Expected a detection")
	}
	if outcome.Note != table[1] {
		t.Errorf("Expected the earliest tied candidate (index 1), got %+v", outcome.Note)
	}
}

func TestDecideMismatchedLengths(t *testing.T) {
	outcome := Decide(make([]complex128, 3), flatTable(2), 1)
	if outcome.Detected {
		t.Errorf("Expected NoDetection for misaligned inputs, got %+v", outcome)
	}
}

func TestDecideEndToEndWithCorrelate(t *testing.T) {
	table, err := BuildTable(DefaultBaseFrequency, DefaultSemitoneCount, DefaultMicroStep)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	// Half a second of a clean A3 should be an unambiguous detection.
	samples := sine(220, 44100, 22050)
	corr := Correlate(samples, 44100, table)
	outcome := Decide(corr, table, DefaultConfidenceThreshold)

	if !outcome.Detected {
		t.Fatal("Expected a clean sinusoid to be detected")
	}
	if outcome.Note.Name != "A" {
		t.Errorf("Expected note A, got %q", outcome.Note.Name)
	}
	if math.Abs(outcome.Note.Frequency-220) > 1 {
		t.Errorf("Expected the 220 Hz candidate, got %.2f Hz", outcome.Note.Frequency)
	}
	if outcome.Confidence <= DefaultConfidenceThreshold {
		t.Errorf("Expected confidence above %g, got %g", DefaultConfidenceThreshold, outcome.Confidence)
	}

	// Silence must degrade to NoDetection through the same path.
	quiet := Decide(Correlate(make([]float64, 4410), 44100, table), table, DefaultConfidenceThreshold)
	if quiet.Detected {
		t.Errorf("Expected NoDetection for silence, got %+v", quiet)
	}
}
