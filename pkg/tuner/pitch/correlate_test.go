package pitch

import (
	"math"
	"testing"

	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
)

// sine generates n samples of a pure sinusoid at freq Hz.
func sine(freq float64, sampleRate, n int) []float64 {
	samples := make([]float64, n)
	for t := range samples {
		samples[t] = math.Sin(2 * math.Pi * freq * float64(t) / float64(sampleRate))
	}
	return samples
}

func squaredMagnitude(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

func TestCorrelateEmptyWindow(t *testing.T) {
	table, err := BuildTable(DefaultBaseFrequency, DefaultSemitoneCount, DefaultMicroStep)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	result := Correlate(nil, 44100, table)
	if len(result) != len(table) {
		t.Fatalf("Expected %d entries, got %d", len(table), len(result))
	}
	for i, c := range result {
		if c != 0 {
			t.Errorf("Entry %d: expected (0,0), got %v", i, c)
		}
	}
}

func TestCorrelateSinusoidPicksClosestCandidate(t *testing.T) {
	table := []models.Candidate{
		{Name: "A3", Frequency: 220},
		{Name: "A4", Frequency: 440},
		{Name: "A5", Frequency: 880},
	}
	samples := sine(440, 44100, 1000)

	result := Correlate(samples, 44100, table)

	at220 := squaredMagnitude(result[0])
	at440 := squaredMagnitude(result[1])
	at880 := squaredMagnitude(result[2])

	if !(at440 > at220) || !(at440 > at880) {
		t.Errorf("Expected 440 Hz to dominate: got %g (220), %g (440), %g (880)", at220, at440, at880)
	}
}

func TestCorrelateSinusoidAgainstFullTable(t *testing.T) {
	table, err := BuildTable(DefaultBaseFrequency, DefaultSemitoneCount, DefaultMicroStep)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	// A3 at 220 Hz is the exact variant of semitone 21 above C2, well inside
	// the two-and-a-half-octave range of the reference table.
	const freq = 220.0
	samples := sine(freq, 44100, 4410)

	result := Correlate(samples, 44100, table)

	bestIdx := 0
	bestMag := -1.0
	for i, c := range result {
		if m := squaredMagnitude(c); m > bestMag {
			bestMag = m
			bestIdx = i
		}
	}

	closestIdx := 0
	closestDiff := math.Inf(1)
	for i, c := range table {
		if d := math.Abs(c.Frequency - freq); d < closestDiff {
			closestDiff = d
			closestIdx = i
		}
	}

	if bestIdx != closestIdx {
		t.Errorf("Expected candidate %d (%q, %.2f Hz) to win, got %d (%q, %.2f Hz)",
			closestIdx, table[closestIdx].Name, table[closestIdx].Frequency,
			bestIdx, table[bestIdx].Name, table[bestIdx].Frequency)
	}

	// The winning magnitude must stand an order of magnitude above candidates
	// far away from the signal frequency.
	for i, c := range table {
		if math.Abs(c.Frequency-freq) < 50 {
			continue
		}
		if m := squaredMagnitude(result[i]); m*10 > bestMag {
			t.Errorf("Candidate %q (%.2f Hz) too strong: %g vs peak %g", c.Name, c.Frequency, m, bestMag)
		}
	}
}

func TestCorrelateAlternatingSamplesStayFinite(t *testing.T) {
	table, err := BuildTable(DefaultBaseFrequency, DefaultSemitoneCount, DefaultMicroStep)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	samples := []float64{1, -1, 1, -1, 1, -1}
	result := Correlate(samples, 44100, table)

	for i, c := range result {
		if math.IsNaN(real(c)) || math.IsNaN(imag(c)) || math.IsInf(real(c), 0) || math.IsInf(imag(c), 0) {
			t.Errorf("Entry %d is not finite: %v", i, c)
		}
	}
}

func TestCorrelateInvalidSampleRate(t *testing.T) {
	table := []models.Candidate{{Name: "A4", Frequency: 440}}
	result := Correlate([]float64{0.5, -0.5}, 0, table)

	if len(result) != 1 || result[0] != 0 {
		t.Errorf("Expected zero result for non-positive sample rate, got %v", result)
	}
}

func BenchmarkCorrelate(b *testing.B) {
	table, err := BuildTable(DefaultBaseFrequency, DefaultSemitoneCount, DefaultMicroStep)
	if err != nil {
		b.Fatalf("BuildTable failed: %v", err)
	}

	// One 100 ms window at 44.1 kHz, the reference live configuration.
	samples := sine(440, 44100, 4410)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Correlate(samples, 44100, table)
	}
}
