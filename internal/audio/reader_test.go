package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV writes a 16-bit PCM WAV with a sine at freq Hz and returns
// its path.
func writeTestWAV(t *testing.T, freq float64, sampleRate, numSamples, channels int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test WAV: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	data := make([]int, numSamples*channels)
	for i := 0; i < numSamples; i++ {
		v := int(math.Round(0.5 * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))))
		for ch := 0; ch < channels; ch++ {
			data[i*channels+ch] = v
		}
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write WAV data: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize WAV: %v", err)
	}
	return path
}

func TestReadWAVMono(t *testing.T) {
	path := writeTestWAV(t, 220, 44100, 4410, 1)

	samples, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}

	if rate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", rate)
	}
	if len(samples) != 4410 {
		t.Errorf("Expected 4410 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if s < -1 || s > 1 {
			t.Fatalf("Sample %d out of range: %g", i, s)
		}
	}

	// Amplitude should survive the int16 round trip.
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-0.5) > 0.01 {
		t.Errorf("Expected peak amplitude near 0.5, got %g", peak)
	}
}

func TestReadWAVStereoDownmix(t *testing.T) {
	path := writeTestWAV(t, 220, 22050, 2205, 2)

	samples, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}

	if rate != 22050 {
		t.Errorf("Expected sample rate 22050, got %d", rate)
	}
	// Identical channels averaged: frame count equals per-channel count.
	if len(samples) != 2205 {
		t.Errorf("Expected 2205 frames after downmix, got %d", len(samples))
	}
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.wav")
	if err := os.WriteFile(path, []byte("definitely not a RIFF header"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, _, err := ReadWAV(path); err == nil {
		t.Error("Expected error for a non-WAV file")
	}
}

func TestReadWAVMissingFile(t *testing.T) {
	if _, _, err := ReadWAV(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestSplit(t *testing.T) {
	samples := make([]float64, 44100) // one second
	windows := Split(samples, 44100, 100*time.Millisecond)

	if len(windows) != 10 {
		t.Fatalf("Expected 10 windows, got %d", len(windows))
	}
	for i, w := range windows {
		if len(w.Samples) != 4410 {
			t.Errorf("Window %d: expected 4410 samples, got %d", i, len(w.Samples))
		}
		if w.SampleRate != 44100 {
			t.Errorf("Window %d: expected rate 44100, got %d", i, w.SampleRate)
		}
	}
}

func TestSplitDropsShortTail(t *testing.T) {
	samples := make([]float64, 4410+1000) // one full window plus a partial tail
	windows := Split(samples, 44100, 100*time.Millisecond)

	if len(windows) != 1 {
		t.Errorf("Expected the partial tail to be dropped, got %d windows", len(windows))
	}
}

func TestSplitDegenerateInputs(t *testing.T) {
	if w := Split(nil, 44100, 100*time.Millisecond); w != nil {
		t.Errorf("Expected nil for empty samples, got %d windows", len(w))
	}
	if w := Split(make([]float64, 100), 0, 100*time.Millisecond); w != nil {
		t.Errorf("Expected nil for zero sample rate, got %d windows", len(w))
	}
	if w := Split(make([]float64, 100), 44100, 0); w != nil {
		t.Errorf("Expected nil for zero window duration, got %d windows", len(w))
	}
}
