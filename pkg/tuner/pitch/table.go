package pitch

import (
	"errors"
	"fmt"
	"math"

	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
)

// Reference configuration: the table starts at C two octaves below middle C
// and walks thirty semitones (two and a half octaves) upward. Each semitone
// contributes a flat, an exact and a sharp candidate, with the off-pitch
// variants displaced by a quarter of a semitone so a slightly mistuned string
// lands on its own candidate instead of the neighboring note's.
const (
	DefaultBaseFrequency       = 65.41
	DefaultSemitoneCount       = 30
	DefaultMicroStep           = 1.0 / 48.0 // quarter semitone, as a fraction of an octave
	DefaultConfidenceThreshold = 10.0

	// VariantsPerSemitone is the number of candidates emitted per semitone
	// (flat, exact, sharp).
	VariantsPerSemitone = 3
)

// ErrInvalidConfig indicates table construction parameters that cannot
// produce a usable candidate table. Fatal to startup, never retried.
var ErrInvalidConfig = errors.New("invalid candidate table configuration")

// chromaticNames lists the twelve semitone names in ascending order from C.
var chromaticNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// BuildTable generates the ordered candidate list the detector tests against.
// Semitone i sits at baseFrequency * 2^(i/12) on the equal-tempered scale and
// emits three candidates in flat/exact/sharp order. The result has
// semitoneCount * VariantsPerSemitone entries and is meant to be built once
// at startup and shared read-only across correlation calls.
func BuildTable(baseFrequency float64, semitoneCount int, microStep float64) ([]models.Candidate, error) {
	if baseFrequency <= 0 {
		return nil, fmt.Errorf("%w: base frequency must be positive, got %g", ErrInvalidConfig, baseFrequency)
	}
	if semitoneCount <= 0 {
		return nil, fmt.Errorf("%w: semitone count must be positive, got %d", ErrInvalidConfig, semitoneCount)
	}
	if microStep <= 0 {
		return nil, fmt.Errorf("%w: micro step must be positive, got %g", ErrInvalidConfig, microStep)
	}
	if microStep >= 1.0/12.0 {
		return nil, fmt.Errorf("%w: micro step %g is a full semitone or more, variants would cross neighboring notes", ErrInvalidConfig, microStep)
	}

	flatRatio := math.Pow(2, -microStep)
	sharpRatio := math.Pow(2, microStep)

	table := make([]models.Candidate, 0, semitoneCount*VariantsPerSemitone)
	for i := 0; i < semitoneCount; i++ {
		freq := baseFrequency * math.Pow(2, float64(i)/12.0)
		name := chromaticNames[i%12]
		table = append(table,
			models.Candidate{Name: name + " (a bit flat)", Frequency: freq * flatRatio},
			models.Candidate{Name: name, Frequency: freq},
			models.Candidate{Name: name + " (a bit sharp)", Frequency: freq * sharpRatio},
		)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidConfig)
	}
	return table, nil
}
