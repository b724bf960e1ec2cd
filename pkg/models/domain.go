package models

import "time"

// Candidate is one (name, frequency) pair the detector tests incoming audio
// against. Candidates are value types and never mutated after the table is
// built.
type Candidate struct {
	Name      string  // Display name, e.g. "A" or "A (a bit flat)"
	Frequency float64 // Test frequency in Hz, always > 0
}

// Window is one fixed-duration block of mono PCM audio analyzed as a unit.
// The engine borrows a window for the duration of a single correlation call
// and retains nothing afterward.
type Window struct {
	Samples    []float64 // Normalized to [-1, 1]
	SampleRate int       // Samples per second, > 0
}

// Outcome is the result of one analysis cycle: either a detected note with a
// confidence score, or no detection at all.
type Outcome struct {
	Detected   bool
	Note       Candidate // Valid only when Detected is true
	Confidence float64   // Peak-to-average squared-magnitude ratio, >= 0
}

// NoDetection returns the negative outcome.
func NoDetection() Outcome {
	return Outcome{}
}

// Detection is one positive outcome recorded during a practice session or an
// offline file analysis.
type Detection struct {
	SessionID  string // UUID of the owning session, empty for offline analysis
	Note       string
	Frequency  float64 // Candidate frequency in Hz
	Confidence float64
	OffsetMs   int64 // Milliseconds from the start of the session or file
}

// Session is one recorded practice run.
type Session struct {
	ID        string // UUID
	Label     string
	StartedAt time.Time
	EndedAt   time.Time // Zero while the session is still open
}
