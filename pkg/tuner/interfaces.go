package tuner

import (
	"context"

	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
)

// Service is the pitch-detection pipeline: a candidate table built once at
// construction, per-window analysis, and an optional practice-history surface
// backed by Storage.
type Service interface {
	// Candidates returns a copy of the candidate table.
	Candidates() []models.Candidate

	// Analyze runs one correlate-and-decide cycle over a sample window. The
	// raw correlation sweep is returned alongside the outcome for diagnostic
	// display; both are ephemeral and never merged across windows.
	Analyze(samples []float64, sampleRate int) (models.Outcome, []complex128)

	// Listen consumes windows from src one at a time to completion, calling
	// fn with each outcome, until ctx is done or the source closes. When a
	// session is open, positive outcomes are recorded to storage.
	Listen(ctx context.Context, src WindowSource, fn func(models.Outcome)) error

	// AnalyzeFile decodes an audio file, slices it into window-duration
	// chunks and runs the detection cycle per chunk. Non-WAV inputs are
	// converted through ffmpeg first.
	AnalyzeFile(ctx context.Context, path string) ([]models.Detection, error)

	StartSession(label string) (string, error)
	EndSession() error
	Sessions() ([]models.Session, error)
	Detections(sessionID string) ([]models.Detection, error)
	DeleteSession(sessionID string) error
	Close() error
}

// WindowSource supplies PCM windows at a bounded rate. Producers must never
// block their capture path on a slow consumer: send non-blocking and drop, or
// queue on their own side. The service consumes windows sequentially,
// synchronously, to completion.
type WindowSource interface {
	Windows() <-chan models.Window
}

// Storage persists practice sessions and their detections.
type Storage interface {
	BeginSession(label string) (string, error)
	EndSession(sessionID string) error
	RecordDetections(sessionID string, detections []models.Detection) error
	ListSessions() ([]models.Session, error)
	GetSessionByID(sessionID string) (*models.Session, error)
	DetectionsBySession(sessionID string) ([]models.Detection, error)
	DeleteSessionByID(sessionID string) error
	Close() error
}

// Logger is the minimal logging surface the service depends on.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
