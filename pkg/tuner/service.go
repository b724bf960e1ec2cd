package tuner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/barakplasma/Accessible-guitar-tuner/internal/audio"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/logger"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/tuner/pitch"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/tuner/storage"
)

// tunerService is the default implementation of the Service interface.
type tunerService struct {
	table   []models.Candidate
	config  *Config
	storage Storage
	log     Logger

	mu           sync.Mutex
	sessionID    string
	sessionStart time.Time
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	table, err := pitch.BuildTable(cfg.BaseFrequency, cfg.SemitoneCount, cfg.MicroStep)
	if err != nil {
		return nil, fmt.Errorf("building candidate table: %w", err)
	}

	var stor Storage
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = storage.NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
	}

	cfg.Logger.Debugf("candidate table ready: %d candidates spanning %.2f-%.2f Hz",
		len(table), table[0].Frequency, table[len(table)-1].Frequency)

	return &tunerService{
		table:   table,
		config:  cfg,
		storage: stor,
		log:     cfg.Logger,
	}, nil
}

func (s *tunerService) Candidates() []models.Candidate {
	out := make([]models.Candidate, len(s.table))
	copy(out, s.table)
	return out
}

func (s *tunerService) Analyze(samples []float64, sampleRate int) (models.Outcome, []complex128) {
	corr := pitch.Correlate(samples, sampleRate, s.table)
	return pitch.Decide(corr, s.table, s.config.ConfidenceThreshold), corr
}

// Listen is the pipeline driver. It runs on the caller's goroutine, separate
// from the capture path: the source hands windows over a channel so the audio
// callback never blocks on the O(candidates × N) correlation cost.
func (s *tunerService) Listen(ctx context.Context, src WindowSource, fn func(models.Outcome)) error {
	windows := src.Windows()
	s.log.Infof("Listening for windows")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case w, ok := <-windows:
			if !ok {
				s.log.Infof("Window source closed")
				return nil
			}
			outcome, _ := s.Analyze(w.Samples, w.SampleRate)
			s.recordOutcome(outcome)
			if fn != nil {
				fn(outcome)
			}
		}
	}
}

// recordOutcome persists a positive outcome when a session is open. Storage
// failures are logged and swallowed: a failed insert must not stall the live
// analysis loop.
func (s *tunerService) recordOutcome(outcome models.Outcome) {
	if !outcome.Detected {
		return
	}

	s.mu.Lock()
	sessionID := s.sessionID
	offset := time.Since(s.sessionStart)
	s.mu.Unlock()

	if sessionID == "" {
		return
	}

	det := models.Detection{
		SessionID:  sessionID,
		Note:       outcome.Note.Name,
		Frequency:  outcome.Note.Frequency,
		Confidence: outcome.Confidence,
		OffsetMs:   offset.Milliseconds(),
	}
	if err := s.storage.RecordDetections(sessionID, []models.Detection{det}); err != nil {
		s.log.Warnf("Failed to record detection: %v", err)
	}
}

func (s *tunerService) AnalyzeFile(ctx context.Context, path string) ([]models.Detection, error) {
	s.log.Infof("Analyzing file: %s", path)

	wavPath := path
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		converted, err := audio.ConvertToMonoWAV(ctx, path, s.config.TempDir, audio.ConvertWAVConfig{})
		if err != nil {
			return nil, fmt.Errorf("audio conversion failed: %w", err)
		}
		wavPath = converted
	}

	samples, sampleRate, err := audio.ReadWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV file: %w", err)
	}

	windows := audio.Split(samples, sampleRate, s.config.WindowDuration)
	s.log.Debugf("File yields %d windows of %s at %d Hz", len(windows), s.config.WindowDuration, sampleRate)

	windowMs := s.config.WindowDuration.Milliseconds()
	detections := make([]models.Detection, 0)
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, _ := s.Analyze(w.Samples, w.SampleRate)
		if !outcome.Detected {
			continue
		}
		detections = append(detections, models.Detection{
			Note:       outcome.Note.Name,
			Frequency:  outcome.Note.Frequency,
			Confidence: outcome.Confidence,
			OffsetMs:   int64(i) * windowMs,
		})
	}

	s.log.Infof("Detected notes in %d of %d windows", len(detections), len(windows))
	return detections, nil
}

func (s *tunerService) StartSession(label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionID != "" {
		return "", fmt.Errorf("session %s is already open", s.sessionID)
	}

	id, err := s.storage.BeginSession(label)
	if err != nil {
		return "", fmt.Errorf("starting session: %w", err)
	}
	s.sessionID = id
	s.sessionStart = time.Now()
	s.log.Infof("Session started: %s (%q)", id, label)
	return id, nil
}

func (s *tunerService) EndSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionID == "" {
		return nil
	}
	if err := s.storage.EndSession(s.sessionID); err != nil {
		return fmt.Errorf("ending session %s: %w", s.sessionID, err)
	}
	s.log.Infof("Session ended: %s", s.sessionID)
	s.sessionID = ""
	return nil
}

func (s *tunerService) Sessions() ([]models.Session, error) {
	return s.storage.ListSessions()
}

func (s *tunerService) Detections(sessionID string) ([]models.Detection, error) {
	return s.storage.DetectionsBySession(sessionID)
}

func (s *tunerService) DeleteSession(sessionID string) error {
	return s.storage.DeleteSessionByID(sessionID)
}

func (s *tunerService) Close() error {
	if err := s.EndSession(); err != nil {
		s.log.Warnf("Failed to close open session: %v", err)
	}
	return s.storage.Close()
}
