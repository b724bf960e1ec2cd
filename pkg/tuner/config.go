package tuner

import (
	"time"

	"github.com/barakplasma/Accessible-guitar-tuner/pkg/tuner/pitch"
)

type Config struct {
	DBPath              string
	TempDir             string
	BaseFrequency       float64       // First candidate note, Hz
	SemitoneCount       int           // Semitones generated above the base
	MicroStep           float64       // Off-pitch variant offset, octave fraction
	ConfidenceThreshold float64       // Peak-to-average ratio gate
	WindowDuration      time.Duration // Analysis window length
	Logger              Logger
	Storage             Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithBaseFrequency(hz float64) Option {
	return func(c *Config) {
		c.BaseFrequency = hz
	}
}

func WithSemitoneCount(n int) Option {
	return func(c *Config) {
		c.SemitoneCount = n
	}
}

func WithMicroStep(octaveFraction float64) Option {
	return func(c *Config) {
		c.MicroStep = octaveFraction
	}
}

func WithConfidenceThreshold(threshold float64) Option {
	return func(c *Config) {
		c.ConfidenceThreshold = threshold
	}
}

func WithWindowDuration(d time.Duration) Option {
	return func(c *Config) {
		c.WindowDuration = d
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// The threshold and micro step defaults are empirical; both are tunable here
// rather than fixed in the core.
func defaultConfig() *Config {
	return &Config{
		DBPath:              "tuner.sqlite3",
		TempDir:             "/tmp",
		BaseFrequency:       pitch.DefaultBaseFrequency,
		SemitoneCount:       pitch.DefaultSemitoneCount,
		MicroStep:           pitch.DefaultMicroStep,
		ConfidenceThreshold: pitch.DefaultConfidenceThreshold,
		WindowDuration:      100 * time.Millisecond,
	}
}
