// Package capture feeds microphone audio to the tuner as fixed-duration
// windows. The portaudio callback runs on a real-time thread and must never
// block or compute: it only accumulates samples and hands completed windows
// off through a non-blocking channel send. If the analysis side is still busy
// with a previous window, the new one is dropped; live tuning always prefers
// fresh audio over complete audio.
package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/tuner"
)

type Config struct {
	SampleRate      int           // Capture rate in Hz, default 44100
	WindowDuration  time.Duration // Length of each emitted window, default 100ms
	Interval        time.Duration // Minimum time between emitted windows, default 250ms
	FramesPerBuffer int           // Portaudio callback buffer size, default 512
	Logger          tuner.Logger
}

func (c *Config) applyDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.WindowDuration <= 0 {
		c.WindowDuration = 100 * time.Millisecond
	}
	if c.Interval <= 0 {
		c.Interval = 250 * time.Millisecond
	}
	if c.FramesPerBuffer <= 0 {
		c.FramesPerBuffer = 512
	}
}

// Mic is a tuner.WindowSource backed by the default portaudio input device.
type Mic struct {
	config Config
	stream *portaudio.Stream
	out    chan models.Window
	log    tuner.Logger

	mu            sync.Mutex
	buf           []float64 // rolling accumulation, most recent windowSamples
	windowSamples int
	lastEmit      time.Time
	dropped       uint64

	closeOnce sync.Once
}

// Open initializes portaudio and opens a mono input stream on the default
// device. Call Start to begin capturing and Close to release the device.
func Open(cfg Config) (*Mic, error) {
	cfg.applyDefaults()

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	m := &Mic{
		config:        cfg,
		out:           make(chan models.Window, 1),
		log:           cfg.Logger,
		windowSamples: int(float64(cfg.SampleRate) * cfg.WindowDuration.Seconds()),
		buf:           make([]float64, 0, int(float64(cfg.SampleRate)*cfg.WindowDuration.Seconds())),
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(cfg.SampleRate), cfg.FramesPerBuffer, m.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening default input stream: %w", err)
	}
	m.stream = stream

	if m.log != nil {
		m.log.Debugf("Microphone open: %d Hz, %s windows every %s",
			cfg.SampleRate, cfg.WindowDuration, cfg.Interval)
	}
	return m, nil
}

func (m *Mic) Start() error {
	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("starting capture stream: %w", err)
	}
	return nil
}

// Windows implements tuner.WindowSource. The channel closes when the mic is
// closed.
func (m *Mic) Windows() <-chan models.Window {
	return m.out
}

// Dropped reports how many completed windows were discarded because the
// analysis side had not finished the previous one.
func (m *Mic) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Close stops the stream, closes the window channel and releases portaudio.
func (m *Mic) Close() error {
	var err error
	m.closeOnce.Do(func() {
		if stopErr := m.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := m.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		close(m.out)
		portaudio.Terminate()

		m.mu.Lock()
		dropped := m.dropped
		m.mu.Unlock()
		if m.log != nil && dropped > 0 {
			m.log.Debugf("Capture dropped %d windows while analysis was busy", dropped)
		}
	})
	return err
}

// process is the portaudio callback. It copies the incoming block into the
// rolling buffer and, when a full window has accumulated and the emit
// interval has passed, snapshots the buffer and offers it to the consumer
// without blocking.
func (m *Mic) process(in []float32) {
	m.mu.Lock()

	for _, s := range in {
		m.buf = append(m.buf, float64(s))
	}
	// Keep only the most recent window's worth of samples.
	if len(m.buf) > m.windowSamples {
		copy(m.buf, m.buf[len(m.buf)-m.windowSamples:])
		m.buf = m.buf[:m.windowSamples]
	}

	now := time.Now()
	emit := len(m.buf) >= m.windowSamples && now.Sub(m.lastEmit) >= m.config.Interval
	var w models.Window
	if emit {
		samples := make([]float64, m.windowSamples)
		copy(samples, m.buf)
		w = models.Window{Samples: samples, SampleRate: m.config.SampleRate}
		m.lastEmit = now
	}

	if emit {
		select {
		case m.out <- w:
		default:
			m.dropped++
		}
	}
	m.mu.Unlock()
}
