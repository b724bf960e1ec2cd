// Package tone plays reference tones through the speaker so a player can
// hear the target pitch before tuning toward it.
package tone

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const playbackRate = beep.SampleRate(44100)

// sine streams a fixed-length sinusoid at freq Hz.
type sine struct {
	freq      float64
	rate      beep.SampleRate
	phase     float64
	remaining int
}

func newSine(freq float64, d time.Duration, rate beep.SampleRate) *sine {
	return &sine{
		freq:      freq,
		rate:      rate,
		remaining: rate.N(d),
	}
}

func (s *sine) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.remaining <= 0 {
			return i, i > 0
		}
		v := math.Sin(2 * math.Pi * s.phase)
		samples[i][0] = v
		samples[i][1] = v

		s.phase += s.freq / float64(s.rate)
		s.phase -= math.Floor(s.phase) // keep in [0, 1)
		s.remaining--
	}
	return len(samples), true
}

func (s *sine) Err() error { return nil }

// envelope shapes a streamer with linear attack and release ramps so the
// tone starts and stops without clicks.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, total time.Duration, attack, release time.Duration, rate beep.SampleRate) *envelope {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(total),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		} else if e.release > 0 && e.position >= e.total-e.release {
			vol = float64(e.total-e.position) / float64(e.release)
			if vol < 0 {
				vol = 0
			}
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// Player plays reference tones. The speaker is initialized lazily on the
// first Play and shared for the life of the process.
type Player struct {
	once    sync.Once
	initErr error
}

func NewPlayer() *Player {
	return &Player{}
}

// Play synthesizes a shaped sine at freq Hz and blocks until it has finished
// sounding.
func (p *Player) Play(freq float64, d time.Duration) error {
	if freq <= 0 {
		return fmt.Errorf("tone frequency must be positive, got %g", freq)
	}
	if d <= 0 {
		d = 2 * time.Second
	}

	p.once.Do(func() {
		p.initErr = speaker.Init(playbackRate, playbackRate.N(100*time.Millisecond))
	})
	if p.initErr != nil {
		return fmt.Errorf("initializing speaker: %w", p.initErr)
	}

	shaped := newEnvelope(newSine(freq, d, playbackRate), d, 20*time.Millisecond, 50*time.Millisecond, playbackRate)

	done := make(chan struct{})
	speaker.Play(beep.Seq(shaped, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}
