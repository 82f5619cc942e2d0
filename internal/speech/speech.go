// Package speech reads document units aloud through a pluggable
// synthesizer, auto-advancing between units with a cancellable timer.
package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Speech errors.
var (
	// ErrUnsupported means no synthesizer is available on this host.
	// It is terminal and non-retryable; the caller reports it once.
	ErrUnsupported = errors.New("speech: synthesis unavailable")
	// ErrInterrupted is returned by a synthesizer when playback was
	// stopped on purpose. It is never surfaced as a failure.
	ErrInterrupted = errors.New("speech: interrupted")
)

// Parameter bounds accepted by the utterance primitive.
const (
	MinRate   = 0.5
	MaxRate   = 2.0
	MinPitch  = 0.5
	MaxPitch  = 2.0
	MinVolume = 0.0
	MaxVolume = 1.0
)

// DefaultAdvanceDelay is the pause between finishing one unit and
// starting the next.
const DefaultAdvanceDelay = 500 * time.Millisecond

// Options controls one utterance.
type Options struct {
	Rate   float64
	Pitch  float64
	Volume float64
	Voice  string
}

// DefaultOptions returns neutral utterance options.
func DefaultOptions() Options {
	return Options{Rate: 1.0, Pitch: 1.0, Volume: 1.0}
}

// Normalized returns the options with every parameter clamped to its
// legal range. Zero values are replaced by defaults first.
func (o Options) Normalized() Options {
	if o.Rate == 0 {
		o.Rate = 1.0
	}
	if o.Pitch == 0 {
		o.Pitch = 1.0
	}
	o.Rate = clampF(o.Rate, MinRate, MaxRate)
	o.Pitch = clampF(o.Pitch, MinPitch, MaxPitch)
	o.Volume = clampF(o.Volume, MinVolume, MaxVolume)
	return o
}

// Voice describes one synthesizer voice.
type Voice struct {
	ID       string
	Name     string
	Language string
}

// Synthesizer is the utterance primitive the controller drives.
type Synthesizer interface {
	// Voices enumerates available voices. Some hosts populate the
	// list asynchronously, so an early call may return fewer voices
	// than a later one.
	Voices(ctx context.Context) ([]Voice, error)

	// Speak utters text, blocking until playback finishes. It
	// returns ErrInterrupted when playback was stopped via Stop.
	Speak(ctx context.Context, text string, opts Options) error

	// Stop interrupts the current utterance, if any.
	Stop()
}

// Extractor provides per-unit text, typically the extraction cache.
type Extractor interface {
	UnitText(ctx context.Context, unit int) (string, error)
}

// Controller plays units sequentially. A second Play while one is
// running is a silent no-op; Stop cancels playback and clears the
// pending auto-advance timer so an intentional stop never looks like
// a failure.
type Controller struct {
	synth   Synthesizer
	source  Extractor
	advance func(unit int)
	delay   time.Duration

	mu      sync.Mutex
	playing bool
	cancel  context.CancelFunc
}

// NewController creates a controller. advance is invoked before each
// auto-advanced unit so the host can navigate; it may be nil. A zero
// delay uses DefaultAdvanceDelay.
func NewController(synth Synthesizer, source Extractor, advance func(unit int), delay time.Duration) *Controller {
	if delay <= 0 {
		delay = DefaultAdvanceDelay
	}
	if advance == nil {
		advance = func(int) {}
	}
	return &Controller{synth: synth, source: source, advance: advance, delay: delay}
}

// Playing reports whether playback is in progress.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Play reads units [startUnit, totalUnits] aloud in order, pausing
// between units. It blocks until the document ends, an error occurs,
// or playback is stopped; an intentional stop returns nil.
func (c *Controller) Play(ctx context.Context, startUnit, totalUnits int, opts Options) error {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	c.playing = true
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.playing = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	opts = opts.Normalized()

	for unit := startUnit; unit <= totalUnits; unit++ {
		if unit != startUnit {
			if !c.waitAdvance(ctx) {
				return nil
			}
			c.advance(unit)
		}

		text, err := c.source.UnitText(ctx, unit)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("speech: extract unit %d: %w", unit, err)
		}

		err = c.synth.Speak(ctx, text, opts)
		if errors.Is(err, ErrInterrupted) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("speech: unit %d: %w", unit, err)
		}
	}
	return nil
}

// Stop interrupts playback and cancels any pending auto-advance.
// Stopping while idle is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.synth.Stop()
}

// Close stops playback; the controller is reusable afterwards but
// hosts call it on unmount for symmetry with other components.
func (c *Controller) Close() {
	c.Stop()
}

// waitAdvance sleeps for the advance delay with a timer that is
// cleared on cancellation. It reports whether playback should
// continue.
func (c *Controller) waitAdvance(ctx context.Context) bool {
	timer := time.NewTimer(c.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
