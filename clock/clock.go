// Package clock tracks elapsed playback time independently of the media element.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is a stopwatch with start, stop and jump semantics.
// Elapsed time never decreases while running unless SetTime is called.
type Clock struct {
	mu          sync.Mutex
	source      clockwork.Clock
	accumulated time.Duration
	startedAt   time.Time
	running     bool
}

// New returns a stopped clock at zero reading time from source.
// A nil source means the real wall clock.
func New(source clockwork.Clock) *Clock {
	if source == nil {
		source = clockwork.NewRealClock()
	}
	return &Clock{source: source}
}

// Start begins advancing from the current accumulated value. No-op if running.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.startedAt = c.source.Now()
	c.running = true
}

// Stop freezes the elapsed time. No-op if stopped.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.accumulated += c.source.Since(c.startedAt)
	c.running = false
}

// SetTime replaces the elapsed time without touching the running flag.
func (c *Clock) SetTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accumulated = d
	if c.running {
		c.startedAt = c.source.Now()
	}
}

// CurrentTime returns the elapsed time.
func (c *Clock) CurrentTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return c.accumulated
	}
	return c.accumulated + c.source.Since(c.startedAt)
}

// Running reports whether the clock is advancing.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Seconds is CurrentTime as fractional seconds, the unit used on the wire.
func (c *Clock) Seconds() float64 {
	return c.CurrentTime().Seconds()
}

// FromSeconds converts a wire time value to a duration.
func FromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
