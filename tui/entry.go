package tui

import (
	"time"

	"github.com/vidbridge/vidbridge/clock"
	"github.com/vidbridge/vidbridge/player"
	"github.com/vidbridge/vidbridge/protocol"
)

// entry mirrors the playback state of one instance from the commands the
// controller sends and the events the instance reports.
type entry struct {
	instance protocol.Instance
	state    player.State
	duration time.Duration
	clock    *clock.Clock
}

func newEntry(instance protocol.Instance, c *clock.Clock) *entry {
	if c == nil {
		c = clock.New(nil)
	}
	return &entry{instance: instance, clock: c}
}

func (e *entry) ready(seconds float64) {
	e.duration = clock.FromSeconds(seconds)
	if e.state == player.Uninitialized {
		e.state = player.Ready
	}
}

// apply mirrors a command sent to the instance.
func (e *entry) apply(m protocol.Message) {
	switch m := m.(type) {
	case protocol.Play:
		if e.state == player.Ready || e.state == player.Paused {
			e.state = player.Playing
			e.clock.Start()
		}
	case protocol.Pause:
		if e.state == player.Playing {
			e.state = player.Paused
			e.clock.Stop()
		}
	case protocol.CurrentTime:
		if e.state != player.Uninitialized && e.state != player.Closed {
			e.clock.SetTime(clock.FromSeconds(m.CurrentTime))
		}
	case protocol.Close:
		e.close()
	}
}

func (e *entry) close() {
	e.state = player.Closed
	e.clock.Stop()
}

// toggle returns the command that flips play and pause.
func (e *entry) toggle() protocol.Message {
	if e.state == player.Playing {
		return protocol.Pause{}
	}
	return protocol.Play{}
}

// seek returns the command that moves by delta, clamped to the media.
func (e *entry) seek(delta time.Duration) protocol.CurrentTime {
	target := e.clock.CurrentTime() + delta
	if target < 0 {
		target = 0
	}
	if e.duration > 0 && target > e.duration {
		target = e.duration
	}
	return protocol.CurrentTime{CurrentTime: target.Seconds()}
}
