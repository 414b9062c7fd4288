package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidbridge/vidbridge/clock"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/observer"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/transport"
)

// ErrClosed is returned by operations on a closed channel.
var ErrClosed = errors.New("player channel closed")

// Token identifies one event registration; pass it to Channel.Off.
type Token struct {
	off func() bool
}

func on[T any](list *observer.List[T], fn func(T)) Token {
	cb := list.Subscribe(fn)
	return Token{off: func() bool { return list.Remove(cb) }}
}

// Channel applies controller commands to one playback instance and reports
// the instance's events back onto the transport.
type Channel struct {
	transport transport.Transport
	instance  protocol.Instance
	media     Media
	clock     *clock.Clock
	sub       *transport.Subscription
	logger    *logrus.Entry

	mu       sync.Mutex
	state    State
	duration mo.Option[time.Duration]

	ready       observer.List[time.Duration]
	play        observer.List[struct{}]
	pause       observer.List[struct{}]
	currentTime observer.List[float64]
	close       observer.List[struct{}]
}

// ChannelOption configures a Channel before it subscribes to its media.
type ChannelOption func(*Channel)

// WithOnReady registers fn for the transition to Ready, including one that
// happens inside NewChannel.
func WithOnReady(fn func(duration time.Duration)) ChannelOption {
	return func(c *Channel) { c.OnReady(fn) }
}

// WithOnClose registers fn for the transition to Closed.
func WithOnClose(fn func()) ChannelOption {
	return func(c *Channel) { c.OnClose(fn) }
}

// NewChannel listens on t for commands addressed to instance. The channel
// becomes Ready when media reports its metadata.
func NewChannel(t transport.Transport, instance protocol.Instance, media Media, c *clock.Clock, options ...ChannelOption) (*Channel, error) {
	if c == nil {
		c = clock.New(nil)
	}

	ch := &Channel{
		transport: t,
		instance:  instance,
		media:     media,
		clock:     c,
		logger: log.With(logrus.Fields{
			"component": "player",
			"tab":       instance.TabID,
			"src":       instance.Src,
		}),
	}

	for _, option := range options {
		option(ch)
	}

	sub, err := t.Listen(ch.handle)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	ch.sub = sub

	media.OnMetadataLoaded(func(seconds float64) {
		if err := ch.Ready(clock.FromSeconds(seconds)); err != nil {
			ch.logger.Warnf("ready: %s", err)
		}
	})

	return ch, nil
}

// Instance returns the identity of this channel.
func (c *Channel) Instance() protocol.Instance {
	return c.instance
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Duration returns the media duration once Ready.
func (c *Channel) Duration() mo.Option[time.Duration] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Clock returns the playback clock driven by this channel.
func (c *Channel) Clock() *clock.Clock {
	return c.clock
}

// Ready moves an uninitialized channel to Ready and announces the duration.
// Later calls are ignored.
func (c *Channel) Ready(duration time.Duration) error {
	c.mu.Lock()
	switch c.state {
	case Closed:
		c.mu.Unlock()
		return ErrClosed
	case Uninitialized:
	default:
		state := c.state
		c.mu.Unlock()
		c.logger.Debugf("ignoring ready in state %s", state)
		return nil
	}
	c.state = Ready
	c.duration = mo.Some(duration)
	c.mu.Unlock()

	c.ready.Notify(duration)
	return c.post(protocol.Ready{Duration: duration.Seconds()})
}

// Announce repeats the ready event so the bridge keeps the instance alive.
// It does nothing before Ready.
func (c *Channel) Announce() error {
	c.mu.Lock()
	state, duration := c.state, c.duration
	c.mu.Unlock()

	switch state {
	case Closed:
		return ErrClosed
	case Uninitialized:
		return nil
	}
	return c.post(protocol.Ready{Duration: duration.OrEmpty().Seconds()})
}

// Play asks the controller to start playback. Local state changes only when
// the controller's play command comes back.
func (c *Channel) Play() error {
	return c.intent(protocol.Play{})
}

// Pause asks the controller to pause playback.
func (c *Channel) Pause() error {
	return c.intent(protocol.Pause{})
}

// Seek asks the controller to move playback to seconds.
func (c *Channel) Seek(seconds float64) error {
	return c.intent(protocol.CurrentTime{CurrentTime: seconds})
}

func (c *Channel) intent(m protocol.Message) error {
	if c.State() == Closed {
		return ErrClosed
	}
	return c.post(m)
}

func (c *Channel) post(m protocol.Message) error {
	return c.transport.Post(protocol.To(protocol.Bridge, m, c.instance))
}

// Close releases the transport listener, announces the close and notifies
// close observers. Calling it again does nothing.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return nil
	}
	c.state = Closed
	c.mu.Unlock()

	c.sub.Close()
	c.clock.Stop()

	if err := c.post(protocol.Close{}); err != nil && !errors.Is(err, transport.ErrClosed) {
		c.logger.Warnf("close notification: %s", err)
	}

	c.close.Notify(struct{}{})
	return nil
}

// OnReady registers fn for the transition to Ready.
func (c *Channel) OnReady(fn func(duration time.Duration)) Token {
	return on(&c.ready, fn)
}

// OnPlay registers fn for applied play commands.
func (c *Channel) OnPlay(fn func()) Token {
	return on(&c.play, func(struct{}) { fn() })
}

// OnPause registers fn for applied pause commands.
func (c *Channel) OnPause(fn func()) Token {
	return on(&c.pause, func(struct{}) { fn() })
}

// OnCurrentTime registers fn for applied currentTime commands, in seconds.
func (c *Channel) OnCurrentTime(fn func(seconds float64)) Token {
	return on(&c.currentTime, fn)
}

// OnClose registers fn for the transition to Closed.
func (c *Channel) OnClose(fn func()) Token {
	return on(&c.close, func(struct{}) { fn() })
}

// Off removes a registration made by one of the On methods.
func (c *Channel) Off(t Token) bool {
	if t.off == nil {
		return false
	}
	return t.off()
}

func (c *Channel) handle(e protocol.Envelope) {
	if e.Sender != protocol.Controller || !e.Addresses(c.instance) {
		return
	}

	switch m := e.Message.(type) {
	case protocol.Play:
		c.apply(protocol.CommandPlay, Playing, func() {
			if err := c.media.Play(); err != nil {
				c.logger.Errorf("media play: %s", err)
			}
			c.clock.Start()
			c.play.Notify(struct{}{})
		})
	case protocol.Pause:
		c.apply(protocol.CommandPause, Paused, func() {
			if err := c.media.Pause(); err != nil {
				c.logger.Errorf("media pause: %s", err)
			}
			c.clock.Stop()
			c.pause.Notify(struct{}{})
		})
	case protocol.CurrentTime:
		c.apply(protocol.CommandCurrentTime, -1, func() {
			if err := c.media.SetCurrentTime(m.CurrentTime); err != nil {
				c.logger.Errorf("media seek: %s", err)
			}
			c.clock.SetTime(clock.FromSeconds(m.CurrentTime))
			c.currentTime.Notify(m.CurrentTime)
		})
	case protocol.Close:
		_ = c.Close()
	}
}

// apply moves to next (negative keeps the state) when the command is allowed
// in the current state, then runs effects outside the lock.
func (c *Channel) apply(command protocol.Command, next State, effects func()) {
	c.mu.Lock()
	if !c.state.accepts(command) {
		state := c.state
		c.mu.Unlock()
		c.logger.Debugf("ignoring %s in state %s", command, state)
		return
	}
	if next >= 0 {
		c.state = next
	}
	c.mu.Unlock()

	effects()
}
