// Package registry is the controller side of the discovery protocol: it keeps
// the latest snapshot of live playback instances, runs the heartbeat and
// fans incoming playback events out to observers.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidbridge/vidbridge/constant"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/observer"
	"github.com/vidbridge/vidbridge/oneshot"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/transport"
)

// Message is a playback event received from an instance.
type Message struct {
	Data  protocol.Message
	TabID mo.Option[int]
	Src   mo.Option[string]
}

// Instance returns the sending instance when the event was addressed.
func (m Message) Instance() mo.Option[protocol.Instance] {
	tab, ok := m.TabID.Get()
	if !ok {
		return mo.None[protocol.Instance]()
	}
	src, ok := m.Src.Get()
	if !ok {
		return mo.None[protocol.Instance]()
	}
	return mo.Some(protocol.Instance{TabID: tab, Src: src})
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source of the heartbeat ticker.
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithInterval sets the heartbeat period.
func WithInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithID overrides the random controller id.
func WithID(id string) Option {
	return func(r *Registry) { r.id = id }
}

// Registry tracks live instances for one controller.
type Registry struct {
	transport transport.Transport
	sub       *transport.Subscription
	id        string
	clock     clockwork.Clock
	interval  time.Duration
	logger    *logrus.Entry

	mu     sync.Mutex
	tabs   protocol.Instances
	stop   chan struct{}
	done   chan struct{}
	closed bool

	messages observer.List[Message]
	snapshot observer.List[protocol.Instances]
	version  *oneshot.Value[string]
}

// New creates a registry listening on t. Close releases the listener.
func New(t transport.Transport, options ...Option) (*Registry, error) {
	r := &Registry{
		transport: t,
		id:        uuid.NewString(),
		clock:     clockwork.NewRealClock(),
		interval:  constant.HeartbeatInterval,
		version:   oneshot.New[string](),
	}

	for _, option := range options {
		option(r)
	}

	r.logger = log.With(logrus.Fields{"component": "registry", "controller": r.id})

	sub, err := t.Listen(r.handle)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	r.sub = sub

	return r, nil
}

// ID is the controller id attached to heartbeats and acknowledgments.
func (r *Registry) ID() string {
	return r.id
}

// Tabs returns a copy of the latest snapshot.
func (r *Registry) Tabs() protocol.Instances {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tabs.Clone()
}

// StartHeartbeat sends one heartbeat now and one every interval until
// StopHeartbeat or Close. Calling it while running does nothing.
func (r *Registry) StartHeartbeat() {
	r.mu.Lock()
	if r.closed || r.stop != nil {
		r.mu.Unlock()
		return
	}

	stop, done := make(chan struct{}), make(chan struct{})
	r.stop, r.done = stop, done
	ticker := r.clock.NewTicker(r.interval)
	r.mu.Unlock()

	r.beat()

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				r.beat()
			}
		}
	}()
}

// StopHeartbeat cancels the heartbeat and waits for the ticker goroutine.
// A later StartHeartbeat starts a new one.
func (r *Registry) StopHeartbeat() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (r *Registry) beat() {
	err := r.transport.Post(protocol.Broadcast(protocol.Controller, protocol.Heartbeat{
		ID:           r.id,
		ReceivedTabs: r.Tabs(),
	}))
	if err != nil {
		r.logger.Warnf("heartbeat: %s", err)
	}
}

// SendMessage addresses m to a single instance.
func (r *Registry) SendMessage(m protocol.Message, tabID int, src string) error {
	return r.transport.Post(protocol.To(protocol.Controller, m, protocol.Instance{TabID: tabID, Src: src}))
}

// PublishMessage sends m to every instance of the current snapshot.
func (r *Registry) PublishMessage(m protocol.Message) error {
	var errs []error
	for _, instance := range r.Tabs() {
		if err := r.transport.Post(protocol.To(protocol.Controller, m, instance)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", instance, err))
		}
	}
	return errors.Join(errs...)
}

// InstalledVersion waits for the bridge version. With a context that is
// never cancelled it blocks until a version message arrives.
func (r *Registry) InstalledVersion(ctx context.Context) (string, error) {
	return r.version.Wait(ctx)
}

// KnownVersion returns the bridge version if it has been received.
func (r *Registry) KnownVersion() mo.Option[string] {
	return r.version.Peek()
}

// Subscribe registers cb for playback events.
func (r *Registry) Subscribe(cb *observer.Callback[Message]) {
	r.messages.Add(cb)
}

// Unsubscribe removes the last registration of cb.
func (r *Registry) Unsubscribe(cb *observer.Callback[Message]) bool {
	return r.messages.Remove(cb)
}

// SubscribeTabs registers cb for snapshot changes.
func (r *Registry) SubscribeTabs(cb *observer.Callback[protocol.Instances]) {
	r.snapshot.Add(cb)
}

// UnsubscribeTabs removes the last registration of cb.
func (r *Registry) UnsubscribeTabs(cb *observer.Callback[protocol.Instances]) bool {
	return r.snapshot.Remove(cb)
}

// Close stops the heartbeat and releases the transport listener.
func (r *Registry) Close() error {
	r.StopHeartbeat()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.sub.Close()
	return nil
}

func (r *Registry) handle(e protocol.Envelope) {
	if e.Sender != protocol.Bridge {
		return
	}

	switch m := e.Message.(type) {
	case protocol.Tabs:
		r.receiveTabs(m)
	case protocol.Version:
		if !r.version.Resolve(m.Version) {
			r.logger.Debugf("ignoring version %s, already resolved", m.Version)
		}
	default:
		r.messages.Notify(Message{Data: m, TabID: e.TabID, Src: e.Src})
	}
}

func (r *Registry) receiveTabs(m protocol.Tabs) {
	tabs := m.Tabs.Clone()

	r.mu.Lock()
	r.tabs = tabs
	r.mu.Unlock()

	r.snapshot.Notify(tabs.Clone())

	if !m.AckRequested {
		return
	}

	err := r.transport.Post(protocol.Broadcast(protocol.Controller, protocol.AckTabs{
		ID:           r.id,
		ReceivedTabs: tabs,
	}))
	if err != nil {
		r.logger.Warnf("ackTabs: %s", err)
	}
}
