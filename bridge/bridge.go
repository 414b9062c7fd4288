// Package bridge is the discovery counterpart of the controller registry.
// It learns which playback instances are alive from their ready and close
// announcements, forgets pages that stop announcing, and answers controller heartbeats with tabs snapshots and
// its version.
package bridge

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidbridge/vidbridge/constant"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/observer"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/transport"
)

// Controller is a controller that sent a heartbeat recently.
type Controller struct {
	ID       string
	LastSeen time.Time
	// Acknowledged is the last snapshot the controller confirmed, if any.
	Acknowledged mo.Option[protocol.Instances]
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithClock sets the time source used for controller expiry.
func WithClock(c clockwork.Clock) Option {
	return func(b *Bridge) { b.clock = c }
}

// WithTTL sets how long a silent controller is kept.
func WithTTL(ttl time.Duration) Option {
	return func(b *Bridge) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithInstanceTTL sets how long an instance is kept without a ready
// announcement.
func WithInstanceTTL(ttl time.Duration) Option {
	return func(b *Bridge) {
		if ttl > 0 {
			b.instanceTTL = ttl
		}
	}
}

// WithVersion sets the version announced to new controllers.
func WithVersion(v string) Option {
	return func(b *Bridge) { b.version = v }
}

// Bridge tracks live instances on one transport.
type Bridge struct {
	transport transport.Transport
	sub       *transport.Subscription
	clock     clockwork.Clock
	ttl       time.Duration
	version   string
	logger    *logrus.Entry

	instanceTTL time.Duration

	mu          sync.Mutex
	instances   protocol.Instances
	announced   map[protocol.Instance]time.Time
	controllers map[string]*Controller
	closed      bool

	changes observer.List[protocol.Instances]
}

// New creates a bridge listening on t.
func New(t transport.Transport, options ...Option) (*Bridge, error) {
	b := &Bridge{
		transport:   t,
		clock:       clockwork.NewRealClock(),
		ttl:         constant.ControllerTTL,
		instanceTTL: constant.InstanceTTL,
		version:     constant.Version,
		announced:   make(map[protocol.Instance]time.Time),
		controllers: make(map[string]*Controller),
		logger:      log.With(logrus.Fields{"component": "bridge"}),
	}

	for _, option := range options {
		option(b)
	}

	sub, err := t.Listen(b.handle)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	b.sub = sub

	return b, nil
}

// Instances returns the live instances in announcement order.
func (b *Bridge) Instances() protocol.Instances {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.instances.Clone()
}

// Controllers returns the controllers heard from within the TTL, by id.
func (b *Bridge) Controllers() []Controller {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expire()

	out := lo.MapToSlice(b.controllers, func(_ string, c *Controller) Controller { return *c })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OnChange registers fn for every change of the instance list.
func (b *Bridge) OnChange(fn func(protocol.Instances)) *observer.Callback[protocol.Instances] {
	return b.changes.Subscribe(fn)
}

// Announce posts the current snapshot and asks controllers to acknowledge it.
func (b *Bridge) Announce() error {
	return b.transport.Post(protocol.Broadcast(protocol.Bridge, protocol.Tabs{
		Tabs:         b.Instances(),
		AckRequested: true,
	}))
}

// Close releases the transport listener.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.sub.Close()
	return nil
}

func (b *Bridge) handle(e protocol.Envelope) {
	switch e.Sender {
	case protocol.Bridge:
		b.handleInstance(e)
	case protocol.Controller:
		b.handleController(e)
	}
}

func (b *Bridge) handleInstance(e protocol.Envelope) {
	instance, ok := e.Target().Get()
	if !ok {
		return
	}

	b.mu.Lock()
	changed := b.expireInstances()
	switch e.Message.(type) {
	case protocol.Ready:
		b.announced[instance] = b.clock.Now()
		if !b.instances.Contains(instance) {
			b.instances = append(b.instances, instance)
			changed = true
		}
	case protocol.Close:
		changed = b.remove(instance) || changed
	}
	snapshot := b.instances.Clone()
	b.mu.Unlock()

	if changed {
		b.publish(snapshot)
	}
}

// publish notifies observers of a new snapshot and posts it.
func (b *Bridge) publish(snapshot protocol.Instances) {
	b.logger.Infof("instances: %s", snapshot)
	b.changes.Notify(snapshot)

	if err := b.Announce(); err != nil {
		b.logger.Warnf("announce: %s", err)
	}
}

func (b *Bridge) handleController(e protocol.Envelope) {
	switch m := e.Message.(type) {
	case protocol.Heartbeat:
		b.heartbeat(m)
	case protocol.AckTabs:
		b.mu.Lock()
		c := b.seen(m.ID)
		c.Acknowledged = mo.Some(m.ReceivedTabs.Clone())
		b.mu.Unlock()
	}
}

func (b *Bridge) heartbeat(m protocol.Heartbeat) {
	b.mu.Lock()
	b.expire()
	expired := b.expireInstances()
	snapshot := b.instances.Clone()
	_, known := b.controllers[m.ID]
	b.seen(m.ID)
	stale := !known || !m.ReceivedTabs.Equal(snapshot)
	b.mu.Unlock()

	if expired {
		b.changes.Notify(snapshot)
		b.logger.Infof("instances: %s", snapshot)
	}

	if !known {
		b.logger.Infof("controller %s connected", m.ID)
		if err := b.transport.Post(protocol.Broadcast(protocol.Bridge, protocol.Version{Version: b.version})); err != nil {
			b.logger.Warnf("version: %s", err)
		}
	}

	if stale || expired {
		if err := b.Announce(); err != nil {
			b.logger.Warnf("announce: %s", err)
		}
	}
}

// seen marks id as alive now. Must be called with b.mu held.
func (b *Bridge) seen(id string) *Controller {
	c, ok := b.controllers[id]
	if !ok {
		c = &Controller{ID: id}
		b.controllers[id] = c
	}
	c.LastSeen = b.clock.Now()
	return c
}

// expire drops silent controllers. Must be called with b.mu held.
func (b *Bridge) expire() {
	now := b.clock.Now()
	for id, c := range b.controllers {
		if now.Sub(c.LastSeen) > b.ttl {
			delete(b.controllers, id)
		}
	}
}

// remove drops instance. Must be called with b.mu held.
func (b *Bridge) remove(instance protocol.Instance) bool {
	delete(b.announced, instance)
	before := len(b.instances)
	b.instances = lo.Reject(b.instances, func(i protocol.Instance, _ int) bool { return i == instance })
	return len(b.instances) != before
}

// expireInstances drops instances that stopped announcing. Must be called
// with b.mu held.
func (b *Bridge) expireInstances() bool {
	now := b.clock.Now()
	var changed bool
	for _, instance := range b.instances.Clone() {
		if now.Sub(b.announced[instance]) > b.instanceTTL {
			b.logger.Infof("instance %s went silent", instance)
			changed = b.remove(instance) || changed
		}
	}
	return changed
}
