package transport

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/protocol"
)

type listener struct {
	handler Handler
	active  atomic.Bool
}

// Bus is an in-process Transport. Every envelope is encoded once and decoded
// separately for each listener, so receivers never share memory. All
// deliveries run on a single dispatcher goroutine in posting order.
type Bus struct {
	mu        sync.Mutex
	cond      *sync.Cond
	queue     [][]byte
	pending   int
	listeners []*listener
	closed    bool
}

// NewBus starts the dispatcher. Call Close to stop it.
func NewBus() *Bus {
	b := &Bus{}
	b.cond = sync.NewCond(&b.mu)
	go b.dispatch()
	return b
}

// Post queues e for delivery to every current listener.
func (b *Bus) Post(e protocol.Envelope) error {
	data, err := protocol.Encode(e)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.queue = append(b.queue, data)
	b.pending++
	b.cond.Broadcast()
	return nil
}

// Listen registers h. Envelopes already queued but not yet dispatched are
// delivered to it as well.
func (b *Bus) Listen(h Handler) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	l := &listener{handler: h}
	l.active.Store(true)
	b.listeners = append(b.listeners, l)

	return NewSubscription(func() { b.remove(l) }), nil
}

// Listeners returns the number of registered listeners.
func (b *Bus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Drain blocks until every envelope posted so far has been delivered.
func (b *Bus) Drain() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.pending > 0 && !b.closed {
		b.cond.Wait()
	}
}

// Close stops the dispatcher and drops undelivered envelopes.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.queue = nil
	b.pending = 0
	b.listeners = nil
	b.cond.Broadcast()
	return nil
}

func (b *Bus) remove(l *listener) {
	l.active.Store(false)

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, other := range b.listeners {
		if other == l {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

func (b *Bus) dispatch() {
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if b.closed {
			b.mu.Unlock()
			return
		}

		data := b.queue[0]
		b.queue = b.queue[1:]
		listeners := make([]*listener, len(b.listeners))
		copy(listeners, b.listeners)
		b.mu.Unlock()

		for _, l := range listeners {
			if !l.active.Load() {
				continue
			}

			e, err := protocol.Decode(data)
			if err != nil {
				log.With(logrus.Fields{"component": "bus"}).Warnf("dropping envelope: %s", err)
				break
			}
			l.handler(e)
		}

		b.mu.Lock()
		if b.pending > 0 {
			b.pending--
		}
		b.cond.Broadcast()
		b.mu.Unlock()
	}
}
