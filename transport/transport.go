// Package transport defines the broadcast channel that carries envelopes
// between controllers, the bridge and playback pages.
//
// Delivery is fire-and-forget: there is no acknowledgment, no retry and no
// ordering guarantee across different transports.
package transport

import (
	"errors"
	"sync"

	"github.com/vidbridge/vidbridge/protocol"
)

// ErrClosed is returned when posting to or listening on a closed transport.
var ErrClosed = errors.New("transport closed")

// Handler receives every envelope posted on the transport, including the
// listener's own posts. A transport never runs two handlers at once.
type Handler func(protocol.Envelope)

// Transport is a broadcast message channel.
type Transport interface {
	Post(protocol.Envelope) error
	Listen(Handler) (*Subscription, error)
}

// Subscription is the handle of one registered listener.
type Subscription struct {
	once    sync.Once
	release func()
}

// NewSubscription wraps release so it runs at most once.
func NewSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

// Close removes the listener. Calling it more than once is a no-op.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}
