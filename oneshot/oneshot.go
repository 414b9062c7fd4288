// Package oneshot provides a value that is resolved at most once and cached forever.
package oneshot

import (
	"context"
	"sync"

	"github.com/samber/mo"
)

// Value is resolved by the first Resolve call; later calls are ignored.
type Value[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

// New returns an unresolved value.
func New[T any]() *Value[T] {
	return &Value[T]{done: make(chan struct{})}
}

// Resolve pins v and wakes every waiter. It reports false when the value was
// already resolved, in which case v is discarded.
func (o *Value[T]) Resolve(v T) bool {
	resolved := false
	o.once.Do(func() {
		o.value = v
		close(o.done)
		resolved = true
	})
	return resolved
}

// Wait blocks until the value is resolved or ctx is done. With a context
// that is never cancelled it may block forever.
func (o *Value[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-o.done:
		return o.value, nil
	default:
	}

	select {
	case <-o.done:
		return o.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek returns the value without blocking.
func (o *Value[T]) Peek() mo.Option[T] {
	select {
	case <-o.done:
		return mo.Some(o.value)
	default:
		return mo.None[T]()
	}
}

// Done is closed once the value is resolved.
func (o *Value[T]) Done() <-chan struct{} {
	return o.done
}
