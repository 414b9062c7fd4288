// Package observer implements ordered callback lists.
//
// Callbacks are compared by identity: the same *Callback may be registered
// several times and Remove drops only its last registration, so the
// remaining registrations keep firing.
package observer

import "sync"

// Callback wraps a function so it can be identified for removal.
type Callback[T any] struct {
	fn func(T)
}

// Func wraps fn into a Callback.
func Func[T any](fn func(T)) *Callback[T] {
	return &Callback[T]{fn: fn}
}

// Call invokes the wrapped function.
func (c *Callback[T]) Call(v T) {
	if c != nil && c.fn != nil {
		c.fn(v)
	}
}

// List is an ordered, multiplicity-preserving list of callbacks.
// The zero value is ready to use.
type List[T any] struct {
	mu    sync.Mutex
	items []*Callback[T]
}

// Add appends cb; registering the same callback twice makes it fire twice.
func (l *List[T]) Add(cb *Callback[T]) {
	if cb == nil {
		return
	}
	l.mu.Lock()
	l.items = append(l.items, cb)
	l.mu.Unlock()
}

// Subscribe wraps fn, appends it and returns the callback as a removal token.
func (l *List[T]) Subscribe(fn func(T)) *Callback[T] {
	cb := Func(fn)
	l.Add(cb)
	return cb
}

// Remove drops the last registered occurrence of cb and reports whether one was found.
func (l *List[T]) Remove(cb *Callback[T]) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.items) - 1; i >= 0; i-- {
		if l.items[i] == cb {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Notify calls every callback in registration order. Callbacks may add or
// remove callbacks; such changes apply from the next Notify.
func (l *List[T]) Notify(v T) {
	l.mu.Lock()
	items := make([]*Callback[T], len(l.items))
	copy(items, l.items)
	l.mu.Unlock()

	for _, cb := range items {
		cb.Call(v)
	}
}

// Len returns the number of registrations.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Clear drops every registration.
func (l *List[T]) Clear() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}
