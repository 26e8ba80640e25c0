// Package observe provides a small publish-on-change state holder.
package observe

import "sync"

// Value holds the latest T and notifies observers when it changes.
// Setting an equal value is a no-op, so observers only see distinct values.
type Value[T comparable] struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	v        T
	nextID   int
	subs     map[int]chan T
	watchers map[int]func(T)
}

// NewValue returns a Value holding initial.
func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{
		v:        initial,
		subs:     make(map[int]chan T),
		watchers: make(map[int]func(T)),
	}
}

// Get returns the current value.
func (o *Value[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v
}

// Set stores v and reports whether it differed from the previous value.
func (o *Value[T]) Set(v T) bool {
	return o.Update(func(T) T { return v })
}

// Update applies fn to the current value atomically and publishes the result if it changed.
func (o *Value[T]) Update(fn func(T) T) bool {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	next := fn(o.v)
	if next == o.v {
		o.mu.Unlock()
		return false
	}
	o.v = next
	for _, ch := range o.subs {
		offer(ch, next)
	}
	watchers := make([]func(T), 0, len(o.watchers))
	for _, w := range o.watchers {
		watchers = append(watchers, w)
	}
	o.mu.Unlock()

	for _, w := range watchers {
		w(next)
	}
	return true
}

// Subscribe returns a channel that receives the current value immediately and
// then the latest value after each change. Slow readers only miss intermediate
// values, never the most recent one. cancel closes the channel.
func (o *Value[T]) Subscribe() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(chan T, 1)
	ch <- o.v
	id := o.nextID
	o.nextID++
	o.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
			close(ch)
		})
	}
}

// OnChange calls fn synchronously, in order, for every change after registration.
// fn must not call Set or Update on the same Value.
func (o *Value[T]) OnChange(fn func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.watchers[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.watchers, id)
		o.mu.Unlock()
	}
}

// offer replaces any unread value in ch with v.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
