package observable

import "sync"

// Observer is notified after a value replacement has been published. It
// receives the value that was replaced and the value that replaced it.
type Observer[T any] func(old T, new T)

// Value is a thread-safe single-value holder with change notification.
//
// Reads always return a fully-constructed value. Observers run on the
// goroutine that called Set, outside the publisher's lock, so an
// observer can never deadlock the publisher; observers that do real
// work are expected to hand it off to their own executor (see
// crashctx.Store for the canonical consumer).
type Value[T any] struct {
	mu        sync.RWMutex
	current   T
	observers []Observer[T]
}

// New returns a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the current value and then notifies every observer with
// the (old, new) pair. The replacement is visible to Get before any
// observer runs.
func (v *Value[T]) Set(newValue T) {
	v.mu.Lock()
	old := v.current
	v.current = newValue
	observers := v.observers
	v.mu.Unlock()

	for _, obs := range observers {
		obs(old, newValue)
	}
}

// Subscribe registers an observer. Observers cannot be removed; the
// intended topology is fixed at owner-construction time.
func (v *Value[T]) Subscribe(obs Observer[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.observers = append(v.observers, obs)
}
