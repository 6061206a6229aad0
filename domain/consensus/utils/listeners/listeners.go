// Package listeners dispatches typed events to registered listeners.
package listeners

import "sync"

// ID identifies a registered listener
type ID uint64

type registration[T any] struct {
	id       ID
	listener func(T)
}

// Manager keeps the listeners of a set of events whose payload is T
type Manager[E comparable, T any] struct {
	mtx       sync.RWMutex
	nextID    ID
	listeners map[E][]registration[T]
}

// New returns an empty Manager
func New[E comparable, T any]() *Manager[E, T] {
	return &Manager[E, T]{
		listeners: make(map[E][]registration[T]),
	}
}

// AddListener registers listener for event
func (m *Manager[E, T]) AddListener(event E, listener func(T)) ID {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.nextID++
	m.listeners[event] = append(m.listeners[event], registration[T]{id: m.nextID, listener: listener})
	return m.nextID
}

// RemoveListener unregisters the listener with the given id. It returns
// false when no such listener exists.
func (m *Manager[E, T]) RemoveListener(id ID) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for event, registrations := range m.listeners {
		for i, r := range registrations {
			if r.id != id {
				continue
			}
			remaining := make([]registration[T], 0, len(registrations)-1)
			remaining = append(remaining, registrations[:i]...)
			m.listeners[event] = append(remaining, registrations[i+1:]...)
			return true
		}
	}
	return false
}

// Notify calls the listeners of event in registration order. Listeners run
// on the notifying goroutine.
func (m *Manager[E, T]) Notify(event E, value T) {
	m.mtx.RLock()
	registrations := m.listeners[event]
	m.mtx.RUnlock()

	for _, r := range registrations {
		r.listener(value)
	}
}
