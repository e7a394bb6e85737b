// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Handle identifies one registered listener. Handles are unique across
// the event and status registries of a client.
type Handle uint64

// ListenerError reports a panic recovered from a listener callback. The
// listener stays registered; the panic is counted, logged, and surfaced
// on the client's Diagnostics channel.
type ListenerError struct {
	// Handle identifies the listener whose callback panicked.
	Handle Handle

	// Recovered is the value the callback panicked with.
	Recovered any
}

// registry owns the listener set for one payload type. dispatch only
// appends to per-listener queues, so it never blocks no matter how slow
// a callback is.
type registry[T any] struct {
	handles *atomic.Uint64
	panics  func(Handle, any)

	mu        sync.Mutex
	listeners []*listener[T] // registration order
}

func newRegistry[T any](handles *atomic.Uint64, panics func(Handle, any)) *registry[T] {
	return &registry[T]{handles: handles, panics: panics}
}

// register adds fn and starts its pump goroutine.
func (r *registry[T]) register(fn func(T)) Handle {
	l := &listener[T]{
		handle: Handle(r.handles.Add(1)),
		fn:     fn,
		wake:   make(chan struct{}, 1),
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
	go l.pump(r.panics)
	return l.handle
}

// remove drops the listener and discards anything still queued for it.
// Removing an unknown handle reports false.
func (r *registry[T]) remove(handle Handle) bool {
	r.mu.Lock()
	for i, l := range r.listeners {
		if l.handle == handle {
			r.listeners = slices.Delete(r.listeners, i, i+1)
			r.mu.Unlock()
			l.stop()
			return true
		}
	}
	r.mu.Unlock()
	return false
}

// dispatch enqueues v for every listener registered at this instant.
func (r *registry[T]) dispatch(v T) {
	r.mu.Lock()
	snapshot := slices.Clone(r.listeners)
	r.mu.Unlock()
	for _, l := range snapshot {
		l.enqueue(v)
	}
}

// clear stops every listener, ending the pump goroutines.
func (r *registry[T]) clear() {
	r.mu.Lock()
	listeners := r.listeners
	r.listeners = nil
	r.mu.Unlock()
	for _, l := range listeners {
		l.stop()
	}
}

// listener couples one callback with an unbounded FIFO queue and the
// pump goroutine draining it. The queue keeps a slow callback from
// stalling the read loop or starving sibling listeners, at the cost of
// memory when the callback cannot keep up.
type listener[T any] struct {
	handle Handle
	fn     func(T)
	wake   chan struct{} // capacity 1, nudges the pump

	mu      sync.Mutex
	queue   []T
	stopped bool
}

func (l *listener[T]) enqueue(v T) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, v)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *listener[T]) stop() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// pump delivers queued values in arrival order until the listener is
// stopped. A callback panic is reported and the pump keeps going.
func (l *listener[T]) pump(panics func(Handle, any)) {
	for {
		l.mu.Lock()
		if l.stopped {
			l.mu.Unlock()
			return
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			<-l.wake
			continue
		}
		v := l.queue[0]
		l.queue = l.queue[1:]
		if len(l.queue) == 0 {
			l.queue = nil // release the drained backing array
		}
		l.mu.Unlock()
		l.call(v, panics)
	}
}

func (l *listener[T]) call(v T, panics func(Handle, any)) {
	defer func() {
		if recovered := recover(); recovered != nil && panics != nil {
			panics(l.handle, recovered)
		}
	}()
	l.fn(v)
}
