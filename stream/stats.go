// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import "sync/atomic"

// Stats is a point-in-time snapshot of a client's counters.
type Stats struct {
	// Frames counts raw frames read from the transport.
	Frames uint64

	// Events counts decoded events handed to the event registry.
	Events uint64

	// Keepalives counts frames consumed as liveness signals instead of
	// being dispatched.
	Keepalives uint64

	// Reconnects counts connections re-established after a drop.
	Reconnects uint64

	// ListenerPanics counts panics recovered from listener callbacks.
	ListenerPanics uint64
}

// counters is the live, atomically updated form of Stats.
type counters struct {
	frames         atomic.Uint64
	events         atomic.Uint64
	keepalives     atomic.Uint64
	reconnects     atomic.Uint64
	listenerPanics atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Frames:         c.frames.Load(),
		Events:         c.events.Load(),
		Keepalives:     c.keepalives.Load(),
		Reconnects:     c.reconnects.Load(),
		ListenerPanics: c.listenerPanics.Load(),
	}
}
