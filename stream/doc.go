// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream keeps a WebSocket event stream alive.
//
// A Client owns one logical stream: it dials, reads text frames, decodes
// each into the caller's event type, and fans events out to registered
// listeners. When an established connection drops, the client redials
// with capped exponential backoff, re-resolving the URL on every attempt
// so rotated credentials and re-assigned nodes are picked up. Listener
// registrations live on the client, not on the connection, and therefore
// survive reconnects and explicit disconnects.
//
// Delivery: each listener has its own goroutine and an unbounded FIFO
// queue. The read loop never blocks on a callback, one slow listener
// cannot starve another, and every listener observes events in frame
// order. A panicking callback is recovered, counted, logged, and
// reported on the Diagnostics channel; the listener stays registered.
//
// Connection state transitions (Connecting, Connected, Reconnecting,
// Disconnected) fan out to status listeners through the same mechanism,
// in the order the transitions happen.
package stream
