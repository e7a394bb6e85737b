// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"math"
	"math/rand"
	"time"
)

// Backoff shapes the delay between reconnect attempts. The delay doubles
// per consecutive failure, is stretched by a random jitter fraction, and
// then capped at Max. Jitter stays below the doubling factor, so the
// delay sequence never shrinks from one attempt to the next.
//
// A zero Backoff takes DefaultBackoff wholesale. In a partially set one,
// a zero Initial or Max takes its default and Jitter is used as given,
// so explicit policies can opt out of jitter entirely.
type Backoff struct {
	// Initial is the delay before the first retry.
	Initial time.Duration

	// Max caps the delay after jitter.
	Max time.Duration

	// Jitter is the upper bound of the random stretch applied to each
	// delay, in [0, 1): a delay d becomes d * (1 + r) with r drawn
	// uniformly from [0, Jitter).
	Jitter float64

	// MaxAttempts bounds consecutive failed reconnect attempts before
	// the client gives up. Zero means retry forever.
	MaxAttempts int
}

// DefaultBackoff is the reconnect policy used when a Config leaves
// Backoff unset.
var DefaultBackoff = Backoff{
	Initial: time.Second,
	Max:     30 * time.Second,
	Jitter:  0.1,
}

func (b Backoff) withDefaults() Backoff {
	if b == (Backoff{}) {
		return DefaultBackoff
	}
	if b.Initial <= 0 {
		b.Initial = DefaultBackoff.Initial
	}
	if b.Max <= 0 {
		b.Max = DefaultBackoff.Max
	}
	if b.Jitter < 0 || b.Jitter >= 1 {
		b.Jitter = 0
	}
	if b.MaxAttempts < 0 {
		b.MaxAttempts = 0
	}
	return b
}

// delay returns the wait before reconnect attempt n (1-based).
func (b Backoff) delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(b.Initial) * math.Pow(2, float64(attempt-1))
	if b.Jitter > 0 {
		d *= 1 + rand.Float64()*b.Jitter
	}
	if ceiling := float64(b.Max); d > ceiling {
		d = ceiling
	}
	return time.Duration(d)
}
