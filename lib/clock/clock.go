// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the subset of the time package the stream client depends on.
// Functions that wait on timers accept a Clock (or sit on a struct that
// carries one) instead of calling the time package directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks every d. Panics if
	// d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C. Its channel has capacity 1: when
// the consumer lags, ticks are dropped, not queued. Stop releases the
// ticker; it does not close C.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. No tick is delivered after Stop returns.
func (t *Ticker) Stop() { t.stop() }

// System returns a Clock backed by the time package.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (systemClock) NewTicker(d time.Duration) *Ticker {
	ticker := time.NewTicker(d)
	return &Ticker{C: ticker.C, stop: ticker.Stop}
}
