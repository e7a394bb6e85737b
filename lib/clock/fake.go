// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial. Time moves only when
// Advance is called; pending After channels and tickers fire when the
// clock passes their deadline.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.armed = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	armed  *sync.Cond
}

// fakeTimer is one pending After channel or ticker tick.
type fakeTimer struct {
	when    time.Time
	ch      chan time.Time
	period  time.Duration // non-zero for tickers; rearmed after firing
	stopped bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that fires once the clock is advanced past d.
// A non-positive d delivers immediately without arming a timer.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.timers = append(c.timers, &fakeTimer{when: c.now.Add(d), ch: ch})
	c.armed.Broadcast()
	return ch
}

// NewTicker returns a Ticker that fires each time the clock is advanced
// across a period boundary. Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker period")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	timer := &fakeTimer{when: c.now.Add(d), ch: ch, period: d}
	c.timers = append(c.timers, timer)
	c.armed.Broadcast()

	return &Ticker{
		C: ch,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			timer.stopped = true
		},
	}
}

// Advance moves the clock forward by d and fires every timer whose
// deadline falls within the new time, in deadline order. Sends are
// non-blocking: a full channel drops the tick, matching time.Ticker.
// Tickers spanning several periods fire once per period.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(i, j int) bool { return due[i].when.Before(due[j].when) })
		for _, timer := range due {
			select {
			case timer.ch <- target:
			default:
			}
		}
	}
}

// takeDue removes timers due at or before target from the pending set,
// rearming tickers for their next period, and returns them.
func (c *FakeClock) takeDue(target time.Time) []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, pending []*fakeTimer
	for _, timer := range c.timers {
		switch {
		case timer.stopped:
		case timer.when.After(target):
			pending = append(pending, timer)
		default:
			due = append(due, timer)
		}
	}
	for _, timer := range due {
		if timer.period > 0 {
			timer.when = timer.when.Add(timer.period)
			pending = append(pending, timer)
		}
	}
	c.timers = pending
	return due
}

// WaitForTimers blocks until at least n timers are armed and unfired.
// Tests call it before Advance so that the goroutine under test has
// reached its wait point:
//
//	go client.run()
//	fake.WaitForTimers(1)
//	fake.Advance(time.Second)
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pending() < n {
		c.armed.Wait()
	}
}

// PendingCount returns the number of armed, unfired timers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending()
}

func (c *FakeClock) pending() int {
	n := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			n++
		}
	}
	return n
}
