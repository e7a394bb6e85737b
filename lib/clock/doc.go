// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the wall clock behind a small interface so
// that timer-driven behavior (reconnect backoff, keepalive cadence) can
// be driven deterministically in tests.
//
// Production code injects [System]; tests inject [Fake] and move time
// forward explicitly with [FakeClock.Advance]. [FakeClock.WaitForTimers]
// removes the race between a goroutine arming a timer and the test
// advancing past its deadline.
package clock
