// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"
)

// RequireReceive reads one value from ch within timeout or fails the
// test.
//
//	ev := testutil.RequireReceive(t, events, time.Second, "first event")
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, msg string) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed without a value", msg)
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("%s: no value within %v", msg, timeout)
	}
	panic("unreachable")
}

// RequireNoReceive asserts that ch stays silent for the whole window.
func RequireNoReceive[T any](t testing.TB, ch <-chan T, window time.Duration, msg string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("%s: unexpected value %v", msg, v)
	case <-time.After(window):
	}
}

// RequireClosed waits for ch to close (or yield a value) within timeout
// or fails the test. Use it for done channels that signal by closing.
func RequireClosed(t testing.TB, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("%s: not closed within %v", msg, timeout)
	}
}
