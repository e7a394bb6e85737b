// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared channel assertion helpers for tests.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so individual tests never hang on a channel that
// misbehaves. [RequireNoReceive] asserts silence: it fails if a value
// arrives within the window, which is how dispatch and reconnect tests
// prove that something did not happen.
package testutil
