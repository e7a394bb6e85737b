// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP response I/O helpers shared by the REST
// and stream clients.
//
// All body reads are bounded at MaxBodySize so a misbehaving server
// cannot exhaust memory. The helpers target JSON API envelopes and the
// platform's small HTML pages, not streaming downloads.
package netutil

import "io"

// MaxBodySize bounds response body reads: 32 MB. Platform responses are
// kilobytes; the bound only matters when something is broken.
const MaxBodySize int64 = 32 << 20

// ReadBody reads a response body up to MaxBodySize bytes. Use instead
// of io.ReadAll on HTTP response bodies.
func ReadBody(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxBodySize))
}

// ErrorText reads an error response body for inclusion in a diagnostic
// message. Read failures are ignored since a truncated body still helps.
func ErrorText(body io.Reader) string {
	data, _ := ReadBody(body)
	return string(data)
}
