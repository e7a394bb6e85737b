// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"fmt"
	"time"
)

// State is the connection lifecycle phase of a Client.
type State int

const (
	// Disconnected means no connection exists and none is pending.
	Disconnected State = iota

	// Connecting means the initial dial is in flight.
	Connecting

	// Connected means the socket is established and frames flow.
	Connected

	// Reconnecting means an established connection dropped and a redial
	// is pending.
	Reconnecting
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status describes the connection at one transition.
type Status struct {
	// State is the phase entered.
	State State

	// Attempt is the 1-based count of consecutive failed reconnect
	// attempts. Set while Reconnecting.
	Attempt int

	// NextRetryAt is when the pending redial is due. Set while
	// Reconnecting.
	NextRetryAt time.Time

	// Err is the error behind the transition, when there is one: the
	// read failure that triggered a Reconnecting, the dial failure
	// behind a later attempt, or the terminal cause of a Disconnected
	// after the retry budget ran out.
	Err error
}
