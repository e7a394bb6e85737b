// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Package redpacket defines the red-packet value types exchanged with
// the platform: the send payload, the received packet summary, the open
// response, and the closed Kind and Gesture enumerations.
//
// On the wire a packet rides inside a chat message as a textual
// envelope, [redpacket]{...json...}[/redpacket]. [Packet.Envelope]
// produces that form and [ParseEnvelope] recovers it. Unrecognized
// enum values decode to the Unknown sentinels rather than failing;
// missing fields take their zero values.
package redpacket
