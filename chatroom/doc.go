// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatroom provides a live session with the platform chat room.
//
// A Session combines the room's WebSocket event stream with its REST
// operations behind one handle: Connect attaches to the room and fans
// decoded events out to listeners, while Send, History, Topic and the
// other calls go through the authenticated API collaborator. The stream
// reconnects on its own and re-resolves the room node before every dial,
// so a session stays useful across node reassignments and token
// rotations.
//
// Frames are decoded by DecodeEvent into a closed set of event kinds:
// regular messages (refined into red-packet, weather and music cards when
// the content carries one), barrages, revocations, topic changes,
// presence snapshots, red-packet claim updates, custom broadcasts and
// heartbeats. Frames the decoder does not recognize are delivered as
// KindUnknown with the raw text preserved.
package chatroom
