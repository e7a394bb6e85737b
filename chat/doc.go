// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat provides live private chat sessions.
//
// A Session attaches to one of two channels. With a peer set it joins
// the dialog channel with that user: inbound frames are the dialog's
// messages and revocations, and Send writes markdown straight onto the
// socket to deliver. With no peer it joins the account's notice feed,
// which announces new messages and unread-count changes across all
// dialogs; a typical client watches the feed and opens dialog sessions
// on demand.
//
// The REST side of private chat (dialog list, paged history, unread
// fetch, mark-read, revoke) is exposed on the same Session.
package chat
