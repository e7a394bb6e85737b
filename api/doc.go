// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Package api wraps the FishPi platform's HTTP API.
//
// [Client] is an unauthenticated client holding the base URL and HTTP
// transport, shared across Sessions. [Client.Login] exchanges credentials
// for an API key and returns an authenticated [Session];
// [Client.SessionFromKey] wraps a key obtained elsewhere; the package
// never persists credentials.
//
// [Session] carries the API key on every call: as the apiKey query
// parameter on GETs and as a body field on POSTs, per platform
// convention. Sessions are lightweight and safe for concurrent use. The
// chat room node endpoint re-validates the key on each call and may
// rotate it; the session adopts a rotated key transparently, and
// [Session.Key] reports the current one.
//
// Platform failures surface as [*Error] carrying the envelope code, the
// server message, and the HTTP status. [IsError] matches platform codes;
// the sentinel conditions ([ErrNotAuthenticated], [ErrRedPacketExhausted],
// [ErrRedPacketAlreadyOpened]) match via errors.Is. The mapping from the
// platform's localized failure text to conditions lives in this package
// and nowhere else.
//
// WebSocket endpoints are resolved but never dialed here:
// [Client.WebSocketURL], [Session.ChatChannelURL], and
// [Session.UserChannelURL] produce URLs for the stream layer to dial.
package api
