// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Fishpi is the command-line client for the FishPi community platform.
// It obtains API keys (login), streams the chat room live (listen),
// posts messages (send), and queries room state (history, online,
// topic, redpacket).
package main
