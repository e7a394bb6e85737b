// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"encoding/json"
	"strings"

	"github.com/FishPiOffical/fishpi-go/api"
)

// DecodeEvent maps one raw private chat frame to an Event. It is total:
// frames that decode cleanly yield their kind, everything else yields
// KindUnknown with the text preserved in Raw.
//
// Both channels speak the same dialect, discriminated in order: a
// command field marks a feed notice, a revoke type marks a withdrawal,
// and an object carrying oId and content is a dialog message. The first
// match wins.
func DecodeEvent(raw []byte) Event {
	text := strings.TrimSpace(string(raw))

	if text == "heartbeat" || text == "pong" {
		return Event{Kind: KindHeartbeat, Raw: text}
	}

	var probe struct {
		Command string          `json:"command"`
		Type    string          `json:"type"`
		OID     string          `json:"oId"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return Event{Kind: KindUnknown, Raw: text}
	}

	switch {
	case probe.Command != "":
		var notice Notice
		if err := json.Unmarshal([]byte(text), &notice); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: KindNotice, Notice: &notice, Raw: text}

	case probe.Type == "revoke":
		var revoke Revoke
		if err := json.Unmarshal([]byte(text), &revoke); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: KindRevoke, Revoke: &revoke, Raw: text}

	case probe.OID != "" && len(probe.Content) > 0:
		var message api.ChatMessage
		if err := json.Unmarshal([]byte(text), &message); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: KindMessage, Message: &message, Raw: text}

	default:
		return Event{Kind: KindUnknown, Raw: text}
	}
}
