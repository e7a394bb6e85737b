// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package chatroom

import (
	"encoding/json"
	"strings"

	"github.com/FishPiOffical/fishpi-go/api"
	"github.com/FishPiOffical/fishpi-go/redpacket"
)

// DecodeEvent maps one raw chat room frame to an Event. It is total:
// frames that decode cleanly yield their kind, everything else yields
// KindUnknown with the text preserved in Raw.
//
// The room speaks three dialects. Bare "heartbeat" and "pong" text
// predates the JSON protocol and still occurs; bare red-packet envelopes
// occur on some sends; everything else is a JSON object discriminated by
// its type field. Regular messages are refined further because the
// platform ships cards (red packets, weather, music) inside the content
// of an ordinary msg frame.
func DecodeEvent(raw []byte) Event {
	text := strings.TrimSpace(string(raw))

	if text == "heartbeat" || text == "pong" {
		return Event{Kind: KindHeartbeat, Raw: text}
	}

	if !json.Valid([]byte(text)) {
		if packet, ok := redpacket.ParseEnvelope(text); ok {
			message := &Message{Content: text, RedPacket: &packet}
			return Event{Kind: KindRedPacket, Message: message, Raw: text}
		}
		return Event{Kind: KindUnknown, Raw: text}
	}

	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(text), &header); err != nil {
		return Event{Kind: KindUnknown, Raw: text}
	}

	switch header.Type {
	case "msg":
		var message Message
		if err := json.Unmarshal([]byte(text), &message); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: refine(&message), Message: &message, Raw: text}

	case "online":
		var online OnlineList
		if err := json.Unmarshal([]byte(text), &online); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: KindOnline, Online: &online, Raw: text}

	case "discussChanged":
		var discuss DiscussChanged
		if err := json.Unmarshal([]byte(text), &discuss); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: KindDiscussChanged, DiscussChanged: &discuss, Raw: text}

	case "revoke":
		var revoke Revoke
		if err := json.Unmarshal([]byte(text), &revoke); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: KindRevoke, Revoke: &revoke, Raw: text}

	case "barrager":
		var barrage Barrage
		if err := json.Unmarshal([]byte(text), &barrage); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: KindBarrage, Barrage: &barrage, Raw: text}

	case "redPacketStatus":
		var status RedPacketStatus
		if err := json.Unmarshal([]byte(text), &status); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: KindRedPacketStatus, RedPacketStatus: &status, Raw: text}

	case "customMessage":
		var custom Custom
		if err := json.Unmarshal([]byte(text), &custom); err != nil {
			return Event{Kind: KindUnknown, Raw: text}
		}
		return Event{Kind: KindCustom, Custom: &custom, Raw: text}

	case "heartbeat", "pong":
		return Event{Kind: KindHeartbeat, Raw: text}

	default:
		return Event{Kind: KindUnknown, Raw: text}
	}
}

// refine inspects a decoded message for an embedded card, attaches it,
// and returns the kind the message maps to.
//
// The checks run in order: a weather document in the markdown source, a
// JSON card in the content, then a red-packet envelope in the rendered
// content. History responses carry the same content forms as live
// frames, so fromWire applies the same refinement.
func refine(message *Message) Kind {
	if strings.Contains(message.Markdown, `"msgType":"weather"`) {
		var card WeatherCard
		if err := json.Unmarshal([]byte(message.Markdown), &card); err == nil {
			message.Weather = &card
			return KindWeather
		}
	}

	var probe struct {
		MsgType string `json:"msgType"`
	}
	if err := json.Unmarshal([]byte(message.Content), &probe); err == nil {
		switch probe.MsgType {
		case "redPacket":
			var packet redpacket.Message
			if err := json.Unmarshal([]byte(message.Content), &packet); err == nil {
				message.RedPacket = &packet
				return KindRedPacket
			}
		case "weather":
			var card WeatherCard
			if err := json.Unmarshal([]byte(message.Content), &card); err == nil {
				message.Weather = &card
				return KindWeather
			}
		case "music":
			var card MusicCard
			if err := json.Unmarshal([]byte(message.Content), &card); err == nil {
				message.Music = &card
				return KindMusic
			}
		}
	}

	if packet, ok := redpacket.ParseEnvelope(message.Content); ok {
		message.RedPacket = &packet
		return KindRedPacket
	}

	return KindMessage
}

// fromWire converts a REST history message into the event model,
// applying the same card refinement the live decoder uses.
func fromWire(wire api.ChatroomMessage) Message {
	message := Message{
		OID:       wire.OID,
		UserOID:   wire.UserOID,
		UserName:  wire.UserName,
		Nickname:  wire.Nickname,
		AvatarURL: wire.AvatarURL,
		SysMetal:  wire.SysMetal,
		Content:   wire.Content,
		Markdown:  wire.Markdown,
		Time:      wire.Time,
		Client:    wire.Client,
	}
	refine(&message)
	return message
}

// fromWireAll converts a page of history messages.
func fromWireAll(wire []api.ChatroomMessage) []Message {
	messages := make([]Message, len(wire))
	for i, m := range wire {
		messages[i] = fromWire(m)
	}
	return messages
}
