// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/FishPiOffical/fishpi-go/chatroom"
	"github.com/FishPiOffical/fishpi-go/redpacket"
)

func TestRenderEventForms(t *testing.T) {
	tests := []struct {
		name  string
		event chatroom.Event
		want  string
	}{
		{
			name: "message",
			event: chatroom.Event{Kind: chatroom.KindMessage, Message: &chatroom.Message{
				Time: "2026-08-21 10:30:00", UserName: "alice", Markdown: "大家好",
			}},
			want: "2026-08-21 10:30:00 alice: 大家好",
		},
		{
			name: "message falls back to content",
			event: chatroom.Event{Kind: chatroom.KindMessage, Message: &chatroom.Message{
				Time: "t", UserName: "alice", Content: "<p>hi</p>",
			}},
			want: "t alice: <p>hi</p>",
		},
		{
			name: "barrage prefers nickname",
			event: chatroom.Event{Kind: chatroom.KindBarrage, Barrage: &chatroom.Barrage{
				UserName: "alice", Nickname: "爱丽丝", Content: "冲鸭",
			}},
			want: "[barrage] 爱丽丝: 冲鸭",
		},
		{
			name:  "revoke",
			event: chatroom.Event{Kind: chatroom.KindRevoke, Revoke: &chatroom.Revoke{OID: "17"}},
			want:  "* message 17 was revoked",
		},
		{
			name:  "topic change",
			event: chatroom.Event{Kind: chatroom.KindDiscussChanged, DiscussChanged: &chatroom.DiscussChanged{Topic: "Go"}},
			want:  "* topic is now: Go",
		},
		{
			name:  "online",
			event: chatroom.Event{Kind: chatroom.KindOnline, Online: &chatroom.OnlineList{Count: 42}},
			want:  "* 42 online",
		},
		{
			name:  "custom",
			event: chatroom.Event{Kind: chatroom.KindCustom, Custom: &chatroom.Custom{Message: "alice 进入了聊天室"}},
			want:  "* alice 进入了聊天室",
		},
		{
			name: "red packet claim",
			event: chatroom.Event{Kind: chatroom.KindRedPacketStatus, RedPacketStatus: &chatroom.RedPacketStatus{
				OID: "1", Count: 5, Got: 3, WhoGive: "alice", WhoGot: "bob",
			}},
			want: "* bob opened alice's red packet (3/5 claimed)",
		},
		{
			name:  "unknown renders empty",
			event: chatroom.Event{Kind: chatroom.KindUnknown, Raw: "???"},
			want:  "",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := renderEvent(test.event); got != test.want {
				t.Errorf("renderEvent = %q, want %q", got, test.want)
			}
		})
	}
}

func TestRenderMessageCards(t *testing.T) {
	packet := &redpacket.Message{Packet: redpacket.Packet{
		Type: redpacket.KindRandom, Count: 5, Money: 128, Msg: "luck",
	}}
	message := &chatroom.Message{Time: "t", UserName: "alice", RedPacket: packet}
	want := `t alice sent a random red packet: "luck" (128 pts, 5 shares)`
	if got := renderMessage(message); got != want {
		t.Errorf("red packet = %q, want %q", got, want)
	}

	message = &chatroom.Message{Time: "t", UserName: "alice", Weather: &chatroom.WeatherCard{City: "上海", Description: "晴"}}
	if got := renderMessage(message); got != "t alice shared the weather in 上海: 晴" {
		t.Errorf("weather = %q", got)
	}

	message = &chatroom.Message{Time: "t", UserName: "alice", Music: &chatroom.MusicCard{Title: "海阔天空", From: "Beyond"}}
	if got := renderMessage(message); got != "t alice shared a track: 海阔天空 (Beyond)" {
		t.Errorf("music = %q", got)
	}
}

func TestParseGestureName(t *testing.T) {
	for name, want := range map[string]redpacket.Gesture{
		"rock":     redpacket.GestureRock,
		"scissors": redpacket.GestureScissors,
		"paper":    redpacket.GesturePaper,
	} {
		got, err := parseGestureName(name)
		if err != nil || got != want {
			t.Errorf("parseGestureName(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := parseGestureName("lizard"); err == nil {
		t.Error("unknown gesture accepted")
	}
}
