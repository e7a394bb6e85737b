// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package chatroom

import (
	"strconv"
	"strings"

	"github.com/FishPiOffical/fishpi-go/api"
	"github.com/FishPiOffical/fishpi-go/redpacket"
)

// Kind identifies what a chat room frame carries.
type Kind int

const (
	// KindUnknown marks a frame the decoder does not recognize. The raw
	// text is preserved on the event.
	KindUnknown Kind = iota

	// KindMessage is a regular room message.
	KindMessage

	// KindRedPacket is a message carrying a red packet.
	KindRedPacket

	// KindRedPacketStatus reports a claim against an open packet.
	KindRedPacketStatus

	// KindWeather is a message carrying a weather card.
	KindWeather

	// KindMusic is a message carrying a music card.
	KindMusic

	// KindBarrage is an overlay message that scrolls across the room.
	KindBarrage

	// KindRevoke withdraws an earlier message.
	KindRevoke

	// KindDiscussChanged announces a new room topic.
	KindDiscussChanged

	// KindOnline is a presence snapshot of the room.
	KindOnline

	// KindCustom is a free-form platform broadcast.
	KindCustom

	// KindHeartbeat is a liveness frame. The stream filters these out
	// before dispatch; listeners never observe them.
	KindHeartbeat
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindMessage:         "msg",
	KindRedPacket:       "redPacket",
	KindRedPacketStatus: "redPacketStatus",
	KindWeather:         "weather",
	KindMusic:           "music",
	KindBarrage:         "barrager",
	KindRevoke:          "revoke",
	KindDiscussChanged:  "discussChanged",
	KindOnline:          "online",
	KindCustom:          "customMessage",
	KindHeartbeat:       "heartbeat",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Event is one decoded chat room frame. Kind selects which variant
// pointer is set; at most one is non-nil. Raw always preserves the
// original frame text.
//
// Card-carrying messages (KindRedPacket, KindWeather, KindMusic) are
// delivered through Message with the matching card pointer populated.
type Event struct {
	Kind Kind

	Message         *Message
	RedPacketStatus *RedPacketStatus
	Barrage         *Barrage
	Revoke          *Revoke
	DiscussChanged  *DiscussChanged
	Online          *OnlineList
	Custom          *Custom

	Raw string
}

// RedPacket returns the packet carried by a KindRedPacket event, nil
// otherwise.
func (e Event) RedPacket() *redpacket.Message {
	if e.Message == nil {
		return nil
	}
	return e.Message.RedPacket
}

// Weather returns the weather card carried by a KindWeather event, nil
// otherwise.
func (e Event) Weather() *WeatherCard {
	if e.Message == nil {
		return nil
	}
	return e.Message.Weather
}

// Music returns the music card carried by a KindMusic event, nil
// otherwise.
func (e Event) Music() *MusicCard {
	if e.Message == nil {
		return nil
	}
	return e.Message.Music
}

// Message is one room message, from the live stream or from history.
// When the content carries a card, the matching pointer is set and the
// textual fields keep the wire form.
type Message struct {
	OID       string `json:"oId"`
	UserOID   int64  `json:"userOId"`
	UserName  string `json:"userName"`
	Nickname  string `json:"userNickname"`
	AvatarURL string `json:"userAvatarURL"`
	SysMetal  string `json:"sysMetal"`
	Content   string `json:"content"`
	Markdown  string `json:"md"`
	Time      string `json:"time"`
	Client    string `json:"client"`

	RedPacket *redpacket.Message `json:"-"`
	Weather   *WeatherCard       `json:"-"`
	Music     *MusicCard         `json:"-"`
}

// DisplayName returns the sender's nickname when set, the user name
// otherwise.
func (m *Message) DisplayName() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.UserName
}

// RedPacketStatus reports one claim against an open packet.
type RedPacketStatus struct {
	OID     string `json:"oId"`
	Count   int    `json:"count"`
	Got     int    `json:"got"`
	WhoGive string `json:"whoGive"`
	WhoGot  string `json:"whoGot"`
}

// Barrage is one overlay message.
type Barrage struct {
	UserName  string `json:"userName"`
	Nickname  string `json:"userNickname"`
	Content   string `json:"barragerContent"`
	Color     string `json:"barragerColor"`
	AvatarURL string `json:"userAvatarURL"`
}

// Revoke withdraws the message with the given id.
type Revoke struct {
	OID string `json:"oId"`
}

// DiscussChanged announces the room's new topic.
type DiscussChanged struct {
	Topic string `json:"newDiscuss"`
}

// OnlineList is a presence snapshot: who is in the room, how many, and
// what the room is discussing.
type OnlineList struct {
	Users      []api.OnlineUser `json:"users"`
	Count      int              `json:"onlineChatCnt"`
	Discussing string           `json:"discussing"`
}

// Custom is a free-form platform broadcast.
type Custom struct {
	Message string `json:"message"`
}

// WeatherCard is a five-day forecast. The per-day series arrive as
// comma-separated strings; Days zips them into records.
type WeatherCard struct {
	City        string `json:"t"`
	Description string `json:"st"`
	Dates       string `json:"date"`
	Codes       string `json:"weatherCode"`
	Min         string `json:"min"`
	Max         string `json:"max"`
}

// WeatherDay is one day of a WeatherCard.
type WeatherDay struct {
	Date string
	Code string
	Min  float64
	Max  float64
}

// Days splits the card's comma-separated series into per-day records.
// The result is as long as the shortest series; unparsable temperatures
// are zero.
func (w *WeatherCard) Days() []WeatherDay {
	dates := strings.Split(w.Dates, ",")
	codes := strings.Split(w.Codes, ",")
	mins := strings.Split(w.Min, ",")
	maxes := strings.Split(w.Max, ",")

	n := len(dates)
	for _, series := range [][]string{codes, mins, maxes} {
		if len(series) < n {
			n = len(series)
		}
	}

	days := make([]WeatherDay, 0, n)
	for i := 0; i < n; i++ {
		low, _ := strconv.ParseFloat(strings.TrimSpace(mins[i]), 64)
		high, _ := strconv.ParseFloat(strings.TrimSpace(maxes[i]), 64)
		days = append(days, WeatherDay{
			Date: strings.TrimSpace(dates[i]),
			Code: strings.TrimSpace(codes[i]),
			Min:  low,
			Max:  high,
		})
	}
	return days
}

// MusicCard is a shared track.
type MusicCard struct {
	Source   string `json:"source"`
	CoverURL string `json:"coverURL"`
	Title    string `json:"title"`
	From     string `json:"from"`
}
