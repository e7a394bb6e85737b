// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package redpacket

import (
	"encoding/json"
	"strings"
)

// Kind is the packet distribution type. The zero value is KindUnknown,
// the sentinel for wire values this client does not recognize.
type Kind int

const (
	KindUnknown Kind = iota
	KindRandom
	KindAverage
	KindSpecify
	KindHeartbeat
	KindRockPaperScissors
)

var kindNames = map[Kind]string{
	KindRandom:            "random",
	KindAverage:           "average",
	KindSpecify:           "specify",
	KindHeartbeat:         "heartbeat",
	KindRockPaperScissors: "rockPaperScissors",
}

// ParseKind maps a wire string to its Kind. Unrecognized strings map to
// KindUnknown.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// String returns the wire form of the kind, "unknown" for the sentinel.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the kind as its wire string.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a wire string into a Kind. Values that are not
// strings or not recognized become KindUnknown; decoding never fails.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*k = KindUnknown
		return nil
	}
	*k = ParseKind(s)
	return nil
}

// Gesture is a rock-paper-scissors gesture. Wire values are 0 (rock),
// 1 (scissors), and 2 (paper); anything else decodes to GestureUnknown.
type Gesture int

const (
	GestureUnknown  Gesture = -1
	GestureRock     Gesture = 0
	GestureScissors Gesture = 1
	GesturePaper    Gesture = 2
)

// ParseGesture maps a wire code to its Gesture.
func ParseGesture(code int) Gesture {
	switch Gesture(code) {
	case GestureRock, GestureScissors, GesturePaper:
		return Gesture(code)
	}
	return GestureUnknown
}

func (g Gesture) String() string {
	switch g {
	case GestureRock:
		return "rock"
	case GestureScissors:
		return "scissors"
	case GesturePaper:
		return "paper"
	}
	return "unknown"
}

// UnmarshalJSON decodes a wire integer into a Gesture; non-numeric or
// unrecognized values become GestureUnknown without failing.
func (g *Gesture) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		*g = GestureUnknown
		return nil
	}
	*g = ParseGesture(code)
	return nil
}

// ReceiverList is the recipient user-name list of a specify packet. The
// platform transmits it as a JSON-encoded string ("[\"alice\"]"); some
// responses carry a plain array. Both forms decode; encoding always
// produces the string form the send endpoint expects.
type ReceiverList []string

// MarshalJSON encodes the list as a JSON-encoded string.
func (r ReceiverList) MarshalJSON() ([]byte, error) {
	inner, err := json.Marshal([]string(r))
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}

// UnmarshalJSON accepts either the string-encoded or plain-array form.
// Unparseable values decode to an empty list.
func (r *ReceiverList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*r = names
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &names); err == nil {
			*r = names
			return nil
		}
	}
	*r = nil
	return nil
}

// Packet is the payload of a red-packet send.
type Packet struct {
	Type      Kind         `json:"type"`
	Count     int          `json:"count"`
	Money     int          `json:"money"`
	Msg       string       `json:"msg"`
	Receivers ReceiverList `json:"recivers,omitempty"`
	Gesture   *Gesture     `json:"gesture,omitempty"`
}

// NewRandom builds a luck-based packet split randomly across count
// claims.
func NewRandom(count, money int, msg string) Packet {
	return Packet{Type: KindRandom, Count: count, Money: money, Msg: msg}
}

// NewAverage builds a packet split evenly across count claims.
func NewAverage(count, money int, msg string) Packet {
	return Packet{Type: KindAverage, Count: count, Money: money, Msg: msg}
}

// NewSpecify builds a packet claimable only by the named receivers.
func NewSpecify(receivers []string, money int, msg string) Packet {
	return Packet{
		Type:      KindSpecify,
		Count:     len(receivers),
		Money:     money,
		Msg:       msg,
		Receivers: receivers,
	}
}

// NewHeartbeat builds a heartbeat packet: each claim wins or loses the
// whole stake at random.
func NewHeartbeat(count, money int, msg string) Packet {
	return Packet{Type: KindHeartbeat, Count: count, Money: money, Msg: msg}
}

// NewRockPaperScissors builds a single-claim packet decided by gesture.
func NewRockPaperScissors(money int, gesture Gesture, msg string) Packet {
	g := gesture
	return Packet{Type: KindRockPaperScissors, Count: 1, Money: money, Msg: msg, Gesture: &g}
}

// Message is the packet summary carried inside a received chat message:
// the send payload plus server-assigned claim state.
type Message struct {
	Packet

	OID      string   `json:"oId"`
	Got      int      `json:"got"`
	SenderID string   `json:"senderId"`
	UserName string   `json:"userName"`
	Who      []Opened `json:"who"`
}

// Opened records one claim of a packet.
type Opened struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Avatar   string `json:"avatar"`
	Money    int    `json:"userMoney"`
	Time     string `json:"time"`
}

// Summary is the packet description in an open response.
type Summary struct {
	Count     int      `json:"count"`
	Gesture   *Gesture `json:"gesture"`
	Got       int      `json:"got"`
	Msg       string   `json:"msg"`
	UserName  string   `json:"userName"`
	AvatarURL string   `json:"userAvatarURL"`
}

// Info is the response to opening a packet.
type Info struct {
	Info      Summary      `json:"info"`
	Receivers ReceiverList `json:"recivers"`
	Who       []Opened     `json:"who"`
}

const (
	envelopeOpen  = "[redpacket]"
	envelopeClose = "[/redpacket]"
)

// Envelope wraps the packet's JSON encoding in the textual markers the
// send endpoint and the chat stream both use.
func (p Packet) Envelope() string {
	data, err := json.Marshal(p)
	if err != nil {
		// Packet contains only marshalable fields; keep the envelope
		// well-formed even if that ever changes.
		data = []byte("{}")
	}
	return envelopeOpen + string(data) + envelopeClose
}

// ParseEnvelope extracts and decodes the first red-packet envelope in s.
// It tolerates surrounding text. The second result is false when s has
// no well-formed envelope.
func ParseEnvelope(s string) (Message, bool) {
	start := strings.Index(s, envelopeOpen)
	if start < 0 {
		return Message{}, false
	}
	rest := s[start+len(envelopeOpen):]
	end := strings.Index(rest, envelopeClose)
	if end < 0 {
		return Message{}, false
	}
	var msg Message
	if err := json.Unmarshal([]byte(rest[:end]), &msg); err != nil {
		return Message{}, false
	}
	return msg, true
}

// HasEnvelope reports whether s contains both envelope markers in
// order.
func HasEnvelope(s string) bool {
	start := strings.Index(s, envelopeOpen)
	return start >= 0 && strings.Contains(s[start:], envelopeClose)
}
