// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"strconv"

	"github.com/FishPiOffical/fishpi-go/api"
)

// Kind identifies what a private chat frame carries.
type Kind int

const (
	// KindUnknown marks a frame the decoder does not recognize. The raw
	// text is preserved on the event.
	KindUnknown Kind = iota

	// KindMessage is a dialog message.
	KindMessage

	// KindNotice is a feed notification: a new message somewhere or an
	// unread-count change.
	KindNotice

	// KindRevoke withdraws an earlier dialog message.
	KindRevoke

	// KindHeartbeat is a liveness frame. The stream filters these out
	// before dispatch; listeners never observe them.
	KindHeartbeat
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindMessage:   "message",
	KindNotice:    "notice",
	KindRevoke:    "revoke",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Event is one decoded private chat frame. Kind selects which variant
// pointer is set; at most one is non-nil. Raw always preserves the
// original frame text.
type Event struct {
	Kind Kind

	Message *api.ChatMessage
	Notice  *Notice
	Revoke  *Revoke

	Raw string
}

// Notice commands seen on the account feed.
const (
	// CommandRefreshUnread asks the client to re-fetch its unread count.
	CommandRefreshUnread = "chatUnreadCountRefresh"

	// CommandNewMessage announces a new message in some dialog.
	CommandNewMessage = "newIdleChatMessage"
)

// Notice is one feed notification. Preview, SenderAvatar and SenderName
// are set for CommandNewMessage and empty for count refreshes.
type Notice struct {
	Command      string `json:"command"`
	UserID       string `json:"userId"`
	Preview      string `json:"preview"`
	SenderAvatar string `json:"senderAvatar"`
	SenderName   string `json:"senderUserName"`
}

// Revoke withdraws the dialog message with the given id.
type Revoke struct {
	OID string `json:"data"`
}
