// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "encoding/json"

// loginRequest is the body of POST /api/getKey. UserPassword carries the
// MD5 hex digest, not the cleartext.
type loginRequest struct {
	NameOrEmail  string `json:"nameOrEmail"`
	UserPassword string `json:"userPassword"`
	MFACode      string `json:"mfaCode"`
}

// loginResponse is the getKey result. The key field is capitalized on
// the wire.
type loginResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Key  string `json:"Key"`
}

// UserInfo is a platform account profile as returned by /api/user.
type UserInfo struct {
	OID            string          `json:"oId"`
	UserNo         string          `json:"userNo"`
	UserName       string          `json:"userName"`
	Nickname       string          `json:"userNickname"`
	AvatarURL      string          `json:"userAvatarURL"`
	Role           string          `json:"userRole"`
	HomePage       string          `json:"userURL"`
	Online         bool            `json:"userOnlineFlag"`
	Point          int64           `json:"userPoint"`
	AppRole        string          `json:"userAppRole"`
	Intro          string          `json:"userIntro"`
	City           string          `json:"userCity"`
	OnlineMinutes  int64           `json:"onlineMinute"`
	CardBackground string          `json:"cardBg"`
	FollowingCount int             `json:"followingUserCount"`
	FollowerCount  int             `json:"followerCount"`
	SysMetal       json.RawMessage `json:"sysMetal"`
}

// DisplayName returns the nickname when the account has one, the user
// name otherwise.
func (u *UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.UserName
}

// Node is one chat room WebSocket node.
type Node struct {
	URL    string `json:"node"`
	Name   string `json:"name"`
	Online int    `json:"online"`
	Weight int    `json:"weight"`
}

// NodeInfo is the chat room node assignment: the node the platform
// recommends for this session plus the full node list.
type NodeInfo struct {
	Recommended Node
	Available   []Node
}

// nodeResponse is the raw /chat-room/node/get result. data carries the
// recommended node's WebSocket URL and msg its display name. apiKey is
// set when the platform rotates the session token. The misspelled
// avaliable field is the wire name.
type nodeResponse struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Data      string `json:"data"`
	APIKey    string `json:"apiKey"`
	Available []Node `json:"avaliable"`
}

// ChatroomMessage is one chat room message as returned by the history
// and context queries.
type ChatroomMessage struct {
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
}

// OnlineUser is one entry of the chat room presence list.
type OnlineUser struct {
	UserName  string `json:"userName"`
	AvatarURL string `json:"userAvatarURL"`
	HomePage  string `json:"homePage"`
}

// Mute is one entry of the chat room mute list. Time is the expiry in
// milliseconds since the epoch.
type Mute struct {
	Time      int64  `json:"time"`
	UserName  string `json:"userName"`
	Nickname  string `json:"userNickname"`
	AvatarURL string `json:"userAvatarURL"`
}

// BarrageCost is the price of sending one barrage, scraped from the chat
// room page.
type BarrageCost struct {
	Cost int
	Unit string
}

// ChatMessage is one private chat message as returned by the /chat
// endpoints.
type ChatMessage struct {
	OID            string `json:"oId"`
	FromID         string `json:"fromId"`
	ToID           string `json:"toId"`
	SenderName     string `json:"senderUserName"`
	ReceiverName   string `json:"receiverUserName"`
	Content        string `json:"content"`
	Markdown       string `json:"markdown"`
	Preview        string `json:"preview"`
	SenderAvatar   string `json:"senderAvatar"`
	ReceiverAvatar string `json:"receiverAvatar"`
	Time           string `json:"time"`
}
