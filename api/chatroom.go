// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/FishPiOffical/fishpi-go/lib/version"
	"github.com/FishPiOffical/fishpi-go/redpacket"
)

// QueryMode selects the direction of a message-context query relative to
// a reference message.
type QueryMode string

const (
	QueryContext QueryMode = "Context"
	QueryBefore  QueryMode = "Before"
	QueryAfter   QueryMode = "After"
)

// ContentMode selects the rendering of message content in history and
// context queries.
type ContentMode string

const (
	ContentHTML     ContentMode = "html"
	ContentMarkdown ContentMode = "md"
)

var (
	// The raw message view embeds per-revision HTML comments around the
	// markdown source.
	htmlCommentPattern = regexp.MustCompile(`<!--.*?-->`)

	// The barrage price appears only in the chat room page markup.
	barrageCostPattern = regexp.MustCompile(`>发送弹幕每次将花费\s*<b>([-0-9]+)</b>\s*([^<]*?)</div>`)
)

const (
	defaultBarrageCost = 20
	defaultBarrageUnit = "积分"
)

// ChatroomNode returns the chat room WebSocket node assignment for this
// session. The endpoint re-validates the key on every call; when the
// response carries a replacement key, the session adopts it before
// returning.
func (s *Session) ChatroomNode(ctx context.Context) (*NodeInfo, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat-room/node/get", nil, s.query(nil))
	if err != nil {
		return nil, fmt.Errorf("api: chatroom node lookup failed: %w", err)
	}

	var response nodeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("api: failed to parse node response: %w", err)
	}
	if response.Code != 0 {
		return nil, fmt.Errorf("api: chatroom node lookup failed: %w", &Error{
			Code:       response.Code,
			Message:    response.Msg,
			StatusCode: http.StatusOK,
		})
	}
	if response.Data == "" {
		return nil, fmt.Errorf("api: node response carried no websocket URL")
	}

	if response.APIKey != "" {
		s.adopt(response.APIKey)
	}

	info := &NodeInfo{
		Recommended: Node{URL: response.Data, Name: response.Msg},
		Available:   response.Available,
	}
	for _, node := range response.Available {
		if node.URL == info.Recommended.URL {
			info.Recommended.Online = node.Online
			info.Recommended.Weight = node.Weight
			break
		}
	}
	return info, nil
}

// ChatroomChannelURL resolves the chat room WebSocket URL for this
// session: the recommended node with the session key attached. The key is
// read after the node lookup so a rotated token is the one that dials.
func (s *Session) ChatroomChannelURL(ctx context.Context) (string, error) {
	node, err := s.ChatroomNode(ctx)
	if err != nil {
		return "", err
	}
	target, err := url.Parse(s.client.WebSocketURL(node.Recommended.URL))
	if err != nil {
		return "", fmt.Errorf("api: malformed chatroom node URL: %w", err)
	}
	query := target.Query()
	query.Set("apiKey", s.Key())
	target.RawQuery = query.Encode()
	return target.String(), nil
}

// ChatroomHistory returns one page of chat room history, newest page
// first. An empty mode defaults to HTML content.
func (s *Session) ChatroomHistory(ctx context.Context, page int, mode ContentMode) ([]ChatroomMessage, error) {
	if mode == "" {
		mode = ContentHTML
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("type", string(mode))

	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat-room/more", nil, s.query(query))
	if err != nil {
		return nil, fmt.Errorf("api: chatroom history failed: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("api: chatroom history failed: %w", err)
	}

	var messages []ChatroomMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("api: failed to parse history response: %w", err)
	}
	return messages, nil
}

// ChatroomMessages returns up to size messages around, before, or after
// the message with the given ID, per mode.
func (s *Session) ChatroomMessages(ctx context.Context, oid string, mode QueryMode, size int, content ContentMode) ([]ChatroomMessage, error) {
	if content == "" {
		content = ContentHTML
	}
	query := url.Values{}
	query.Set("oId", oid)
	query.Set("mode", string(mode))
	query.Set("size", strconv.Itoa(size))
	query.Set("type", string(content))

	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat-room/getMessage", nil, s.query(query))
	if err != nil {
		return nil, fmt.Errorf("api: chatroom messages failed: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("api: chatroom messages failed: %w", err)
	}

	var messages []ChatroomMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("api: failed to parse messages response: %w", err)
	}
	return messages, nil
}

// SendChatroom posts a message to the chat room. Content is markdown;
// the client tag identifies this library to other clients.
func (s *Session) SendChatroom(ctx context.Context, content string) error {
	if content == "" {
		return fmt.Errorf("api: message content is empty")
	}
	requestBody := s.body(map[string]any{
		"content": content,
		"client":  version.ClientTag(),
	})

	body, err := s.client.doRequest(ctx, http.MethodPost, "/chat-room/send", requestBody)
	if err != nil {
		return fmt.Errorf("api: chatroom send failed: %w", err)
	}
	if _, err := unwrap(body); err != nil {
		return fmt.Errorf("api: chatroom send failed: %w", err)
	}
	return nil
}

// RevokeChatroom withdraws a chat room message. Regular accounts can
// revoke only their own recent messages.
func (s *Session) RevokeChatroom(ctx context.Context, oid string) error {
	path := "/chat-room/revoke/" + url.PathEscape(oid)
	body, err := s.client.doRequest(ctx, http.MethodDelete, path, s.body(nil))
	if err != nil {
		return fmt.Errorf("api: chatroom revoke failed: %w", err)
	}
	if _, err := unwrap(body); err != nil {
		return fmt.Errorf("api: chatroom revoke failed: %w", err)
	}
	return nil
}

// OnlineUsers returns the chat room presence list.
func (s *Session) OnlineUsers(ctx context.Context) ([]OnlineUser, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat-room/online-users", nil, s.query(nil))
	if err != nil {
		return nil, fmt.Errorf("api: online users failed: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("api: online users failed: %w", err)
	}

	var users []OnlineUser
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("api: failed to parse online users response: %w", err)
	}
	return users, nil
}

// Discussing returns the chat room's current discussion topic.
func (s *Session) Discussing(ctx context.Context) (string, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat-room/discussing", nil, s.query(nil))
	if err != nil {
		return "", fmt.Errorf("api: discussing topic failed: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return "", fmt.Errorf("api: discussing topic failed: %w", err)
	}

	var topic string
	if err := json.Unmarshal(data, &topic); err != nil {
		return "", fmt.Errorf("api: failed to parse topic response: %w", err)
	}
	return topic, nil
}

// Mutes returns the chat room's currently muted members.
func (s *Session) Mutes(ctx context.Context) ([]Mute, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat-room/si-guo-list", nil, s.query(nil))
	if err != nil {
		return nil, fmt.Errorf("api: mute list failed: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("api: mute list failed: %w", err)
	}

	var mutes []Mute
	if err := json.Unmarshal(data, &mutes); err != nil {
		return nil, fmt.Errorf("api: failed to parse mute list response: %w", err)
	}
	return mutes, nil
}

// RawMessage returns a message's markdown source with the platform's
// revision comments stripped.
func (s *Session) RawMessage(ctx context.Context, oid string) (string, error) {
	path := "/cr/raw/" + url.PathEscape(oid)
	body, err := s.client.doRequest(ctx, http.MethodGet, path, nil, s.query(nil))
	if err != nil {
		return "", fmt.Errorf("api: raw message fetch failed: %w", err)
	}
	return htmlCommentPattern.ReplaceAllString(string(body), ""), nil
}

// BarrageCost returns the price of sending one barrage, scraped from the
// chat room page. The platform exposes it nowhere else; when the markup
// changes the documented default applies.
func (s *Session) BarrageCost(ctx context.Context) (*BarrageCost, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/cr", nil, s.query(nil))
	if err != nil {
		return nil, fmt.Errorf("api: barrage cost fetch failed: %w", err)
	}

	cost := &BarrageCost{Cost: defaultBarrageCost, Unit: defaultBarrageUnit}
	if match := barrageCostPattern.FindSubmatch(body); match != nil {
		if parsed, err := strconv.Atoi(string(match[1])); err == nil {
			cost.Cost = parsed
		}
		cost.Unit = string(match[2])
	}
	return cost, nil
}

// OpenRedPacket opens the red packet carried by the message with the
// given ID. gesture is required for rock-paper-scissors packets and
// ignored otherwise. Exhausted and repeated opens surface as
// ErrRedPacketExhausted and ErrRedPacketAlreadyOpened.
func (s *Session) OpenRedPacket(ctx context.Context, oid string, gesture *redpacket.Gesture) (*redpacket.Info, error) {
	fields := map[string]any{"oId": oid}
	if gesture != nil {
		fields["gesture"] = int(*gesture)
	}

	body, err := s.client.doRequest(ctx, http.MethodPost, "/chat-room/red-packet/open", s.body(fields))
	if err != nil {
		return nil, fmt.Errorf("api: red packet open failed: %w", err)
	}

	// The success response is the packet info itself, not an envelope,
	// but failures still arrive enveloped on HTTP 200.
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Code != 0 {
		return nil, fmt.Errorf("api: red packet open failed: %w", &Error{
			Code:       env.Code,
			Message:    env.Msg,
			StatusCode: http.StatusOK,
		})
	}

	var info redpacket.Info
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("api: failed to parse red packet response: %w", err)
	}
	return &info, nil
}
