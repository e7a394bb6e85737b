// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ChatList returns the most recent message of every private dialog the
// account has.
func (s *Session) ChatList(ctx context.Context) ([]ChatMessage, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat/get-list", nil, s.query(nil))
	if err != nil {
		return nil, fmt.Errorf("api: chat list failed: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("api: chat list failed: %w", err)
	}

	var messages []ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("api: failed to parse chat list response: %w", err)
	}
	return messages, nil
}

// ChatMessages returns one page of the private dialog with peer, newest
// first.
func (s *Session) ChatMessages(ctx context.Context, peer string, page, pageSize int) ([]ChatMessage, error) {
	query := url.Values{}
	query.Set("toUser", peer)
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat/get-message", nil, s.query(query))
	if err != nil {
		return nil, fmt.Errorf("api: chat messages failed: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("api: chat messages failed: %w", err)
	}

	var messages []ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("api: failed to parse chat messages response: %w", err)
	}
	return messages, nil
}

// MarkChatRead marks every message from peer as read.
func (s *Session) MarkChatRead(ctx context.Context, peer string) error {
	query := url.Values{}
	query.Set("fromUser", peer)

	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat/mark-as-read", nil, s.query(query))
	if err != nil {
		return fmt.Errorf("api: chat mark-as-read failed: %w", err)
	}
	if _, err := unwrap(body); err != nil {
		return fmt.Errorf("api: chat mark-as-read failed: %w", err)
	}
	return nil
}

// ChatUnread returns the newest unread private message, or nil when
// everything is read.
func (s *Session) ChatUnread(ctx context.Context) (*ChatMessage, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat/has-unread", nil, s.query(nil))
	if err != nil {
		return nil, fmt.Errorf("api: chat unread failed: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("api: chat unread failed: %w", err)
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var message ChatMessage
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("api: failed to parse chat unread response: %w", err)
	}
	return &message, nil
}

// RevokeChat withdraws a private chat message.
func (s *Session) RevokeChat(ctx context.Context, oid string) error {
	query := url.Values{}
	query.Set("oId", oid)

	body, err := s.client.doRequest(ctx, http.MethodGet, "/chat/revoke", nil, s.query(query))
	if err != nil {
		return fmt.Errorf("api: chat revoke failed: %w", err)
	}
	if _, err := unwrap(body); err != nil {
		return fmt.Errorf("api: chat revoke failed: %w", err)
	}
	return nil
}

// ChatChannelURL returns the WebSocket URL of the private dialog with
// peer. The frames on this channel are the dialog's live messages.
func (s *Session) ChatChannelURL(peer string) string {
	query := url.Values{}
	query.Set("apiKey", s.Key())
	query.Set("toUser", peer)
	return s.client.WebSocketURL("chat-channel?" + query.Encode())
}

// UserChannelURL returns the WebSocket URL of the account's notification
// feed: new-message notices across all dialogs.
func (s *Session) UserChannelURL() string {
	query := url.Values{}
	query.Set("apiKey", s.Key())
	return s.client.WebSocketURL("user-channel?" + query.Encode())
}
