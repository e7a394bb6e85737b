// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// Session is an authenticated FishPi session. It wraps a Client with an
// API key for making authenticated calls. Sessions are lightweight and
// safe for concurrent use.
//
// The key is mutable: the chat room node endpoint re-validates it and
// may issue a replacement, which the session adopts (see ChatroomNode).
// Callers that persist keys should read Key after connecting.
type Session struct {
	client *Client

	mu  sync.RWMutex
	key string
}

// Key returns the session's current API key.
func (s *Session) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// adopt replaces the session key with a rotated one.
func (s *Session) adopt(key string) {
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	s.client.logger.Debug("adopted rotated api key")
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool.
func (s *Session) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// Account returns the profile of the account that owns the session key.
func (s *Session) Account(ctx context.Context) (*UserInfo, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/api/user", nil, s.query(nil))
	if err != nil {
		return nil, fmt.Errorf("api: account lookup failed: %w", err)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("api: account lookup failed: %w", err)
	}

	var info UserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("api: failed to parse account response: %w", err)
	}
	return &info, nil
}

// query clones extra and adds the session token. GET endpoints carry the
// key as the apiKey query parameter.
func (s *Session) query(extra url.Values) url.Values {
	values := url.Values{}
	for key, list := range extra {
		values[key] = list
	}
	values.Set("apiKey", s.Key())
	return values
}

// body adds the session token to a request body. POST endpoints carry
// the key as an apiKey body field.
func (s *Session) body(fields map[string]any) map[string]any {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["apiKey"] = s.Key()
	return fields
}
