// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/FishPiOffical/fishpi-go/api"
	"github.com/FishPiOffical/fishpi-go/lib/clock"
	"github.com/FishPiOffical/fishpi-go/stream"
)

// SessionConfig assembles a private chat session. Session is required;
// everything else has a usable zero value.
type SessionConfig struct {
	// Session is the authenticated API collaborator.
	Session *api.Session

	// Peer selects the dialog channel with that user. Empty selects the
	// account's notice feed.
	Peer string

	// Backoff is the reconnect delay policy. A zero value takes
	// stream.DefaultBackoff.
	Backoff stream.Backoff

	// Dialer performs WebSocket handshakes. Nil means
	// websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Clock drives backoff waits and ping cadence. Nil means the system
	// clock.
	Clock clock.Clock

	// Logger receives connection lifecycle and listener failure logs.
	// Nil means slog.Default().
	Logger *slog.Logger
}

// Session is a live attachment to one private chat channel plus the
// REST operations of private chat.
type Session struct {
	api    *api.Session
	peer   string
	stream *stream.Client[Event]
	logger *slog.Logger
}

// NewSession returns a detached session. Connect attaches it to its
// channel.
func NewSession(config SessionConfig) (*Session, error) {
	if config.Session == nil {
		return nil, errors.New("chat: config.Session is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	session := &Session{api: config.Session, peer: config.Peer, logger: logger}
	client, err := stream.NewClient(stream.Config[Event]{
		Dial:      session.dialURL,
		Decode:    session.decode,
		Keepalive: func(event Event) bool { return event.Kind == KindHeartbeat },
		Backoff:   config.Backoff,
		Dialer:    config.Dialer,
		Clock:     config.Clock,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	session.stream = client
	return session, nil
}

// Peer returns the dialog peer, empty for the notice feed.
func (s *Session) Peer() string {
	return s.peer
}

func (s *Session) dialURL(ctx context.Context) (string, error) {
	if s.peer == "" {
		return s.api.UserChannelURL(), nil
	}
	return s.api.ChatChannelURL(s.peer), nil
}

func (s *Session) decode(raw []byte) Event {
	event := DecodeEvent(raw)
	if event.Kind == KindUnknown {
		s.logger.Debug("unrecognized chat frame", "peer", s.peer, "frame", event.Raw)
	}
	return event
}

// Connect attaches the session to its channel. It returns once the
// first connection is established; reconnects after that are automatic.
func (s *Session) Connect(ctx context.Context) error {
	return s.stream.Connect(ctx)
}

// Disconnect detaches from the channel. Listener registrations survive
// for a later Connect.
func (s *Session) Disconnect() {
	s.stream.Disconnect()
}

// Close detaches from the channel and drops all listener registrations.
func (s *Session) Close() {
	s.stream.Close()
}

// AddListener registers fn for every decoded frame on this channel.
func (s *Session) AddListener(fn func(Event)) stream.Handle {
	return s.stream.AddListener(fn)
}

// RemoveListener drops a listener registration.
func (s *Session) RemoveListener(handle stream.Handle) bool {
	return s.stream.RemoveListener(handle)
}

// AddStatusListener registers fn for connection state transitions.
func (s *Session) AddStatusListener(fn func(stream.Status)) stream.Handle {
	return s.stream.AddStatusListener(fn)
}

// RemoveStatusListener drops a status listener registration.
func (s *Session) RemoveStatusListener(handle stream.Handle) bool {
	return s.stream.RemoveStatusListener(handle)
}

// Status returns the current connection status.
func (s *Session) Status() stream.Status {
	return s.stream.Status()
}

// Stats returns a snapshot of the stream counters.
func (s *Session) Stats() stream.Stats {
	return s.stream.Stats()
}

// Diagnostics returns the channel of recovered listener panics.
func (s *Session) Diagnostics() <-chan stream.ListenerError {
	return s.stream.Diagnostics()
}

// Send delivers markdown to the dialog by writing it onto the channel
// socket. It requires an established connection and a dialog peer; the
// notice feed is read-only.
func (s *Session) Send(ctx context.Context, content string) error {
	if s.peer == "" {
		return errors.New("chat: the notice feed cannot send")
	}
	return s.stream.Send(ctx, content)
}

// List returns the latest message of every dialog the account has.
func (s *Session) List(ctx context.Context) ([]api.ChatMessage, error) {
	return s.api.ChatList(ctx)
}

// Messages returns one page of the dialog history with peer, newest
// first.
func (s *Session) Messages(ctx context.Context, peer string, page, pageSize int) ([]api.ChatMessage, error) {
	return s.api.ChatMessages(ctx, peer, page, pageSize)
}

// MarkRead marks the dialog with peer as read.
func (s *Session) MarkRead(ctx context.Context, peer string) error {
	return s.api.MarkChatRead(ctx, peer)
}

// Unread returns the latest unread message, or nil when everything is
// read.
func (s *Session) Unread(ctx context.Context) (*api.ChatMessage, error) {
	return s.api.ChatUnread(ctx)
}

// Revoke withdraws a dialog message.
func (s *Session) Revoke(ctx context.Context, oid string) error {
	return s.api.RevokeChat(ctx, oid)
}
