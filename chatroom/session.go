// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package chatroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/FishPiOffical/fishpi-go/api"
	"github.com/FishPiOffical/fishpi-go/lib/clock"
	"github.com/FishPiOffical/fishpi-go/redpacket"
	"github.com/FishPiOffical/fishpi-go/stream"
)

// SessionConfig assembles a chat room session. Session is required;
// everything else has a usable zero value.
type SessionConfig struct {
	// Session is the authenticated API collaborator. It resolves the
	// room node before every dial and carries the REST operations.
	Session *api.Session

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

// Session is a live chat room attachment: a reconnecting event stream
// plus the room's REST operations.
type Session struct {
	api    *api.Session
	stream *stream.Client[Event]
	logger *slog.Logger
}

// NewSession returns a detached session. Connect attaches it to the
// room.
func NewSession(config SessionConfig) (*Session, error) {
	if config.Session == nil {
		return nil, errors.New("chatroom: config.Session is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	session := &Session{api: config.Session, logger: logger}
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

func (s *Session) dialURL(ctx context.Context) (string, error) {
	return s.api.ChatroomChannelURL(ctx)
}

func (s *Session) decode(raw []byte) Event {
	event := DecodeEvent(raw)
	if event.Kind == KindUnknown {
		s.logger.Debug("unrecognized chatroom frame", "frame", event.Raw)
	}
	return event
}

// Connect attaches the session to the room. It returns once the first
// connection is established; reconnects after that are automatic.
func (s *Session) Connect(ctx context.Context) error {
	return s.stream.Connect(ctx)
}

// Disconnect detaches from the room. Listener registrations survive for
// a later Connect.
func (s *Session) Disconnect() {
	s.stream.Disconnect()
}

// Close detaches from the room and drops all listener registrations.
func (s *Session) Close() {
	s.stream.Close()
}

// AddListener registers fn for every decoded room event. Each listener
// runs on its own goroutine and receives events in arrival order.
func (s *Session) AddListener(fn func(Event)) stream.Handle {
	return s.stream.AddListener(fn)
}

// RemoveListener drops a listener registration. Undelivered events
// queued for it are discarded.
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

// Send posts content to the room. It requires an established connection
// and fails with stream.ErrNotConnected otherwise; the echo of the
// message arrives on the stream like any other room event.
func (s *Session) Send(ctx context.Context, content string) error {
	if s.stream.Status().State != stream.Connected {
		return stream.ErrNotConnected
	}
	return s.api.SendChatroom(ctx, content)
}

// barragePayload is the JSON inside a [barrager] envelope.
type barragePayload struct {
	Color   string `json:"color"`
	Content string `json:"content"`
}

// SendBarrage posts an overlay message in the given CSS color. Sending
// costs points; see BarrageCost.
func (s *Session) SendBarrage(ctx context.Context, content, color string) error {
	payload, err := json.Marshal(barragePayload{Color: color, Content: content})
	if err != nil {
		return fmt.Errorf("chatroom: encoding barrage: %w", err)
	}
	return s.api.SendChatroom(ctx, "[barrager]"+string(payload)+"[/barrager]")
}

// SetTopic proposes a new room topic. The room announces the change
// with a KindDiscussChanged event.
func (s *Session) SetTopic(ctx context.Context, topic string) error {
	return s.api.SendChatroom(ctx, "[setdiscuss]"+topic+"[/setdiscuss]")
}

// SendRedPacket posts a red packet to the room.
func (s *Session) SendRedPacket(ctx context.Context, packet redpacket.Packet) error {
	return s.api.SendChatroom(ctx, packet.Envelope())
}

// OpenRedPacket claims from the packet carried by the message with the
// given id. gesture is required for rock-paper-scissors packets and
// ignored otherwise.
func (s *Session) OpenRedPacket(ctx context.Context, oid string, gesture *redpacket.Gesture) (*redpacket.Info, error) {
	return s.api.OpenRedPacket(ctx, oid, gesture)
}

// Revoke withdraws a message. Regular accounts may revoke their own
// recent messages.
func (s *Session) Revoke(ctx context.Context, oid string) error {
	return s.api.RevokeChatroom(ctx, oid)
}

// History returns one page of room history, newest page first, with the
// same card refinement live events get.
func (s *Session) History(ctx context.Context, page int) ([]Message, error) {
	wire, err := s.api.ChatroomHistory(ctx, page, api.ContentHTML)
	if err != nil {
		return nil, err
	}
	return fromWireAll(wire), nil
}

// MessagesAround returns up to size messages around the reference
// message, in the direction mode selects.
func (s *Session) MessagesAround(ctx context.Context, oid string, mode api.QueryMode, size int) ([]Message, error) {
	wire, err := s.api.ChatroomMessages(ctx, oid, mode, size, api.ContentHTML)
	if err != nil {
		return nil, err
	}
	return fromWireAll(wire), nil
}

// RawMessage returns a message's markdown source.
func (s *Session) RawMessage(ctx context.Context, oid string) (string, error) {
	return s.api.RawMessage(ctx, oid)
}

// OnlineUsers returns the room's current presence list.
func (s *Session) OnlineUsers(ctx context.Context) ([]api.OnlineUser, error) {
	return s.api.OnlineUsers(ctx)
}

// Topic returns the room's current topic.
func (s *Session) Topic(ctx context.Context) (string, error) {
	return s.api.Discussing(ctx)
}

// Mutes returns the room's active mute list.
func (s *Session) Mutes(ctx context.Context) ([]api.Mute, error) {
	return s.api.Mutes(ctx)
}

// BarrageCost returns the current price of one barrage.
func (s *Session) BarrageCost(ctx context.Context) (*api.BarrageCost, error) {
	return s.api.BarrageCost(ctx)
}
