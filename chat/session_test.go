// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/FishPiOffical/fishpi-go/api"
	"github.com/FishPiOffical/fishpi-go/lib/testutil"
	"github.com/FishPiOffical/fishpi-go/stream"
)

const receiveWait = 5 * time.Second

// chatFixture serves the two private chat WebSocket endpoints and
// records the query values of every dial.
type chatFixture struct {
	server *httptest.Server
	conns  chan *websocket.Conn
	dials  chan url.Values
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	fixture := &chatFixture{
		conns: make(chan *websocket.Conn, 4),
		dials: make(chan url.Values, 4),
	}

	upgrader := websocket.Upgrader{}
	channel := func(writer http.ResponseWriter, request *http.Request) {
		fixture.dials <- request.URL.Query()
		conn, err := upgrader.Upgrade(writer, request, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		fixture.conns <- conn
	}

	router := chi.NewRouter()
	router.Get("/chat-channel", channel)
	router.Get("/user-channel", channel)

	fixture.server = httptest.NewServer(router)
	t.Cleanup(fixture.server.Close)
	return fixture
}

func (f *chatFixture) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	conn := testutil.RequireReceive(t, f.conns, receiveWait, "chat connection")
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newChatSession(t *testing.T, fixture *chatFixture, peer string) *Session {
	t.Helper()
	client, err := api.NewClient(api.ClientConfig{BaseURL: fixture.server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	apiSession, err := client.SessionFromKey("test-key")
	if err != nil {
		t.Fatalf("SessionFromKey failed: %v", err)
	}
	session, err := NewSession(SessionConfig{
		Session: apiSession,
		Peer:    peer,
		Backoff: stream.Backoff{Initial: 10 * time.Millisecond, Max: 40 * time.Millisecond},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(session.Close)
	return session
}

func TestNewSessionRequiresAPISession(t *testing.T) {
	if _, err := NewSession(SessionConfig{Peer: "alice"}); err == nil {
		t.Fatal("NewSession accepted a config without an API session")
	}
}

func TestSessionDialogChannel(t *testing.T) {
	fixture := newChatFixture(t)
	session := newChatSession(t, fixture, "alice")

	events := make(chan Event, 16)
	session.AddListener(func(event Event) { events <- event })

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := fixture.accept(t)

	dial := testutil.RequireReceive(t, fixture.dials, receiveWait, "dial query")
	if got := dial.Get("toUser"); got != "alice" {
		t.Errorf("toUser = %q, want alice", got)
	}
	if got := dial.Get("apiKey"); got != "test-key" {
		t.Errorf("apiKey = %q, want test-key", got)
	}

	frame := `{"oId":"1","fromId":"100","toId":"200","senderUserName":"alice","content":"<p>hi</p>","markdown":"hi"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("pushing frame: %v", err)
	}
	event := testutil.RequireReceive(t, events, receiveWait, "message event")
	if event.Kind != KindMessage || event.Message.Markdown != "hi" {
		t.Fatalf("event = %+v", event)
	}
}

func TestSessionNoticeFeed(t *testing.T) {
	fixture := newChatFixture(t)
	session := newChatSession(t, fixture, "")

	events := make(chan Event, 16)
	session.AddListener(func(event Event) { events <- event })

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := fixture.accept(t)

	dial := testutil.RequireReceive(t, fixture.dials, receiveWait, "dial query")
	if dial.Has("toUser") {
		t.Errorf("notice feed dial carries toUser=%q", dial.Get("toUser"))
	}
	if got := dial.Get("apiKey"); got != "test-key" {
		t.Errorf("apiKey = %q, want test-key", got)
	}

	frame := `{"command":"chatUnreadCountRefresh","userId":"100"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("pushing frame: %v", err)
	}
	event := testutil.RequireReceive(t, events, receiveWait, "notice event")
	if event.Kind != KindNotice || event.Notice.Command != CommandRefreshUnread {
		t.Fatalf("event = %+v", event)
	}

	// The feed is read-only.
	if err := session.Send(context.Background(), "hi"); err == nil {
		t.Fatal("Send on the notice feed succeeded")
	}
}

func TestSessionSendWritesSocket(t *testing.T) {
	fixture := newChatFixture(t)
	session := newChatSession(t, fixture, "alice")

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := fixture.accept(t)

	if err := session.Send(context.Background(), "晚上一起吃饭?"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(receiveWait))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading sent message: %v", err)
	}
	if kind != websocket.TextMessage || string(data) != "晚上一起吃饭?" {
		t.Errorf("received %d %q", kind, data)
	}
}

func TestSessionSendRequiresConnection(t *testing.T) {
	fixture := newChatFixture(t)
	session := newChatSession(t, fixture, "alice")

	if err := session.Send(context.Background(), "hi"); err != stream.ErrNotConnected {
		t.Fatalf("Send while detached = %v, want ErrNotConnected", err)
	}
}

func TestSessionPeer(t *testing.T) {
	fixture := newChatFixture(t)
	if got := newChatSession(t, fixture, "alice").Peer(); got != "alice" {
		t.Errorf("Peer = %q", got)
	}
	if got := newChatSession(t, fixture, "").Peer(); got != "" {
		t.Errorf("Peer = %q, want empty", got)
	}
}

func TestSessionReconnectsDialog(t *testing.T) {
	fixture := newChatFixture(t)
	session := newChatSession(t, fixture, "alice")

	events := make(chan Event, 16)
	session.AddListener(func(event Event) { events <- event })

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	first := fixture.accept(t)
	testutil.RequireReceive(t, fixture.dials, receiveWait, "first dial")
	first.Close()

	second := fixture.accept(t)
	dial := testutil.RequireReceive(t, fixture.dials, receiveWait, "second dial")
	if got := dial.Get("toUser"); got != "alice" {
		t.Errorf("redial toUser = %q", got)
	}

	frame := `{"oId":"2","fromId":"100","toId":"200","senderUserName":"alice","content":"still here","markdown":"still here"}`
	if err := second.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("pushing frame: %v", err)
	}
	event := testutil.RequireReceive(t, events, receiveWait, "post-reconnect event")
	if event.Kind != KindMessage || event.Message.Markdown != "still here" {
		t.Fatalf("event = %+v", event)
	}
}
