// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FishPiOffical/fishpi-go/lib/clock"
	"github.com/FishPiOffical/fishpi-go/lib/netutil"
)

// Transport timing. Deadlines guard the real socket and use wall time;
// only the waits tests need to drive (backoff, ping cadence) go through
// the injected Clock.
const (
	// writeWait bounds any single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long a silent connection stays trusted. Any frame,
	// pong included, resets it.
	pongWait = 60 * time.Second

	// pingPeriod keeps protocol pings comfortably inside pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds one inbound frame. Roster frames carry the
	// whole online list, so this is generous.
	maxMessageSize = 1 << 20
)

// diagnosticsBuffer is the capacity of the Diagnostics channel. When it
// is full, further listener errors are logged and dropped.
const diagnosticsBuffer = 16

var (
	// ErrNotConnected is returned by Send and SendJSON when the client
	// has no established connection. Nothing is queued for later.
	ErrNotConnected = errors.New("stream: not connected")

	// ErrRetriesExhausted is the terminal cause reported when the
	// reconnect attempt bound is reached. It arrives wrapped in the Err
	// of the final Disconnected status.
	ErrRetriesExhausted = errors.New("stream: reconnect attempts exhausted")
)

// Config assembles a Client. Dial and Decode are required; everything
// else has a usable zero value.
type Config[E any] struct {
	// Dial returns the WebSocket URL for one connection attempt. It runs
	// before every attempt, initial and reconnect alike, so rotated
	// credentials and re-resolved nodes are picked up.
	Dial func(ctx context.Context) (string, error)

	// Decode turns one raw text frame into an event. It must be total:
	// a frame that fails to parse becomes the codec's unknown shape,
	// never an error.
	Decode func(raw []byte) E

	// Keepalive reports whether an event is a liveness frame. Liveness
	// frames are counted but not dispatched. Optional.
	Keepalive func(E) bool

	// Backoff is the reconnect delay policy. A zero value takes
	// DefaultBackoff.
	Backoff Backoff

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

// Client maintains one logical stream of E events across however many
// physical WebSocket connections that takes. See the package doc for
// the delivery and reconnect guarantees.
type Client[E any] struct {
	dial      func(ctx context.Context) (string, error)
	decode    func([]byte) E
	keepalive func(E) bool
	backoff   Backoff
	dialer    *websocket.Dialer
	clock     clock.Clock
	logger    *slog.Logger

	handles atomic.Uint64
	events  *registry[E]
	status  *registry[Status]

	diagnostics chan ListenerError
	stats       counters

	writeMu sync.Mutex // serializes writes to the active conn

	mu      sync.Mutex
	current Status
	conn    *websocket.Conn
	cancel  context.CancelFunc
	done    chan struct{} // closed when the supervisor exits
	gen     uint64        // bumped by Disconnect so stale dials abandon
}

// NewClient validates config and returns a disconnected client.
func NewClient[E any](config Config[E]) (*Client[E], error) {
	if config.Dial == nil {
		return nil, errors.New("stream: config needs a Dial function")
	}
	if config.Decode == nil {
		return nil, errors.New("stream: config needs a Decode function")
	}
	c := &Client[E]{
		dial:        config.Dial,
		decode:      config.Decode,
		keepalive:   config.Keepalive,
		backoff:     config.Backoff.withDefaults(),
		dialer:      config.Dialer,
		clock:       config.Clock,
		logger:      config.Logger,
		diagnostics: make(chan ListenerError, diagnosticsBuffer),
	}
	if c.dialer == nil {
		c.dialer = websocket.DefaultDialer
	}
	if c.clock == nil {
		c.clock = clock.System()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.events = newRegistry[E](&c.handles, c.listenerPanicked)
	c.status = newRegistry[Status](&c.handles, c.listenerPanicked)
	return c, nil
}

// Connect dials the stream and starts the read and ping loops. It is a
// no-op when the client is already connected, connecting, or
// reconnecting. A failed dial leaves the client Disconnected and is
// returned to the caller; automatic reconnection only covers
// connections that were established and then dropped. When Disconnect
// races with the handshake, Connect returns context.Canceled.
func (c *Client[E]) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.current.State != Disconnected {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.setStatusLocked(Status{State: Connecting})
	c.mu.Unlock()

	conn, err := c.dialOnce(ctx)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return context.Canceled
	}
	if err != nil {
		c.setStatusLocked(Status{State: Disconnected, Err: err})
		c.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.conn = conn
	c.cancel = cancel
	c.done = done
	c.setStatusLocked(Status{State: Connected})
	c.mu.Unlock()

	c.logger.Info("stream connected")
	go c.supervise(runCtx, conn, done)
	return nil
}

// Disconnect closes the connection and stops the loops, cancelling a
// pending reconnect wait immediately. It blocks until the background
// work has wound down. Listener registrations stay; a later Connect
// resumes delivering to them.
func (c *Client[E]) Disconnect() {
	c.mu.Lock()
	if c.current.State == Disconnected {
		c.mu.Unlock()
		return
	}
	c.gen++
	cancel, conn, done := c.cancel, c.conn, c.done
	c.cancel, c.conn, c.done = nil, nil, nil
	c.setStatusLocked(Status{State: Disconnected})
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
	c.logger.Info("stream disconnected")
}

// Close disconnects and detaches every listener, ending their pump
// goroutines. Use it when the client is done for good.
func (c *Client[E]) Close() {
	c.Disconnect()
	c.events.clear()
	c.status.clear()
}

// Send writes one text frame to the peer. It fails with ErrNotConnected
// unless the client is currently Connected.
func (c *Client[E]) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.current.State == Connected
	c.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("stream: write failed: %w", err)
	}
	return nil
}

// SendJSON marshals v and sends it as one text frame.
func (c *Client[E]) SendJSON(ctx context.Context, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("stream: encoding payload: %w", err)
	}
	return c.Send(ctx, string(payload))
}

// AddListener registers fn for decoded events. Each listener runs on
// its own goroutine and receives events in frame order. Registrations
// survive reconnects and Disconnect; only RemoveListener or Close
// detach them.
func (c *Client[E]) AddListener(fn func(E)) Handle { return c.events.register(fn) }

// RemoveListener detaches a listener and discards its queued events. It
// reports whether the handle was registered and is safe to call twice.
func (c *Client[E]) RemoveListener(handle Handle) bool { return c.events.remove(handle) }

// AddStatusListener registers fn for connection state transitions.
// Removal and delivery semantics match AddListener.
func (c *Client[E]) AddStatusListener(fn func(Status)) Handle { return c.status.register(fn) }

// RemoveStatusListener detaches a status listener.
func (c *Client[E]) RemoveStatusListener(handle Handle) bool { return c.status.remove(handle) }

// Status returns the most recent transition.
func (c *Client[E]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stats returns a snapshot of the client's counters.
func (c *Client[E]) Stats() Stats { return c.stats.snapshot() }

// Diagnostics exposes recovered listener panics. The channel is never
// closed; when nobody drains it, reports beyond its buffer are dropped.
func (c *Client[E]) Diagnostics() <-chan ListenerError { return c.diagnostics }

// supervise owns the connection lifecycle after the initial dial: it
// services the current connection until it fails, then redials with
// backoff, forever or until torn down.
func (c *Client[E]) supervise(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		err := c.runConnection(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.Warn("stream connection lost", "error", err)
		} else {
			c.logger.Info("stream connection closed", "error", err)
		}
		c.clearConn()

		next, ok := c.redial(ctx, err)
		if !ok {
			return
		}
		conn = next
		c.stats.reconnects.Add(1)
	}
}

// runConnection services one established connection: a ping goroutine
// keeps the peer aware of us while this goroutine reads, decodes, and
// dispatches frames until the transport fails. The returned error is
// the raw read failure.
func (c *Client[E]) runConnection(ctx context.Context, conn *websocket.Conn) error {
	pingCtx, stopPing := context.WithCancel(ctx)
	pingDone := make(chan struct{})
	go func() {
		defer close(pingDone)
		c.pingLoop(pingCtx, conn)
	}()
	defer func() {
		stopPing()
		conn.Close()
		<-pingDone
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.stats.frames.Add(1)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		event := c.decode(raw)
		if c.keepalive != nil && c.keepalive(event) {
			c.stats.keepalives.Add(1)
			continue
		}
		c.stats.events.Add(1)
		c.events.dispatch(event)
	}
}

// pingLoop sends protocol pings so intermediaries and the peer see a
// live connection. A failed ping closes the conn, which surfaces as a
// read error in runConnection.
func (c *Client[E]) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := c.clock.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				conn.Close()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// redial dials with backoff until a connection is established, the
// attempt bound is exhausted, or the client is torn down.
func (c *Client[E]) redial(ctx context.Context, cause error) (*websocket.Conn, bool) {
	for attempt := 1; ; attempt++ {
		if c.backoff.MaxAttempts > 0 && attempt > c.backoff.MaxAttempts {
			c.giveUp(cause)
			return nil, false
		}
		delay := c.backoff.delay(attempt)
		if !c.noteReconnecting(attempt, delay, cause) {
			return nil, false
		}
		select {
		case <-c.clock.After(delay):
		case <-ctx.Done():
			return nil, false
		}
		conn, err := c.dialOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false
			}
			c.logger.Warn("stream reconnect failed", "attempt", attempt, "error", err)
			cause = err
			continue
		}
		if !c.adoptConn(ctx, conn) {
			return nil, false
		}
		c.logger.Info("stream reconnected", "attempt", attempt)
		return conn, true
	}
}

// dialOnce resolves the target URL and performs one handshake. The URL
// may carry credentials in its query, so it stays out of errors and
// logs.
func (c *Client[E]) dialOnce(ctx context.Context) (*websocket.Conn, error) {
	target, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("stream: resolving stream URL: %w", err)
	}
	conn, response, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		// A refused upgrade usually carries the reason in the response
		// body (stale key, overloaded node).
		if response != nil && response.Body != nil {
			detail := strings.TrimSpace(netutil.ErrorText(response.Body))
			response.Body.Close()
			if detail != "" {
				return nil, fmt.Errorf("stream: dial failed: %w: %s", err, detail)
			}
		}
		return nil, fmt.Errorf("stream: dial failed: %w", err)
	}
	if response != nil && response.Body != nil {
		response.Body.Close()
	}
	return conn, nil
}

// noteReconnecting publishes the Reconnecting transition unless the
// client was torn down meanwhile.
func (c *Client[E]) noteReconnecting(attempt int, delay time.Duration, cause error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.State == Disconnected {
		return false
	}
	c.setStatusLocked(Status{
		State:       Reconnecting,
		Attempt:     attempt,
		NextRetryAt: c.clock.Now().Add(delay),
		Err:         cause,
	})
	return true
}

// adoptConn installs a freshly dialed connection unless the client was
// torn down while the dial was in flight.
func (c *Client[E]) adoptConn(ctx context.Context, conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || c.current.State == Disconnected {
		conn.Close()
		return false
	}
	c.conn = conn
	c.setStatusLocked(Status{State: Connected})
	return true
}

func (c *Client[E]) clearConn() {
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
}

// giveUp publishes the terminal Disconnected transition after the
// reconnect budget is spent.
func (c *Client[E]) giveUp(cause error) {
	c.mu.Lock()
	if c.current.State == Disconnected {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.cancel, c.conn, c.done = nil, nil, nil
	c.setStatusLocked(Status{
		State: Disconnected,
		Err:   fmt.Errorf("%w: %v", ErrRetriesExhausted, cause),
	})
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.logger.Error("stream gave up reconnecting",
		"attempts", c.backoff.MaxAttempts,
		"error", cause,
	)
}

// setStatusLocked records and fans out a transition. Callers hold mu,
// so listeners observe transitions in the order they happen; dispatch
// only enqueues and never blocks.
func (c *Client[E]) setStatusLocked(status Status) {
	c.current = status
	c.status.dispatch(status)
}

// listenerPanicked is the registries' panic sink. It runs inside the
// recovering deferred call, so the stack still shows the panic site.
func (c *Client[E]) listenerPanicked(handle Handle, recovered any) {
	c.stats.listenerPanics.Add(1)
	c.logger.Error("stream listener panicked",
		"handle", handle,
		"panic", recovered,
		"stack", string(debug.Stack()),
	)
	select {
	case c.diagnostics <- ListenerError{Handle: handle, Recovered: recovered}:
	default:
		// Channel full: the log line above is the durable record.
	}
}
