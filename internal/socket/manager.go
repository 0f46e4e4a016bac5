// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package socket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultReconnectDelay is the fixed wait before redialing a closed socket.
	DefaultReconnectDelay = 5 * time.Second

	// DefaultHandshakeTimeout bounds a single dial.
	DefaultHandshakeTimeout = 10 * time.Second

	closeWriteTimeout = time.Second
)

// ErrNotConnected is returned by Send when the socket is not open.
var ErrNotConnected = errors.New("socket is not connected")

// =============================================================================
// EVENTS
// =============================================================================

// EventType identifies a transport happening.
type EventType int

const (
	EventOpen EventType = iota
	EventMessage
	EventClose
	EventError
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is delivered to the Sink for every transport happening.
type Event struct {
	Type   EventType
	ConnID string
	Data   []byte // EventMessage
	Err    error  // EventError
	Code   int    // EventClose: websocket close code, or 0 when none was received
}

// Sink receives events. Events from one connection arrive in order from a
// single goroutine. A Sink must not block indefinitely: Close waits for the
// reader goroutine to return.
type Sink func(Event)

// =============================================================================
// MANAGER
// =============================================================================

// Options configures a Manager.
type Options struct {
	// URL is the ws:// or wss:// endpoint.
	URL string

	// ReconnectDelay is the fixed delay before each reconnect attempt.
	ReconnectDelay time.Duration

	// HandshakeTimeout bounds each dial.
	HandshakeTimeout time.Duration

	// Dialer overrides websocket.DefaultDialer.
	Dialer *websocket.Dialer

	Logger *zap.Logger
}

// Manager owns one websocket connection at a time and keeps it alive.
// Its methods are safe for concurrent use.
type Manager struct {
	opts Options
	sink Sink
	log  *zap.Logger

	// ctx is cancelled by Close and aborts in-flight dials.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    *websocket.Conn
	connID  string
	timer   *time.Timer // pending reconnect; at most one
	started bool
	closed  bool

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// New creates a Manager. Nothing is dialed until Start.
func New(opts Options, sink Sink) *Manager {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if sink == nil {
		sink = func(Event) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		opts:   opts,
		sink:   sink,
		log:    log.With(zap.String("url", opts.URL)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// URL returns the endpoint the manager dials.
func (m *Manager) URL() string {
	return m.opts.URL
}

// Start begins the first connection attempt. Calling Start again, or after
// Close, does nothing.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.closed {
		return
	}
	m.started = true
	m.wg.Add(1)
	go m.connect()
}

// IsOpen reports whether a connection is currently established.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil && !m.closed
}

// Send writes one text frame. It fails with ErrNotConnected when the socket
// is not open; nothing is queued or retried.
func (m *Manager) Send(data []byte) error {
	m.mu.Lock()
	conn, id := m.conn, m.connID
	closed := m.closed
	m.mu.Unlock()
	if conn == nil || closed {
		return ErrNotConnected
	}

	m.writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, data)
	m.writeMu.Unlock()
	if err != nil {
		m.log.Warn("Send failed", zap.String("conn", id), zap.Error(err))
		return fmt.Errorf("socket send: %w", err)
	}
	m.log.Debug("Frame sent", zap.String("conn", id), zap.Int("bytes", len(data)))
	return nil
}

// Close stops the pending reconnect timer, aborts any dial in progress,
// closes the connection, and waits for the reader goroutine. No events are
// delivered once Close returns.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	m.cancel()

	var err error
	if conn != nil {
		m.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		m.writeMu.Unlock()
		err = conn.Close()
	}

	m.wg.Wait()
	m.log.Debug("Socket manager closed")
	return err
}

// =============================================================================
// CONNECTION LIFECYCLE
// =============================================================================

// connect dials once and, on success, runs the read loop until the
// connection ends. The caller has already done wg.Add(1).
func (m *Manager) connect() {
	defer m.wg.Done()

	id := uuid.NewString()
	log := m.log.With(zap.String("conn", id))

	ctx, cancel := context.WithTimeout(m.ctx, m.opts.HandshakeTimeout)
	conn, _, err := m.opts.Dialer.DialContext(ctx, m.opts.URL, nil)
	cancel()
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Warn("Dial failed", zap.Error(err))
		m.sink(Event{Type: EventError, ConnID: id, Err: err})
		m.sink(Event{Type: EventClose, ConnID: id})
		m.scheduleReconnect()
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn, m.connID = conn, id
	m.mu.Unlock()

	log.Info("Socket connected")
	m.sink(Event{Type: EventOpen, ConnID: id})
	m.readLoop(conn, id, log)
}

func (m *Manager) readLoop(conn *websocket.Conn, id string, log *zap.Logger) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			m.connectionLost(conn, id, log, err)
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		m.sink(Event{Type: EventMessage, ConnID: id, Data: data})
	}
}

// connectionLost reports a dead connection and schedules a reconnect,
// unless the loss was caused by our own Close.
func (m *Manager) connectionLost(conn *websocket.Conn, id string, log *zap.Logger, err error) {
	m.mu.Lock()
	closed := m.closed
	if m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()

	conn.Close()
	if closed {
		return
	}

	code := 0
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		code = ce.Code
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Info("Socket closed by peer", zap.Int("code", code))
	} else {
		log.Warn("Socket error", zap.Error(err))
		m.sink(Event{Type: EventError, ConnID: id, Err: err})
	}
	m.sink(Event{Type: EventClose, ConnID: id, Code: code})
	m.scheduleReconnect()
}

// scheduleReconnect arms the reconnect timer unless one is already pending.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.timer != nil {
		return
	}
	m.log.Debug("Reconnect scheduled", zap.Duration("delay", m.opts.ReconnectDelay))
	m.timer = time.AfterFunc(m.opts.ReconnectDelay, m.reconnect)
}

func (m *Manager) reconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.wg.Add(1)
	m.mu.Unlock()

	m.connect()
}
