// Package connection maintains the single WebSocket to the chat backend and reconnects
// it after unexpected closes.
//
// Dialing and reading happen on background goroutines, but every outcome is posted to the
// injected Poster, so the Manager's state is only ever touched on that serial executor.
// Methods must be called from the executor as well.
package connection

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"mcpchat/internal/logger"
	"mcpchat/internal/protocol"
	"mcpchat/pkg/chattypes"
)

// DefaultReconnectDelay is the fixed wait before a reconnect attempt.
const DefaultReconnectDelay = 5 * time.Second

// Dispatcher receives every decoded inbound event.
type Dispatcher interface {
	Dispatch(ev chattypes.Event)
}

// Options configures a Manager. URL, Dialer, Poster and Dispatcher are required.
type Options struct {
	URL            string
	ReconnectDelay time.Duration
	Dialer         Dialer
	Scheduler      Scheduler
	Poster         Poster
	Dispatcher     Dispatcher
	// OnStatus is called on the executor after every state change.
	OnStatus func(state chattypes.ConnState)
}

// Manager owns the connection lifecycle.
type Manager struct {
	url        string
	delay      time.Duration
	dialer     Dialer
	scheduler  Scheduler
	poster     Poster
	dispatcher Dispatcher
	onStatus   func(chattypes.ConnState)
	log        *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state chattypes.ConnState
	conn  Conn
	// gen identifies the current connection attempt; events of older attempts are dropped.
	gen uint64

	userDisconnected bool
	reconnectTimer   Timer
	reconnectSeq     uint64
}

// New creates a disconnected Manager.
func New(opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		url:        opts.URL,
		delay:      opts.ReconnectDelay,
		dialer:     opts.Dialer,
		scheduler:  opts.Scheduler,
		poster:     opts.Poster,
		dispatcher: opts.Dispatcher,
		onStatus:   opts.OnStatus,
		log:        logger.NewStyledLogger("Connection"),
		ctx:        ctx,
		cancel:     cancel,
		state:      chattypes.StateDisconnected,
	}
	if m.delay <= 0 {
		m.delay = DefaultReconnectDelay
	}
	if m.scheduler == nil {
		m.scheduler = TimeScheduler{}
	}
	return m
}

// URL returns the endpoint.
func (m *Manager) URL() string {
	return m.url
}

// State returns the current connection state.
func (m *Manager) State() chattypes.ConnState {
	return m.state
}

// UserDisconnected reports whether automatic reconnection is suppressed.
func (m *Manager) UserDisconnected() bool {
	return m.userDisconnected
}

// ReconnectPending reports whether a reconnect attempt is scheduled.
func (m *Manager) ReconnectPending() bool {
	return m.reconnectTimer != nil
}

// Connect dials the endpoint unless a connection is open or being opened. A manual
// Connect clears a previous user disconnect. ctx bounds the dial only.
func (m *Manager) Connect(ctx context.Context) {
	m.userDisconnected = false
	m.cancelReconnect()

	if m.state == chattypes.StateOpen || m.state == chattypes.StateConnecting {
		return
	}
	m.dial(ctx)
}

// Send writes payload as one text frame.
func (m *Manager) Send(payload string) error {
	if m.state != chattypes.StateOpen || m.conn == nil {
		return chattypes.ErrNotConnected
	}

	if err := m.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		cerr := &chattypes.ConnectionError{Op: "send", URL: m.url, Err: err}
		m.log.Error("Send failed", "error", cerr)
		return cerr
	}

	m.log.Debug("Sent message", "bytes", len(payload))
	return nil
}

// SuppressReconnect marks the next close as user-requested and cancels any pending
// reconnect. It is used before sending a command that makes the server hang up.
func (m *Manager) SuppressReconnect() {
	m.userDisconnected = true
	m.cancelReconnect()
}

// Disconnect closes the connection and suppresses automatic reconnection until the next
// manual Connect.
func (m *Manager) Disconnect() {
	m.SuppressReconnect()

	switch m.state {
	case chattypes.StateOpen:
		m.setState(chattypes.StateClosing)
		m.closeConn()
	case chattypes.StateConnecting:
		// Abandon the in-flight dial.
		m.gen++
		m.setState(chattypes.StateDisconnected)
	}
}

// Shutdown disconnects and stops every background goroutine. The Manager cannot be
// reused afterwards.
func (m *Manager) Shutdown() {
	m.Disconnect()
	m.cancel()
	m.gen++
	m.conn = nil
	m.setState(chattypes.StateDisconnected)
}

func (m *Manager) dial(ctx context.Context) {
	if ctx == nil {
		ctx = m.ctx
	}
	m.gen++
	gen := m.gen
	m.conn = nil
	m.setState(chattypes.StateConnecting)
	m.log.Info("Connecting", "url", m.url)

	go func() {
		conn, err := m.dialer.Dial(ctx, m.url)
		m.poster.Post(func() { m.handleDial(gen, conn, err) })
	}()
}

func (m *Manager) handleDial(gen uint64, conn Conn, err error) {
	if gen != m.gen {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		m.handleClosed(gen, &chattypes.ConnectionError{Op: "dial", URL: m.url, Err: err})
		return
	}

	m.conn = conn
	m.cancelReconnect()
	m.setState(chattypes.StateOpen)
	m.log.Info("Connected", "url", m.url)

	go m.readLoop(gen, conn)
}

func (m *Manager) readLoop(gen uint64, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.poster.Post(func() { m.handleClosed(gen, err) })
			return
		}
		m.poster.Post(func() { m.handleFrame(gen, data) })
	}
}

func (m *Manager) handleFrame(gen uint64, data []byte) {
	if gen != m.gen {
		return
	}

	ev, err := protocol.Decode(data)
	if err != nil {
		m.log.Warn("Received malformed message", "error", err)
	}
	m.dispatcher.Dispatch(ev)
}

// handleClosed runs once per connection attempt, whether it ended by close, read error or
// failed dial.
func (m *Manager) handleClosed(gen uint64, err error) {
	if gen != m.gen || m.state == chattypes.StateDisconnected {
		return
	}

	if m.state != chattypes.StateClosing && !isNormalClose(err) {
		var cerr *chattypes.ConnectionError
		if !errors.As(err, &cerr) {
			cerr = &chattypes.ConnectionError{Op: "read", URL: m.url, Err: err}
		}
		m.log.Warn("Connection lost", "error", cerr)
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.setState(chattypes.StateDisconnected)

	if m.userDisconnected {
		m.log.Info("Disconnected by user, not reconnecting")
		return
	}
	m.scheduleReconnect()
}

func (m *Manager) scheduleReconnect() {
	if m.reconnectTimer != nil {
		return
	}

	m.reconnectSeq++
	seq := m.reconnectSeq
	m.reconnectTimer = m.scheduler.AfterFunc(m.delay, func() {
		m.poster.Post(func() { m.handleReconnectTimer(seq) })
	})
	m.log.Info("Reconnecting later", "delay", m.delay)
}

func (m *Manager) handleReconnectTimer(seq uint64) {
	if seq != m.reconnectSeq || m.reconnectTimer == nil {
		return
	}
	m.reconnectTimer = nil

	if m.userDisconnected || m.state == chattypes.StateOpen || m.state == chattypes.StateConnecting {
		return
	}
	if m.ctx.Err() != nil {
		return
	}
	m.dial(m.ctx)
}

func (m *Manager) cancelReconnect() {
	m.reconnectSeq++
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
}

func (m *Manager) closeConn() {
	if m.conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := m.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		m.log.Debug("Close frame not sent", "error", err)
	}
	_ = m.conn.Close()
}

func (m *Manager) setState(s chattypes.ConnState) {
	if m.state == s {
		return
	}
	m.log.Debug("State changed", "state", s)
	m.state = s
	if m.onStatus != nil {
		m.onStatus(s)
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
