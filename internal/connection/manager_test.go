package connection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpchat/pkg/chattypes"
)

type harness struct {
	m          *Manager
	poster     *queuePoster
	dialer     *fakeDialer
	scheduler  *fakeScheduler
	dispatcher *recordingDispatcher
	statuses   []chattypes.ConnState
}

func newHarness() *harness {
	h := &harness{
		poster:     newQueuePoster(),
		dialer:     &fakeDialer{},
		scheduler:  &fakeScheduler{},
		dispatcher: &recordingDispatcher{},
	}
	h.m = New(Options{
		URL:            "ws://backend.test/ws",
		ReconnectDelay: 5 * time.Second,
		Dialer:         h.dialer,
		Scheduler:      h.scheduler,
		Poster:         h.poster,
		Dispatcher:     h.dispatcher,
		OnStatus:       func(s chattypes.ConnState) { h.statuses = append(h.statuses, s) },
	})
	return h
}

// open connects and runs the dial result.
func (h *harness) open(t *testing.T) *fakeConn {
	t.Helper()
	h.m.Connect(context.Background())
	h.poster.runNext(t)
	require.Equal(t, chattypes.StateOpen, h.m.State())
	return h.dialer.lastConn()
}

func TestConnectOpens(t *testing.T) {
	h := newHarness()
	assert.Equal(t, chattypes.StateDisconnected, h.m.State())

	h.open(t)

	assert.Equal(t, []chattypes.ConnState{chattypes.StateConnecting, chattypes.StateOpen}, h.statuses)
	assert.Equal(t, 1, h.dialer.callCount())
	assert.False(t, h.m.ReconnectPending())
}

func TestConnectWhileOpenIsNoop(t *testing.T) {
	h := newHarness()
	h.open(t)

	h.m.Connect(context.Background())
	h.poster.assertIdle(t)
	assert.Equal(t, 1, h.dialer.callCount())
}

func TestFramesAreDecodedAndDispatched(t *testing.T) {
	h := newHarness()
	conn := h.open(t)

	conn.inbound <- []byte(`{"type":"content","content":"Hi"}`)
	conn.inbound <- []byte(`not json`)
	h.poster.runNext(t)
	h.poster.runNext(t)

	require.Len(t, h.dispatcher.events, 2)
	assert.Equal(t, chattypes.Event{Type: chattypes.EventContent, Content: "Hi"}, h.dispatcher.events[0])
	assert.Equal(t, chattypes.EventSystem, h.dispatcher.events[1].Type)
	assert.Equal(t, "not json", h.dispatcher.events[1].Content)
}

func TestSend(t *testing.T) {
	h := newHarness()

	err := h.m.Send("hello")
	assert.True(t, errors.Is(err, chattypes.ErrNotConnected))

	conn := h.open(t)
	require.NoError(t, h.m.Send("hello"))

	frames, written := conn.sentFrames()
	assert.Equal(t, []int{websocket.TextMessage}, frames)
	assert.Equal(t, []string{"hello"}, written)
}

func TestSendWriteFailureIsConnectionError(t *testing.T) {
	h := newHarness()
	conn := h.open(t)
	conn.closeOnce.Do(func() { close(conn.closed) })

	err := h.m.Send("hello")
	var cerr *chattypes.ConnectionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "send", cerr.Op)
}

func TestUnexpectedCloseSchedulesOneReconnect(t *testing.T) {
	h := newHarness()
	conn := h.open(t)

	conn.Close()
	h.poster.runNext(t)

	assert.Equal(t, chattypes.StateDisconnected, h.m.State())
	timers := h.scheduler.active()
	require.Len(t, timers, 1)
	assert.Equal(t, 5*time.Second, timers[0].delay)

	timers[0].fire()
	h.poster.runNext(t) // timer callback starts the dial
	h.poster.runNext(t) // dial result

	assert.Equal(t, chattypes.StateOpen, h.m.State())
	assert.Equal(t, 2, h.dialer.callCount())
	assert.Len(t, h.scheduler.timers, 1)
}

func TestErrorThenCloseDoesNotDoubleSchedule(t *testing.T) {
	h := newHarness()
	h.open(t)
	gen := h.m.gen

	h.m.handleClosed(gen, errors.New("connection reset"))
	h.m.handleClosed(gen, errors.New("close after error"))
	h.m.scheduleReconnect()

	assert.Len(t, h.scheduler.timers, 1)
}

func TestFailedDialSchedulesReconnect(t *testing.T) {
	h := newHarness()
	h.dialer.results = []dialResult{{err: errors.New("connection refused")}}

	h.m.Connect(context.Background())
	h.poster.runNext(t)

	assert.Equal(t, chattypes.StateDisconnected, h.m.State())
	require.Len(t, h.scheduler.active(), 1)

	h.scheduler.active()[0].fire()
	h.poster.runNext(t)
	h.poster.runNext(t)
	assert.Equal(t, chattypes.StateOpen, h.m.State())
}

func TestDisconnectSuppressesReconnect(t *testing.T) {
	h := newHarness()
	conn := h.open(t)

	h.m.Disconnect()
	assert.Equal(t, chattypes.StateClosing, h.m.State())
	assert.True(t, h.m.UserDisconnected())

	frames, _ := conn.sentFrames()
	assert.Equal(t, []int{websocket.CloseMessage}, frames)
	assert.True(t, conn.isClosed())

	h.poster.runNext(t) // read loop reports the close
	assert.Equal(t, chattypes.StateDisconnected, h.m.State())
	assert.Empty(t, h.scheduler.timers)
	h.poster.assertIdle(t)

	// A manual connect clears the flag.
	h.m.Connect(context.Background())
	assert.False(t, h.m.UserDisconnected())
	h.poster.runNext(t)
	assert.Equal(t, chattypes.StateOpen, h.m.State())
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	h := newHarness()
	conn := h.open(t)
	conn.Close()
	h.poster.runNext(t)

	timers := h.scheduler.active()
	require.Len(t, timers, 1)

	h.m.Disconnect()
	assert.True(t, timers[0].stopped)
	assert.False(t, h.m.ReconnectPending())

	// A callback that already fired is ignored as well.
	timers[0].fn()
	h.poster.runNext(t)
	assert.Equal(t, 1, h.dialer.callCount())
	assert.Equal(t, chattypes.StateDisconnected, h.m.State())
}

func TestSuppressReconnectBeforeServerHangup(t *testing.T) {
	h := newHarness()
	conn := h.open(t)

	h.m.SuppressReconnect()
	require.NoError(t, h.m.Send("/quit"))
	conn.Close()
	h.poster.runNext(t)

	assert.Equal(t, chattypes.StateDisconnected, h.m.State())
	assert.Empty(t, h.scheduler.timers)
}

func TestDisconnectWhileConnectingDropsDial(t *testing.T) {
	h := newHarness()
	h.dialer.block = make(chan struct{})

	h.m.Connect(context.Background())
	assert.Equal(t, chattypes.StateConnecting, h.m.State())

	h.m.Disconnect()
	assert.Equal(t, chattypes.StateDisconnected, h.m.State())

	close(h.dialer.block)
	h.poster.runNext(t)

	assert.Equal(t, chattypes.StateDisconnected, h.m.State())
	assert.True(t, h.dialer.lastConn().isClosed())
}

func TestStaleFramesAreDropped(t *testing.T) {
	h := newHarness()
	h.open(t)
	gen := h.m.gen

	h.m.Disconnect()
	h.poster.runNext(t)
	h.m.Connect(context.Background())
	h.poster.runNext(t)

	h.m.handleFrame(gen, []byte(`{"type":"content","content":"old"}`))
	assert.Empty(t, h.dispatcher.events)
}

func TestShutdown(t *testing.T) {
	h := newHarness()
	conn := h.open(t)

	h.m.Shutdown()
	assert.Equal(t, chattypes.StateDisconnected, h.m.State())
	assert.True(t, conn.isClosed())

	// The read loop's close report belongs to a finished generation.
	h.poster.runNext(t)
	assert.Empty(t, h.scheduler.timers)
}

func TestWebSocketDialerAgainstServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotUA := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			reply := `{"type":"content","content":"echo ` + string(msg) + `"}`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	poster := newQueuePoster()
	dispatcher := &recordingDispatcher{}
	m := New(Options{
		URL:        "ws" + strings.TrimPrefix(server.URL, "http"),
		Dialer:     WebSocketDialer{HandshakeTimeout: 2 * time.Second},
		Scheduler:  &fakeScheduler{},
		Poster:     poster,
		Dispatcher: dispatcher,
	})

	m.Connect(context.Background())
	poster.runNext(t)
	require.Equal(t, chattypes.StateOpen, m.State())
	assert.True(t, strings.HasPrefix(<-gotUA, "mcpchat"))

	require.NoError(t, m.Send("ping"))
	poster.runNext(t)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, "echo ping", dispatcher.events[0].Content)

	m.Disconnect()
	poster.runNext(t)
	assert.Equal(t, chattypes.StateDisconnected, m.State())
}
