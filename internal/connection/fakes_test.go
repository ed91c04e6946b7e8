package connection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mcpchat/pkg/chattypes"
)

// queuePoster collects posted callbacks; tests run them explicitly on the test goroutine.
type queuePoster struct {
	ch chan func()
}

func newQueuePoster() *queuePoster {
	return &queuePoster{ch: make(chan func(), 64)}
}

func (p *queuePoster) Post(fn func()) {
	p.ch <- fn
}

// runNext waits for one callback and runs it.
func (p *queuePoster) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-p.ch:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a posted callback")
	}
}

// assertIdle fails if a callback arrives within a short window.
func (p *queuePoster) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case <-p.ch:
		t.Fatal("unexpected posted callback")
	case <-time.After(50 * time.Millisecond):
	}
}

var errClosed = errors.New("use of closed network connection")

type fakeConn struct {
	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written []string
	frames  []int
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.inbound:
		return websocket.TextMessage, data, nil
	case <-c.closed:
		return 0, nil, errClosed
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return errClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, messageType)
	c.written = append(c.written, string(data))
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) sentFrames() ([]int, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.frames...), append([]string(nil), c.written...)
}

type dialResult struct {
	conn Conn
	err  error
}

// fakeDialer returns scripted results in order; once exhausted it returns fresh conns.
type fakeDialer struct {
	mu      sync.Mutex
	results []dialResult
	conns   []*fakeConn
	calls   int
	block   chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (Conn, error) {
	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.results) > 0 {
		r := d.results[0]
		d.results = d.results[1:]
		if fc, ok := r.conn.(*fakeConn); ok {
			d.conns = append(d.conns, fc)
		}
		return r.conn, r.err
	}
	fc := newFakeConn()
	d.conns = append(d.conns, fc)
	return fc, nil
}

func (d *fakeDialer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (t *fakeTimer) fire() {
	t.fired = true
	t.fn()
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{delay: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) active() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

type recordingDispatcher struct {
	events []chattypes.Event
}

func (d *recordingDispatcher) Dispatch(ev chattypes.Event) {
	d.events = append(d.events, ev)
}
