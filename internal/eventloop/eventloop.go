// Package eventloop runs posted functions one at a time on a single goroutine.
package eventloop

import (
	"context"
	"sync"
)

// Loop is a serial executor. Functions posted from any goroutine run in posting order on
// the goroutine that calls Run.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Loop whose queue holds buffer functions before Post blocks.
func New(buffer int) *Loop {
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Post queues fn. It is dropped when the loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}

	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Call posts fn and waits until it has run. It must not be called from the loop itself.
// It returns false when the loop stopped before running fn.
func (l *Loop) Call(fn func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		fn()
		close(ran)
	})

	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

// Run executes posted functions until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return nil
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		}
	}
}

// Stop ends Run. Queued functions that have not started are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
