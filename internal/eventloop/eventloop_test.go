package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRunsInOrder(t *testing.T) {
	loop := New(16)
	go func() { _ = loop.Run(context.Background()) }()
	defer loop.Stop()

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	require.True(t, loop.Call(func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestPostFromManyGoroutinesIsSerialized(t *testing.T) {
	loop := New(4)
	go func() { _ = loop.Run(context.Background()) }()
	defer loop.Stop()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Call(func() { counter++ })
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	loop := New(1)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	select {
	case <-loop.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestPostAfterStopIsDropped(t *testing.T) {
	loop := New(0)
	loop.Stop()
	loop.Stop()

	loop.Post(func() { t.Fatal("must not run") })
	assert.False(t, loop.Call(func() {}))
}
