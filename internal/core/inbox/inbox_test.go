package inbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainRunsInOrder(t *testing.T) {
	in := New(0)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, in.Post(func() { order = append(order, i) }))
	}
	assert.Equal(t, 3, in.Drain())
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, 0, in.Pending())
}

func TestJobsPostedWhileDrainingWait(t *testing.T) {
	in := New(0)
	ran := 0
	_ = in.Post(func() {
		ran++
		_ = in.Post(func() { ran++ })
	})
	assert.Equal(t, 1, in.Drain())
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, in.Drain())
	assert.Equal(t, 2, ran)
}

func TestCallWaitsForResult(t *testing.T) {
	in := New(0)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				in.Drain()
				time.Sleep(time.Millisecond)
			}
		}
	}()
	defer close(stop)

	want := errors.New("from tick")
	err := in.Call(context.Background(), func() error { return want })
	assert.ErrorIs(t, err, want)
}

func TestCallHonoursContext(t *testing.T) {
	in := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := in.Call(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFullInboxDrops(t *testing.T) {
	in := New(1)
	require.NoError(t, in.Post(func() {}))
	assert.ErrorIs(t, in.Post(func() {}), ErrFull)
	assert.EqualValues(t, 1, in.Dropped())
}
