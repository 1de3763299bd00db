// Package inbox hands work from network and file-watcher goroutines to the
// single tick goroutine that owns all controllable state.
package inbox

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ocfkit/ocf/pkg/sequence"
)

var ErrFull = errors.New("inbox is full")

// Job runs on the tick goroutine.
type Job = func()

type Inbox struct {
	queue   *sequence.Queue[Job]
	dropped atomic.Uint64
}

// New creates an inbox holding at most limit pending jobs (unbounded when <= 0).
func New(limit int) *Inbox {
	return &Inbox{queue: sequence.NewQueue[Job](limit)}
}

// Post queues a job without waiting for it.
func (in *Inbox) Post(job Job) error {
	if !in.queue.Enqueue(job) {
		in.dropped.Add(1)
		return ErrFull
	}
	return nil
}

// Call queues fn and waits until the tick goroutine has run it.
func (in *Inbox) Call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if err := in.Post(func() { done <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain runs every job queued before the call, oldest first, and returns how
// many ran. Jobs posted by running jobs wait for the next Drain.
func (in *Inbox) Drain() int {
	if in.queue.IsEmpty() {
		return 0
	}
	jobs := in.queue.Drain()
	for _, job := range jobs {
		job()
	}
	return len(jobs)
}

// Pending counts jobs waiting for the next Drain.
func (in *Inbox) Pending() int {
	return in.queue.Len()
}

// Dropped counts jobs rejected because the inbox was full.
func (in *Inbox) Dropped() uint64 {
	return in.dropped.Load()
}
