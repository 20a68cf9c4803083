package host

import (
	"context"
	"fmt"
	"time"
)

// Executor runs a function against the Host in the host's thread context.
type Executor interface {
	// Do runs fn and returns its error. It blocks the calling goroutine
	// until fn has run, ctx is done, or the executor gives up.
	Do(ctx context.Context, fn func(Host) error) error
}

type call struct {
	ctx  context.Context
	fn   func(Host) error
	done chan error
}

// Queue marshals calls onto the tick thread. Request goroutines enqueue
// with Do; the tick thread runs everything queued so far with RunPending.
// The tick thread never waits on the queue.
//
// A call abandoned by its caller (timeout or cancelled context) before
// the tick thread reaches it is skipped. One already running completes
// and its result is discarded.
type Queue struct {
	calls   chan call
	timeout time.Duration
}

// NewQueue creates a Queue holding up to size pending calls. Do gives up
// with ErrHostTimeout after timeout.
func NewQueue(size int, timeout time.Duration) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		calls:   make(chan call, size),
		timeout: timeout,
	}
}

// Do enqueues fn and waits for the tick thread to run it.
func (q *Queue) Do(ctx context.Context, fn func(Host) error) error {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	c := call{ctx: ctx, fn: fn, done: make(chan error, 1)}

	select {
	case q.calls <- c:
	case <-ctx.Done():
		return waitErr(ctx)
	}

	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return waitErr(ctx)
	}
}

// RunPending runs the calls queued before it was invoked and returns how
// many ran. Calls enqueued while it runs wait for the next tick.
// Must only be called from the tick thread.
func (q *Queue) RunPending(h Host) int {
	ran := 0
	for n := len(q.calls); n > 0; n-- {
		var c call
		select {
		case c = <-q.calls:
		default:
			return ran
		}
		if c.ctx.Err() != nil {
			c.done <- waitErr(c.ctx)
			continue
		}
		c.done <- run(h, c.fn)
		ran++
	}
	return ran
}

// Pending returns the number of queued calls.
func (q *Queue) Pending() int {
	return len(q.calls)
}

// Direct runs calls inline on the calling goroutine. It is only correct
// for Host implementations that are safe for concurrent use, such as test
// fakes.
type Direct struct {
	Host Host
}

// Do runs fn against d.Host immediately.
func (d Direct) Do(ctx context.Context, fn func(Host) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return run(d.Host, fn)
}

func run(h Host, fn func(Host) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCallPanicked, r)
		}
	}()
	return fn(h)
}

func waitErr(ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrHostTimeout
	}
	return ctx.Err()
}
