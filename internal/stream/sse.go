package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SSEClient streams events to one HTTP response as text/event-stream.
type SSEClient struct {
	*mailbox
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewSSEClient creates a client for w. It performs no I/O, so it can be
// created and subscribed on the host thread; Run writes the response.
func NewSSEClient(w http.ResponseWriter, buffer int) *SSEClient {
	return &SSEClient{
		mailbox: newMailbox(buffer),
		w:       w,
		rc:      http.NewResponseController(w),
	}
}

// start writes the event-stream headers and clears the write deadline.
func (c *SSEClient) start() error {
	h := c.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	//nolint:errcheck // Not every writer supports deadlines; streams then rely on the server's WriteTimeout being 0.
	c.rc.SetWriteDeadline(time.Time{})

	c.w.WriteHeader(http.StatusOK)
	if err := c.rc.Flush(); err != nil {
		return fmt.Errorf("stream: response cannot flush: %w", err)
	}
	return nil
}

// Run sends the response headers, then writes queued events until the client is closed, ctx is done (the
// peer went away) or a write fails. A comment line is written every
// keepAlive when no event was sent; zero disables it. The client is
// closed when Run returns.
func (c *SSEClient) Run(ctx context.Context, keepAlive time.Duration) error {
	defer c.Close()

	if err := c.start(); err != nil {
		return err
	}

	var tick <-chan time.Time
	if keepAlive > 0 {
		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case e := <-c.send:
			if err := e.WriteSSE(c.w); err != nil {
				return fmt.Errorf("stream: write event: %w", err)
			}
			if err := c.rc.Flush(); err != nil {
				return fmt.Errorf("stream: flush: %w", err)
			}
		case <-tick:
			if _, err := io.WriteString(c.w, ": keepalive\n\n"); err != nil {
				return fmt.Errorf("stream: write keepalive: %w", err)
			}
			if err := c.rc.Flush(); err != nil {
				return fmt.Errorf("stream: flush: %w", err)
			}
		}
	}
}
