package stream

import (
	"sync"

	"github.com/google/uuid"
)

// Client is one subscriber. Implementations must make Send non-blocking
// and Close idempotent.
type Client interface {
	// ID returns a unique identifier for logs.
	ID() string
	// Send queues e for delivery. It returns false if the client is
	// closed or cannot take more events.
	Send(e Event) bool
	// Close releases the client. Safe to call more than once.
	Close()
	// Done is closed once the client is closed.
	Done() <-chan struct{}
}

// mailbox is the buffered send path shared by the transports. The send
// channel is never closed; done signals shutdown instead, so a Send racing
// a Close can never panic.
type mailbox struct {
	id        string
	send      chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func newMailbox(buffer int) *mailbox {
	if buffer < 1 {
		buffer = 1
	}
	return &mailbox{
		id:   uuid.NewString(),
		send: make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

func (m *mailbox) ID() string {
	return m.id
}

func (m *mailbox) Send(e Event) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.send <- e:
		return true
	default:
		return false
	}
}

func (m *mailbox) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *mailbox) Done() <-chan struct{} {
	return m.done
}
