package relay

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/mqtt"
)

// queueSize bounds the events waiting for a relay worker.
const queueSize = 256

// ErrAlreadyStarted is returned by Start on a running relay.
var ErrAlreadyStarted = errors.New("relay: already started")

// Publisher publishes MQTT messages. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Subscriber manages MQTT subscriptions. *mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// PointWriter records telemetry points. *influxdb.Client satisfies it.
type PointWriter interface {
	WritePosition(player, world string, x, y, z float64, at time.Time)
	WriteWorldChange(player, from, to string, at time.Time)
	Flush()
}

// event is one detector change waiting for a worker.
type event struct {
	name  string
	pos   host.Vec3
	world host.WorldID
	at    time.Time
}

// pump hands events from the tick thread to a single worker goroutine.
// offer never blocks.
type pump struct {
	handle func(event)
	logger *logging.Logger

	mu      sync.Mutex
	events  chan event
	done    chan struct{}
	dropped atomic.Uint64
}

func (p *pump) start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events != nil {
		return ErrAlreadyStarted
	}

	events := make(chan event, queueSize)
	done := make(chan struct{})
	p.events, p.done = events, done

	go func() {
		defer close(done)
		for e := range events {
			p.handle(e)
		}
	}()
	return nil
}

// offer enqueues e. Events offered while stopped are ignored.
func (p *pump) offer(e event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		return
	}
	select {
	case p.events <- e:
	default:
		if n := p.dropped.Add(1); n == 1 || n%100 == 0 {
			p.logger.Warn("relay queue full, dropping events", "event", e.name, "dropped", n)
		}
	}
}

// stop drains queued events and waits for the worker to exit.
func (p *pump) stop() {
	p.mu.Lock()
	events, done := p.events, p.done
	p.events, p.done = nil, nil
	p.mu.Unlock()

	if events == nil {
		return
	}
	close(events)
	<-done
}

// Dropped returns the number of events discarded because the queue was full.
func (p *pump) Dropped() uint64 {
	return p.dropped.Load()
}
