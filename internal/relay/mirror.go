package relay

import (
	"context"
	"time"

	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/local-api-gateway/internal/stream"
)

// Mirror publishes every position and changeworld event to
// {prefix}/events/{event}. Payloads are the same text the SSE stream
// carries. Messages are retained so a new subscriber sees the current
// position and world.
type Mirror struct {
	pub    Publisher
	topics mqtt.Topics
	qos    byte
	logger *logging.Logger
	pump
}

// NewMirror creates a Mirror publishing through pub.
func NewMirror(pub Publisher, topics mqtt.Topics, qos byte, logger *logging.Logger) *Mirror {
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Mirror{
		pub:    pub,
		topics: topics,
		qos:    qos,
		logger: logger.With("component", "relay.mirror"),
	}
	m.pump.logger = m.logger
	m.pump.handle = m.publish
	return m
}

// Name implements gateway.Service.
func (m *Mirror) Name() string { return "mqtt-mirror" }

// Start implements gateway.Service.
func (m *Mirror) Start(_ context.Context) error {
	return m.pump.start()
}

// Stop implements gateway.Service. Queued events are published first.
func (m *Mirror) Stop() error {
	m.pump.stop()
	return nil
}

// PositionChanged implements tracker.Observer.
func (m *Mirror) PositionChanged(pos host.Vec3) {
	m.offer(event{name: stream.EventPosition, pos: pos, at: time.Now()})
}

// WorldChanged implements tracker.Observer.
func (m *Mirror) WorldChanged(world host.WorldID) {
	m.offer(event{name: stream.EventChangeWorld, world: world, at: time.Now()})
}

func (m *Mirror) publish(e event) {
	var payload string
	switch e.name {
	case stream.EventPosition:
		payload = e.pos.String()
	default:
		payload = e.world.String()
	}

	if err := m.pub.Publish(m.topics.Event(e.name), []byte(payload), m.qos, true); err != nil {
		m.logger.Warn("mirror publish failed", "event", e.name, "error", err)
	}
}
