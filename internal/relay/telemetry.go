package relay

import (
	"context"
	"time"

	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/local-api-gateway/internal/stream"
)

// unknownWorld tags positions seen before any world.
const unknownWorld = "unknown"

// Telemetry writes a player_position point for every position broadcast
// and a world_change point for every changeworld broadcast.
type Telemetry struct {
	w      PointWriter
	player string
	logger *logging.Logger
	pump

	// world is owned by the worker goroutine.
	world string
}

// NewTelemetry creates a Telemetry sink tagging points with player.
func NewTelemetry(w PointWriter, player string, logger *logging.Logger) *Telemetry {
	if logger == nil {
		logger = logging.Discard()
	}
	t := &Telemetry{
		w:      w,
		player: player,
		logger: logger.With("component", "relay.telemetry"),
	}
	t.pump.logger = t.logger
	t.pump.handle = t.write
	return t
}

// Name implements gateway.Service.
func (t *Telemetry) Name() string { return "influxdb-telemetry" }

// Start implements gateway.Service. The current world is forgotten, as the
// detector rebroadcasts it after every start.
func (t *Telemetry) Start(_ context.Context) error {
	t.world = ""
	return t.pump.start()
}

// Stop implements gateway.Service. Queued points are written and flushed.
func (t *Telemetry) Stop() error {
	t.pump.stop()
	t.w.Flush()
	return nil
}

// PositionChanged implements tracker.Observer.
func (t *Telemetry) PositionChanged(pos host.Vec3) {
	t.offer(event{name: stream.EventPosition, pos: pos, at: time.Now()})
}

// WorldChanged implements tracker.Observer.
func (t *Telemetry) WorldChanged(world host.WorldID) {
	t.offer(event{name: stream.EventChangeWorld, world: world, at: time.Now()})
}

func (t *Telemetry) write(e event) {
	switch e.name {
	case stream.EventPosition:
		world := t.world
		if world == "" {
			world = unknownWorld
		}
		t.w.WritePosition(t.player, world, e.pos.X, e.pos.Y, e.pos.Z, e.at)
	case stream.EventChangeWorld:
		from := t.world
		t.world = e.world.String()
		if from == "" {
			// First world after start; not a change.
			return
		}
		t.w.WriteWorldChange(t.player, from, t.world, e.at)
	}
}
