// Package tracker decides, once per simulation tick, whether the player's
// position or world changed enough to push an event to stream clients.
//
// Detector state is owned by the tick thread; nothing else reads it.
package tracker

import (
	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/local-api-gateway/internal/stream"
)

// Broadcaster receives the events the detector emits. *stream.Hub
// satisfies it.
type Broadcaster interface {
	Broadcast(e stream.Event) int
	CloseAll() int
}

// Observer is told about every emitted change in addition to the
// Broadcaster. Implementations run on the tick thread and must not block.
type Observer interface {
	PositionChanged(pos host.Vec3)
	WorldChanged(world host.WorldID)
}

// Settings returns the stream settings in effect for the current tick.
type Settings func() config.StreamConfig

// Detector compares the player against the last broadcast position and
// world. Not safe for concurrent use: call Tick and Reset from the tick
// thread only.
type Detector struct {
	out       Broadcaster
	settings  Settings
	observers []Observer
	logger    *logging.Logger

	lastPos   host.Vec3
	lastWorld host.WorldID
	hasWorld  bool
}

// New creates a Detector. The last broadcast position starts at the origin
// and no world has been broadcast yet.
func New(out Broadcaster, settings Settings, logger *logging.Logger, observers ...Observer) *Detector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Detector{
		out:       out,
		settings:  settings,
		observers: observers,
		logger:    logger.With("component", "tracker"),
	}
}

// Tick runs one detection pass:
//  1. With no player present, optionally close every stream and stop.
//  2. Broadcast a position event when the player moved strictly further
//     than the threshold from the last broadcast position.
//  3. Broadcast a changeworld event when the world differs from the last
//     broadcast world.
func (d *Detector) Tick(h host.Host) {
	s := d.settings()

	if !h.PlayerPresent() {
		if s.CloseOnDisconnect {
			if n := d.out.CloseAll(); n > 0 {
				d.logger.Info("player left, closed position streams", "clients", n)
			}
		}
		return
	}

	if pos, err := h.Position(); err == nil && pos.DistanceTo(d.lastPos) > s.DistanceThreshold {
		d.lastPos = pos
		d.out.Broadcast(stream.Event{Name: stream.EventPosition, Data: pos.String()})
		for _, o := range d.observers {
			o.PositionChanged(pos)
		}
	}

	if world, err := h.World(); err == nil && (!d.hasWorld || world != d.lastWorld) {
		d.lastWorld = world
		d.hasWorld = true
		d.out.Broadcast(stream.Event{Name: stream.EventChangeWorld, Data: world.String()})
		for _, o := range d.observers {
			o.WorldChanged(world)
		}
	}
}

// Reset forgets the last broadcast position and world, so the next start
// does not suppress a legitimate update.
func (d *Detector) Reset() {
	d.lastPos = host.Vec3{}
	d.lastWorld = ""
	d.hasWorld = false
}

// Last returns the last broadcast position and world. ok is false until a
// world has been broadcast.
func (d *Detector) Last() (pos host.Vec3, world host.WorldID, ok bool) {
	return d.lastPos, d.lastWorld, d.hasWorld
}
