// Package hosttest provides a concurrency-safe in-memory Host for tests.
package hosttest

import (
	"sync"

	"github.com/nerrad567/local-api-gateway/internal/host"
)

// Fake is a Host whose state tests set directly. All methods are safe for
// concurrent use, so it can be driven through host.Direct.
type Fake struct {
	mu sync.Mutex

	present  bool
	pos      host.Vec3
	world    host.WorldID
	screen   string
	mods     []host.ModInfo
	sets     []host.WaypointSet
	minimap  bool
	messages []string
	commands []string

	// Err, when set, is returned by the chat and waypoint writes.
	Err error
}

// New returns a Fake with a player standing at the origin of the overworld
// and an active minimap session.
func New() *Fake {
	return &Fake{
		present: true,
		world:   "minecraft:overworld",
		minimap: true,
		mods: []host.ModInfo{
			{ID: "minecraft", Version: "1.21.1"},
			{ID: "localapi", Version: "0.3.0"},
		},
		sets: []host.WaypointSet{{Name: "gui.xaero_default"}},
	}
}

// SetPresent puts the player in or out of the world.
func (f *Fake) SetPresent(present bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present = present
}

// SetPosition moves the player.
func (f *Fake) SetPosition(v host.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = v
}

// SetWorld moves the player to another world.
func (f *Fake) SetWorld(w host.WorldID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.world = w
}

// SetScreen opens a screen with the given title. An empty title closes it.
func (f *Fake) SetScreen(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screen = title
}

// SetMinimap starts or ends the minimap session.
func (f *Fake) SetMinimap(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimap = active
}

// Messages returns the chat messages sent so far.
func (f *Fake) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// Commands returns the chat commands sent so far.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *Fake) PlayerPresent() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.present
}

func (f *Fake) Position() (host.Vec3, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.present {
		return host.Vec3{}, host.ErrPlayerUnavailable
	}
	return f.pos, nil
}

func (f *Fake) World() (host.WorldID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.present {
		return "", host.ErrPlayerUnavailable
	}
	return f.world, nil
}

func (f *Fake) Screen() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screen, f.screen != ""
}

func (f *Fake) Mods() []host.ModInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]host.ModInfo(nil), f.mods...)
}

func (f *Fake) SendChatMessage(msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if !f.present {
		return host.ErrPlayerUnavailable
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *Fake) SendChatCommand(cmd string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if !f.present {
		return host.ErrPlayerUnavailable
	}
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *Fake) WaypointSets() ([]host.WaypointSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.minimap {
		return nil, host.ErrWaypointsUnavailable
	}
	return append([]host.WaypointSet(nil), f.sets...), nil
}

func (f *Fake) CreateWaypointSet(name string) (host.WaypointSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return host.WaypointSet{}, f.Err
	}
	if !f.minimap {
		return host.WaypointSet{}, host.ErrWaypointsUnavailable
	}
	set := host.WaypointSet{Name: name, Waypoints: []host.Waypoint{}}
	f.sets = append(f.sets, set)
	return set, nil
}

var _ host.Host = (*Fake)(nil)
