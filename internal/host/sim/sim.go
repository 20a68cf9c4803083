package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/local-api-gateway/internal/waypoint"
)

const (
	// Application is the host name used in banners.
	Application = "Minecraft"

	// walkSpeed is blocks per tick (4.3 m/s at 20 ticks/s).
	walkSpeed = 0.215

	// turnChance is the per-tick probability of picking a new heading.
	turnChance = 0.02

	// chatLogSize bounds the retained chat lines.
	chatLogSize = 100

	// storeTimeout bounds each waypoint store call.
	storeTimeout = 2 * time.Second

	// noticePrefix marks lines posted through Notify.
	noticePrefix = "[Local API] "
)

// Sim implements host.Host over simulated state.
type Sim struct {
	player string
	store  waypoint.Repository
	mods   []host.ModInfo
	rng    *rand.Rand
	logger *logging.Logger

	present bool
	walking bool
	pos     host.Vec3
	heading float64
	world   host.WorldID
	screen  string
	ticks   uint64

	chatMu sync.Mutex
	chat   []string
}

// New creates a Sim from cfg. store may be nil, in which case there is
// never a minimap session. extra mods are listed after the game itself.
func New(cfg config.SimConfig, store waypoint.Repository, logger *logging.Logger, extra ...host.ModInfo) *Sim {
	if logger == nil {
		logger = logging.Discard()
	}
	mods := []host.ModInfo{{ID: "minecraft", Version: cfg.GameVersion}}
	mods = append(mods, extra...)

	world := cfg.InitialWorld
	if world == "" {
		world = "minecraft:overworld"
	}

	s := &Sim{
		player:  cfg.PlayerName,
		store:   store,
		mods:    mods,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // Not security sensitive
		logger:  logger.With("component", "sim"),
		present: true,
		walking: true,
		pos:     host.Vec3{X: 0.5, Y: 64, Z: 0.5},
		world:   host.WorldID(world),
	}
	s.enterWorld()
	return s
}

// Identity returns the banner identity for cfg.
func Identity(cfg config.SimConfig) host.Identity {
	return host.Identity{Application: Application, Version: cfg.GameVersion}
}

// Step advances the simulation by one tick.
func (s *Sim) Step() {
	s.ticks++
	if !s.present || !s.walking {
		return
	}
	if s.rng.Float64() < turnChance {
		s.heading = s.rng.Float64() * 2 * math.Pi
	}
	s.pos.X += walkSpeed * math.Cos(s.heading)
	s.pos.Z += walkSpeed * math.Sin(s.heading)
}

// Ticks returns the number of steps taken.
func (s *Sim) Ticks() uint64 {
	return s.ticks
}

// SetWalking starts or stops wandering.
func (s *Sim) SetWalking(on bool) {
	s.walking = on
}

// Notify implements host.Operator by posting msg to the chat log.
func (s *Sim) Notify(msg string) {
	s.logger.Info("operator notice", "message", msg)
	s.appendChat(noticePrefix + msg)
}

// ChatLog returns the retained chat lines, oldest first.
func (s *Sim) ChatLog() []string {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	return append([]string(nil), s.chat...)
}

func (s *Sim) appendChat(line string) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	s.chat = append(s.chat, line)
	if over := len(s.chat) - chatLogSize; over > 0 {
		s.chat = append(s.chat[:0], s.chat[over:]...)
	}
}

// PlayerPresent implements host.Host.
func (s *Sim) PlayerPresent() bool {
	return s.present
}

// Position implements host.Host.
func (s *Sim) Position() (host.Vec3, error) {
	if !s.present {
		return host.Vec3{}, host.ErrPlayerUnavailable
	}
	return s.pos, nil
}

// World implements host.Host.
func (s *Sim) World() (host.WorldID, error) {
	if !s.present {
		return "", host.ErrPlayerUnavailable
	}
	return s.world, nil
}

// Screen implements host.Host.
func (s *Sim) Screen() (string, bool) {
	return s.screen, s.screen != ""
}

// Mods implements host.Host.
func (s *Sim) Mods() []host.ModInfo {
	return append([]host.ModInfo(nil), s.mods...)
}

// SendChatMessage implements host.Host.
func (s *Sim) SendChatMessage(msg string) error {
	if !s.present {
		return host.ErrPlayerUnavailable
	}
	s.appendChat(fmt.Sprintf("<%s> %s", s.player, msg))
	return nil
}

// SendChatCommand implements host.Host. Unknown or malformed commands are
// reported in chat, as the game would, rather than returned as errors.
func (s *Sim) SendChatCommand(cmd string) error {
	if !s.present {
		// join is the only command available outside a world.
		if strings.TrimSpace(cmd) != "join" {
			return host.ErrPlayerUnavailable
		}
	}
	if reply := s.runCommand(strings.Fields(cmd)); reply != "" {
		s.appendChat(reply)
	}
	return nil
}

func (s *Sim) runCommand(args []string) string {
	if len(args) == 0 {
		return "Unknown command."
	}
	switch args[0] {
	case "tp":
		if len(args) != 4 {
			return "Usage: tp <x> <y> <z>"
		}
		var v [3]float64
		for i, a := range args[1:] {
			f, err := strconv.ParseFloat(a, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Sprintf("Invalid coordinate %q.", a)
			}
			v[i] = f
		}
		s.pos = host.Vec3{X: v[0], Y: v[1], Z: v[2]}
		return fmt.Sprintf("Teleported %s to %s", s.player, s.pos)
	case "world":
		if len(args) != 2 || !strings.Contains(args[1], ":") {
			return "Usage: world <namespace:path>"
		}
		s.world = host.WorldID(args[1])
		s.enterWorld()
		return ""
	case "leave":
		s.present = false
		s.screen = ""
		return ""
	case "join":
		s.present = true
		s.enterWorld()
		return ""
	case "screen":
		s.screen = strings.Join(args[1:], " ")
		return ""
	case "walk":
		if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
			return "Usage: walk on|off"
		}
		s.walking = args[1] == "on"
		return ""
	case "waypoint":
		if len(args) < 3 {
			return "Usage: waypoint <set> <name>"
		}
		return s.addWaypoint(args[1], strings.Join(args[2:], " "))
	default:
		return fmt.Sprintf("Unknown command: %s", args[0])
	}
}

func (s *Sim) addWaypoint(set, name string) string {
	if s.store == nil {
		return "No minimap installed."
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	wp := host.Waypoint{
		Name: name,
		X:    int(math.Floor(s.pos.X)),
		Y:    int(math.Floor(s.pos.Y)),
		Z:    int(math.Floor(s.pos.Z)),
	}
	if err := s.store.AddWaypoint(ctx, s.world.String(), set, wp); err != nil {
		s.logger.Warn("adding waypoint failed", "set", set, "error", err)
		return fmt.Sprintf("Could not add waypoint: %v", err)
	}
	return fmt.Sprintf("Added waypoint %s to %s", name, set)
}

// enterWorld prepares the minimap session for the current world.
func (s *Sim) enterWorld() {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.EnsureDefault(ctx, s.world.String()); err != nil {
		s.logger.Warn("preparing waypoint sets failed", "world", s.world, "error", err)
	}
}

// WaypointSets implements host.Host.
func (s *Sim) WaypointSets() ([]host.WaypointSet, error) {
	if s.store == nil || !s.present {
		return nil, host.ErrWaypointsUnavailable
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	sets, err := s.store.ListSets(ctx, s.world.String())
	if err != nil {
		return nil, fmt.Errorf("listing waypoint sets: %w", err)
	}
	return sets, nil
}

// CreateWaypointSet implements host.Host.
func (s *Sim) CreateWaypointSet(name string) (host.WaypointSet, error) {
	if s.store == nil || !s.present {
		return host.WaypointSet{}, host.ErrWaypointsUnavailable
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	set, err := s.store.CreateSet(ctx, s.world.String(), name)
	if err != nil {
		return host.WaypointSet{}, fmt.Errorf("creating waypoint set: %w", err)
	}
	return set, nil
}

var (
	_ host.Host     = (*Sim)(nil)
	_ host.Operator = (*Sim)(nil)
)
