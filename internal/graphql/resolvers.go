package graphql

import (
	"errors"

	"github.com/nerrad567/local-api-gateway/internal/endpoint"
	"github.com/nerrad567/local-api-gateway/internal/host"
)

// player is the Player object. Its fields read the host when resolved.
type player struct{}

// gated wraps next so it only runs while the named capability is enabled.
func gated(reg *endpoint.Registry, name string, next ResolverFunc) ResolverFunc {
	return func(p Params) (any, error) {
		if err := reg.Require(name); err != nil {
			return nil, err
		}
		return next(p)
	}
}

// gatedAny runs next while at least one of names is enabled.
func gatedAny(reg *endpoint.Registry, names []string, next ResolverFunc) ResolverFunc {
	return func(p Params) (any, error) {
		if err := reg.RequireAny(names...); err != nil {
			return nil, err
		}
		return next(p)
	}
}

// Resolvers returns the field resolvers for the schema, keyed
// "Type.field". Every one of them is gated through reg.
func Resolvers(reg *endpoint.Registry) map[string]ResolverFunc {
	r := map[string]ResolverFunc{
		"Query.player": gatedAny(reg, []string{endpoint.PlayerPosition, endpoint.PlayerWorld}, resolvePlayer),

		"Player.position": gated(reg, endpoint.PlayerPosition, resolvePlayerPosition),
		"Player.world":    gated(reg, endpoint.PlayerWorld, resolvePlayerWorld),

		"Query.screen": gated(reg, endpoint.Screen, resolveScreen),

		"Query.mods":  gated(reg, endpoint.Mods, resolveMods),
		"Mod.id":      gated(reg, endpoint.Mods, modField(func(m host.ModInfo) any { return m.ID })),
		"Mod.version": gated(reg, endpoint.Mods, modField(func(m host.ModInfo) any { return m.Version })),

		"Query.xaeroWaypointSets":         gated(reg, endpoint.XaeroWaypointSets, resolveWaypointSets),
		"Mutation.createXaeroWaypointSet": gated(reg, endpoint.XaeroWaypointSets, resolveCreateWaypointSet),
		"WaypointSet.name":                gated(reg, endpoint.XaeroWaypointSets, setField(func(s host.WaypointSet) any { return s.Name })),
		"WaypointSet.waypoints":           gated(reg, endpoint.XaeroWaypointSets, setField(waypointsOf)),

		"Mutation.sendChatCommand": gated(reg, endpoint.ChatCommands, resolveSendChatCommand),
		"Mutation.sendChatMessage": gated(reg, endpoint.ChatMessages, resolveSendChatMessage),
	}

	waypointFields := map[string]func(host.Waypoint) any{
		"name":     func(w host.Waypoint) any { return w.Name },
		"initials": func(w host.Waypoint) any { return w.Initials },
		"x":        func(w host.Waypoint) any { return w.X },
		"y":        func(w host.Waypoint) any { return w.Y },
		"z":        func(w host.Waypoint) any { return w.Z },
		"color":    func(w host.Waypoint) any { return w.Color },
		"disabled": func(w host.Waypoint) any { return w.Disabled },
	}
	for name, get := range waypointFields {
		r["Waypoint."+name] = gated(reg, endpoint.XaeroWaypointSets, waypointField(get))
	}

	return r
}

func resolvePlayer(p Params) (any, error) {
	if !p.Host.PlayerPresent() {
		return nil, nil
	}
	return player{}, nil
}

func resolvePlayerPosition(p Params) (any, error) {
	pos, err := p.Host.Position()
	if errors.Is(err, host.ErrPlayerUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pos.String(), nil
}

func resolvePlayerWorld(p Params) (any, error) {
	world, err := p.Host.World()
	if errors.Is(err, host.ErrPlayerUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return world.String(), nil
}

func resolveScreen(p Params) (any, error) {
	title, ok := p.Host.Screen()
	if !ok {
		return nil, nil
	}
	return title, nil
}

func resolveMods(p Params) (any, error) {
	mods := p.Host.Mods()
	if mods == nil {
		mods = []host.ModInfo{}
	}
	return mods, nil
}

func resolveWaypointSets(p Params) (any, error) {
	sets, err := p.Host.WaypointSets()
	if err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []host.WaypointSet{}
	}
	return sets, nil
}

func resolveCreateWaypointSet(p Params) (any, error) {
	name, _ := p.Args["name"].(string)
	if name == "" {
		return nil, badInput("Set name cannot be empty")
	}
	set, err := p.Host.CreateWaypointSet(name)
	if err != nil {
		return nil, err
	}
	return set, nil
}

func resolveSendChatCommand(p Params) (any, error) {
	command, _ := p.Args["command"].(string)
	if command == "" {
		return nil, badInput("Command cannot be empty")
	}
	if err := p.Host.SendChatCommand(command); err != nil {
		return nil, err
	}
	return true, nil
}

func resolveSendChatMessage(p Params) (any, error) {
	message, _ := p.Args["message"].(string)
	if message == "" {
		return nil, badInput("Message cannot be empty")
	}
	if err := p.Host.SendChatMessage(message); err != nil {
		return nil, err
	}
	return true, nil
}

func waypointsOf(s host.WaypointSet) any {
	if s.Waypoints == nil {
		return []host.Waypoint{}
	}
	return s.Waypoints
}

func modField(get func(host.ModInfo) any) ResolverFunc {
	return func(p Params) (any, error) {
		m, ok := p.Source.(host.ModInfo)
		if !ok {
			return nil, nil
		}
		return get(m), nil
	}
}

func setField(get func(host.WaypointSet) any) ResolverFunc {
	return func(p Params) (any, error) {
		s, ok := p.Source.(host.WaypointSet)
		if !ok {
			return nil, nil
		}
		return get(s), nil
	}
}

func waypointField(get func(host.Waypoint) any) ResolverFunc {
	return func(p Params) (any, error) {
		w, ok := p.Source.(host.Waypoint)
		if !ok {
			return nil, nil
		}
		return get(w), nil
	}
}
