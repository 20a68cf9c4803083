package host

// Host is the state snapshot accessor. Implementations are only safe to
// call on the host's simulation thread; other goroutines go through an
// Executor.
type Host interface {
	// PlayerPresent reports whether a player is currently in a world.
	PlayerPresent() bool

	// Position returns the player's position.
	// Returns ErrPlayerUnavailable when no player is present.
	Position() (Vec3, error)

	// World returns the identifier of the player's world.
	// Returns ErrPlayerUnavailable when no player is present.
	World() (WorldID, error)

	// Screen returns the title of the open screen. ok is false when no
	// screen is open.
	Screen() (title string, ok bool)

	// Mods returns the installed extensions.
	Mods() []ModInfo

	// SendChatMessage posts msg to chat as the player.
	SendChatMessage(msg string) error

	// SendChatCommand runs cmd as the player. cmd has no leading slash.
	SendChatCommand(cmd string) error

	// WaypointSets returns the waypoint sets of the current minimap session.
	// Returns ErrWaypointsUnavailable when there is no session.
	WaypointSets() ([]WaypointSet, error)

	// CreateWaypointSet creates an empty set and returns it as the minimap
	// stored it. Returns ErrWaypointsUnavailable when there is no session.
	CreateWaypointSet(name string) (WaypointSet, error)
}

// Operator is the operator-visible channel (in-game chat, a console)
// used for lifecycle notices.
type Operator interface {
	Notify(msg string)
}

// OperatorFunc adapts a function to Operator.
type OperatorFunc func(msg string)

// Notify calls f(msg).
func (f OperatorFunc) Notify(msg string) {
	f(msg)
}
