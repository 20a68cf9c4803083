// Package endpoint gates every gateway capability behind a per-name flag.
//
// The REST router and every GraphQL field resolver ask the same Registry,
// so turning a capability off makes it unreachable through any path.
// Flags are read from the live configuration on every call.
package endpoint

import (
	"errors"
	"fmt"
	"strings"
)

// Capability names. Each gated route or resolver maps to exactly one.
const (
	PlayerPosition       = "player.position"
	PlayerWorld          = "player.world"
	PlayerPositionStream = "player.position.stream"
	Screen               = "screen"
	Mods                 = "mods"
	ChatMessages         = "chat.messages"
	ChatCommands         = "chat.commands"
	XaeroWaypointSets    = "xaero.waypoint-sets"
	GraphQL              = "graphql"
	GraphiQL             = "graphiql"
	Metrics              = "metrics"
	Audit                = "audit"
)

// DisabledMessage is the body returned by REST handlers for a disabled capability.
const DisabledMessage = "This endpoint is disabled in the user's configuration."

// ErrDisabled is wrapped by every DisabledError.
var ErrDisabled = errors.New("endpoint: disabled")

// DisabledError reports which capabilities were off.
type DisabledError struct {
	Names []string
}

func (e *DisabledError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("Endpoint %s is disabled in the user's configuration", e.Names[0])
	}
	return fmt.Sprintf("Endpoints %s are disabled in the user's configuration", strings.Join(e.Names, " and "))
}

func (e *DisabledError) Unwrap() error {
	return ErrDisabled
}

// Names returns every capability name.
func Names() []string {
	return []string{
		PlayerPosition, PlayerWorld, PlayerPositionStream, Screen, Mods,
		ChatMessages, ChatCommands, XaeroWaypointSets, GraphQL, GraphiQL, Metrics,
		Audit,
	}
}

// Source supplies the current flag value for a capability.
// config.Store satisfies it.
type Source interface {
	EndpointEnabled(name string) bool
}

// Static is a fixed flag set, mainly for tests. Missing names are disabled.
type Static map[string]bool

// EndpointEnabled reports s[name].
func (s Static) EndpointEnabled(name string) bool {
	return s[name]
}

// AllEnabled returns a Static with every capability on.
func AllEnabled() Static {
	s := make(Static)
	for _, n := range Names() {
		s[n] = true
	}
	return s
}

// Registry answers whether a capability is enabled. Safe for concurrent use
// as long as its Source is.
type Registry struct {
	src Source
}

// NewRegistry creates a Registry reading flags from src.
func NewRegistry(src Source) *Registry {
	return &Registry{src: src}
}

// IsEnabled reports whether name is enabled. Unknown names are disabled.
func (r *Registry) IsEnabled(name string) bool {
	return r.src.EndpointEnabled(name)
}

// Require returns a *DisabledError when name is disabled.
func (r *Registry) Require(name string) error {
	if r.IsEnabled(name) {
		return nil
	}
	return &DisabledError{Names: []string{name}}
}

// RequireAny returns nil if at least one of names is enabled, otherwise a
// *DisabledError listing all of them.
func (r *Registry) RequireAny(names ...string) error {
	for _, n := range names {
		if r.IsEnabled(n) {
			return nil
		}
	}
	return &DisabledError{Names: append([]string(nil), names...)}
}
