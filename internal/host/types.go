package host

import (
	"math"
	"strconv"
)

// Vec3 is a position in world coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// String formats the position as "x, y, z" using the shortest
// representation of each coordinate.
func (v Vec3) String() string {
	return formatCoord(v.X) + ", " + formatCoord(v.Y) + ", " + formatCoord(v.Z)
}

// DistanceTo returns the Euclidean distance between v and o.
func (v Vec3) DistanceTo(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WorldID identifies a world as "namespace:path", for example
// "minecraft:the_nether". Two WorldIDs with the same value name the same
// world.
type WorldID string

// String returns the identifier text.
func (w WorldID) String() string {
	return string(w)
}

// ModInfo describes one installed extension.
type ModInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Waypoint is a single minimap waypoint.
type Waypoint struct {
	Name     string `json:"name"`
	Initials string `json:"initials"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
	Color    int    `json:"color"`
	Disabled bool   `json:"disabled"`
}

// WaypointSet is a named group of waypoints owned by the minimap.
type WaypointSet struct {
	Name      string     `json:"name"`
	Waypoints []Waypoint `json:"waypoints"`
}

// Identity names the embedding application for banners and the Server header.
type Identity struct {
	// Application is the host application's display name.
	Application string
	// Version is the host application's version.
	Version string
}
