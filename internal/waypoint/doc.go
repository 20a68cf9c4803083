// Package waypoint stores minimap waypoint sets in SQLite. It is the
// minimap collaborator behind the simulated host: sets belong to a world,
// creating a set that already exists returns the existing one, and every
// world starts with the default set.
package waypoint
