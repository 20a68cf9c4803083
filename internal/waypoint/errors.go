package waypoint

import "errors"

var (
	// ErrEmptyName is returned when a set or waypoint name is blank.
	ErrEmptyName = errors.New("waypoint: name cannot be empty")

	// ErrSetNotFound is returned when adding to a set that does not exist.
	ErrSetNotFound = errors.New("waypoint: set not found")
)
