package host

import "errors"

// Errors returned by Host implementations and executors.
var (
	// ErrPlayerUnavailable is returned when no player is in a world.
	ErrPlayerUnavailable = errors.New("host: player not available")

	// ErrWaypointsUnavailable is returned when the minimap has no active session.
	ErrWaypointsUnavailable = errors.New("host: no minimap session available")

	// ErrHostTimeout is returned when the tick thread did not run a queued
	// call within the executor's timeout.
	ErrHostTimeout = errors.New("host: call timed out")

	// ErrCallPanicked is returned when a queued call panicked on the tick thread.
	ErrCallPanicked = errors.New("host: call panicked")
)
