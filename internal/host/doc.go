// Package host defines the narrow boundary between the gateway and the
// application it is embedded in.
//
// Host is the state snapshot accessor: reads of player position, world,
// screen, installed mods and waypoint sets, plus the three writes the
// gateway forwards (chat message, chat command, waypoint set creation).
// Host implementations are only safe on the host's simulation thread.
//
// Request goroutines never call a Host directly. They go through an
// Executor; Queue hands each call to the tick thread, which runs it from
// RunPending at the start of its next tick:
//
//	q := host.NewQueue(256, 5*time.Second)
//	err := q.Do(ctx, func(h host.Host) error {
//	    pos, err = h.Position()
//	    return err
//	})
//
//	// on the tick thread, once per tick
//	q.RunPending(h)
package host
