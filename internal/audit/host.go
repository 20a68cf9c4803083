package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
)

const (
	// queueSize bounds the entries waiting for the writer goroutine.
	queueSize = 256

	// recordTimeout bounds a single audit insert.
	recordTimeout = time.Second
)

// Host decorates a host.Host, recording every write it performs. Reads
// pass straight through. Writes run on the tick thread, so entries are
// built there and inserted by a background writer; a full queue drops
// entries rather than stalling the tick.
type Host struct {
	host.Host
	repo   Repository
	logger *logging.Logger

	mu      sync.Mutex
	entries chan *Log
	done    chan struct{}
	dropped atomic.Uint64
}

var _ host.Host = (*Host)(nil)

// Wrap returns h with its writes recorded in repo. Call Close to flush
// pending entries once the tick loop has stopped.
func Wrap(h host.Host, repo Repository, logger *logging.Logger) *Host {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &Host{
		Host:    h,
		repo:    repo,
		logger:  logger.With("component", "audit"),
		entries: make(chan *Log, queueSize),
		done:    make(chan struct{}),
	}
	go a.run(a.entries, a.done)
	return a
}

// SendChatMessage implements host.Host.
func (a *Host) SendChatMessage(msg string) error {
	err := a.Host.SendChatMessage(msg)
	a.record(ActionChatMessage, map[string]any{"message": msg}, err)
	return err
}

// SendChatCommand implements host.Host.
func (a *Host) SendChatCommand(cmd string) error {
	err := a.Host.SendChatCommand(cmd)
	a.record(ActionChatCommand, map[string]any{"command": cmd}, err)
	return err
}

// CreateWaypointSet implements host.Host.
func (a *Host) CreateWaypointSet(name string) (host.WaypointSet, error) {
	set, err := a.Host.CreateWaypointSet(name)
	a.record(ActionWaypointCreate, map[string]any{"name": name}, err)
	return set, err
}

// Close stops accepting entries, writes those already queued and waits
// for the writer to exit. Writes made after Close are not recorded.
func (a *Host) Close() error {
	a.mu.Lock()
	entries, done := a.entries, a.done
	a.entries = nil
	a.mu.Unlock()

	if entries == nil {
		return nil
	}
	close(entries)
	<-done
	return nil
}

// Dropped returns the number of entries discarded because the queue was full.
func (a *Host) Dropped() uint64 {
	return a.dropped.Load()
}

// record builds the entry on the caller's goroutine, where reading the
// world is safe, and queues it for the writer.
func (a *Host) record(action string, details map[string]any, writeErr error) {
	entry := &Log{Action: action, Details: details, CreatedAt: time.Now()}
	if world, err := a.Host.World(); err == nil {
		entry.World = world.String()
	}
	if writeErr != nil {
		entry.Error = writeErr.Error()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.entries == nil {
		return
	}
	select {
	case a.entries <- entry:
	default:
		if n := a.dropped.Add(1); n == 1 || n%100 == 0 {
			a.logger.Warn("audit queue full, dropping entries", "action", action, "dropped", n)
		}
	}
}

// run inserts entries until the queue is closed. A failed insert is
// logged and never surfaces to the caller of the write.
func (a *Host) run(entries <-chan *Log, done chan<- struct{}) {
	defer close(done)
	for entry := range entries {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := a.repo.Create(ctx, entry); err != nil {
			a.logger.Warn("recording audit log failed", "action", entry.Action, "error", err)
		}
		cancel()
	}
}
