package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/nerrad567/local-api-gateway/internal/api"
	"github.com/nerrad567/local-api-gateway/internal/endpoint"
	"github.com/nerrad567/local-api-gateway/internal/graphql"
	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/local-api-gateway/internal/stream"
	"github.com/nerrad567/local-api-gateway/internal/tracker"
)

// Lifecycle errors.
var (
	ErrAlreadyRunning = errors.New("gateway: already running")
	ErrNotRunning     = errors.New("gateway: not running")
	ErrBusy           = errors.New("gateway: start or stop already in progress")
	ErrBind           = errors.New("gateway: cannot bind listener")
	ErrBindConflict   = errors.New("gateway: port already in use")
)

// queueSize bounds the host calls waiting for the next tick.
const queueSize = 256

// State is the lifecycle state.
type State int32

// Lifecycle states.
const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Service runs alongside the HTTP server: started after the listener is
// bound and stopped after the server has drained.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

// Deps holds the dependencies of a Gateway.
type Deps struct {
	Config   *config.Store
	Logger   *logging.Logger
	Operator host.Operator // optional
	Identity host.Identity
	Version  string
	Audit    api.AuditLog // optional; serves /audit

	// Observers see every change the detector emits.
	Observers []tracker.Observer
}

// Gateway is the lifecycle manager. Start, Stop, State and Addr are safe
// for concurrent use; Tick must only be called from the host thread.
type Gateway struct {
	cfg      *config.Store
	base     *logging.Logger
	logger   *logging.Logger
	operator host.Operator
	identity host.Identity
	version  string
	audit    api.AuditLog

	registry *endpoint.Registry
	queue    *host.Queue
	hub      *stream.Hub
	detector *tracker.Detector
	graphql  *graphql.Executor
	metrics  *api.Metrics
	services []Service

	// lifecycle serialises Start and Stop.
	lifecycle sync.Mutex
	state     atomic.Int32

	// resetPending asks the tick thread to clear the detector, which only
	// that thread may touch.
	resetPending atomic.Bool

	addr atomic.Value // string

	// Guarded by lifecycle.
	server    *api.Server
	serveDone chan struct{}
	cancel    context.CancelFunc
}

// New creates a stopped Gateway.
func New(deps Deps) (*Gateway, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config store is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Operator == nil {
		deps.Operator = host.OperatorFunc(func(string) {})
	}

	cfg := deps.Config.Current()
	g := &Gateway{
		cfg:      deps.Config,
		base:     deps.Logger,
		logger:   deps.Logger.With("component", "gateway"),
		operator: deps.Operator,
		identity: deps.Identity,
		version:  deps.Version,
		audit:    deps.Audit,
		registry: endpoint.NewRegistry(deps.Config),
		queue:    host.NewQueue(queueSize, cfg.GetHostCallTimeout()),
		hub:      stream.NewHub(deps.Logger),
	}
	g.detector = tracker.New(g.hub, func() config.StreamConfig {
		return g.cfg.Current().Stream
	}, deps.Logger, deps.Observers...)

	exec, err := graphql.New(g.registry, g.queue)
	if err != nil {
		return nil, fmt.Errorf("building graphql executor: %w", err)
	}
	g.graphql = exec
	g.metrics = api.NewMetrics(g.hub)

	return g, nil
}

// AddService registers s to run with the server. Call before Start.
func (g *Gateway) AddService(s Service) {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()
	g.services = append(g.services, s)
}

// Registry returns the endpoint registry backed by the live configuration.
func (g *Gateway) Registry() *endpoint.Registry {
	return g.registry
}

// Executor returns the executor that runs calls on the host thread.
func (g *Gateway) Executor() host.Executor {
	return g.queue
}

// Hub returns the stream hub.
func (g *Gateway) Hub() *stream.Hub {
	return g.hub
}

// Metrics returns the Prometheus collectors served at /metrics.
func (g *Gateway) Metrics() *api.Metrics {
	return g.metrics
}

// State returns the current lifecycle state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// Addr returns the bound listener address, or "" when not running.
func (g *Gateway) Addr() string {
	if g.State() != Running {
		return ""
	}
	addr, _ := g.addr.Load().(string)
	return addr
}

// Start binds the configured address and starts serving. It fails with
// ErrAlreadyRunning when running and with an ErrBind error when the
// listener cannot be bound; in both cases the operator is told and the
// state is unchanged (Running, respectively Stopped).
func (g *Gateway) Start(ctx context.Context) error {
	if !g.lifecycle.TryLock() {
		return ErrBusy
	}
	defer g.lifecycle.Unlock()

	if g.State() != Stopped {
		g.operator.Notify("Local API is already running.")
		return ErrAlreadyRunning
	}
	g.state.Store(int32(Starting))

	cfg := g.cfg.Current()
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		g.state.Store(int32(Stopped))
		err = bindError(cfg.Addr(), err)
		g.logger.Error("failed to start local API", "address", cfg.Addr(), "error", err)
		if errors.Is(err, ErrBindConflict) {
			g.operator.Notify(fmt.Sprintf("Local API could not start: port %d is already in use.", cfg.Gateway.Port))
		} else {
			g.operator.Notify(fmt.Sprintf("Local API could not start: %v", err))
		}
		return err
	}

	server, err := api.New(api.Deps{
		Config:   g.cfg,
		Logger:   g.base,
		Registry: g.registry,
		Hosts:    g.queue,
		Hub:      g.hub,
		GraphQL:  g.graphql,
		Metrics:  g.metrics,
		Audit:    g.audit,
		Identity: g.identity,
		Version:  g.version,
	})
	if err != nil {
		ln.Close()
		g.state.Store(int32(Stopped))
		return fmt.Errorf("creating API server: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g.cancel = cancel
	g.resetPending.Store(true)
	g.hub.Open()

	for _, s := range g.services {
		if err := s.Start(runCtx); err != nil {
			// Services are auxiliary; the gateway runs without them.
			g.logger.Warn("service failed to start", "service", s.Name(), "error", err)
		}
	}

	addr := ln.Addr().String()
	g.server = server
	g.addr.Store(addr)
	g.serveDone = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		//nolint:errcheck // Serve logs unexpected errors itself
		server.Serve(ln)
	}(g.serveDone)

	g.state.Store(int32(Running))
	g.logger.Info("local API started", "address", addr)
	g.operator.Notify(fmt.Sprintf("Local API started on http://%s", addr))
	return nil
}

// Stop closes every stream, shuts the server down and clears the change
// detector. It fails with ErrNotRunning when stopped.
func (g *Gateway) Stop() error {
	if !g.lifecycle.TryLock() {
		return ErrBusy
	}
	defer g.lifecycle.Unlock()

	if g.State() != Running {
		g.operator.Notify("Local API is not running.")
		return ErrNotRunning
	}
	g.state.Store(int32(Stopping))

	closed := g.hub.Shutdown()
	err := g.server.Close(g.cfg.Current().GetShutdownTimeout())
	<-g.serveDone

	for i := len(g.services) - 1; i >= 0; i-- {
		if serr := g.services[i].Stop(); serr != nil {
			g.logger.Warn("service failed to stop", "service", g.services[i].Name(), "error", serr)
		}
	}
	g.cancel()

	g.resetPending.Store(true)
	g.server = nil
	g.addr.Store("")
	g.state.Store(int32(Stopped))

	g.logger.Info("local API stopped", "streams_closed", closed)
	g.operator.Notify("Local API stopped.")
	return err
}

// Tick is the per-tick entry point. It runs the host calls queued by
// request goroutines and, while running, the change detector.
func (g *Gateway) Tick(h host.Host) {
	if g.resetPending.CompareAndSwap(true, false) {
		g.detector.Reset()
	}
	g.queue.RunPending(h)
	if g.State() == Running {
		g.detector.Tick(h)
	}
}

func bindError(addr string, err error) error {
	wrapped := fmt.Errorf("%w %s: %w", ErrBind, addr, err)
	if errors.Is(err, syscall.EADDRINUSE) {
		return fmt.Errorf("%w: %w", ErrBindConflict, wrapped)
	}
	return wrapped
}
