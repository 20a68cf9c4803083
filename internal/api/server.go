package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/local-api-gateway/internal/audit"
	"github.com/nerrad567/local-api-gateway/internal/endpoint"
	"github.com/nerrad567/local-api-gateway/internal/graphql"
	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/local-api-gateway/internal/stream"
)

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   *config.Store
	Logger   *logging.Logger
	Registry *endpoint.Registry
	Hosts    host.Executor
	Hub      *stream.Hub
	GraphQL  *graphql.Executor
	Metrics  *Metrics // If nil, the server creates its own
	Audit    AuditLog // optional
	Identity host.Identity
	Version  string
}

// AuditLog reads the record of writes forwarded into the host.
// *audit.SQLiteRepository satisfies it.
type AuditLog interface {
	List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error)
}

// Server is the HTTP server of one gateway run.
//
// The router is built once in New from the configuration current at that
// time (CORS, gzip, timeouts). Endpoint flags and stream settings are
// read per request. A Server serves one listener; after Close, create a
// new one.
type Server struct {
	cfg      *config.Store
	logger   *logging.Logger
	registry *endpoint.Registry
	hosts    host.Executor
	hub      *stream.Hub
	graphql  *graphql.Handler
	metrics  *Metrics
	audit    AuditLog
	identity host.Identity
	version  string

	handler http.Handler
	server  *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Serve() is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("config store is required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Registry == nil:
		return nil, fmt.Errorf("endpoint registry is required")
	case deps.Hosts == nil:
		return nil, fmt.Errorf("host executor is required")
	case deps.Hub == nil:
		return nil, fmt.Errorf("stream hub is required")
	case deps.GraphQL == nil:
		return nil, fmt.Errorf("graphql executor is required")
	}

	logger := deps.Logger.With("component", "api")
	s := &Server{
		cfg:      deps.Config,
		logger:   logger,
		registry: deps.Registry,
		hosts:    deps.Hosts,
		hub:      deps.Hub,
		graphql:  graphql.NewHandler(deps.GraphQL, logger),
		metrics:  deps.Metrics,
		audit:    deps.Audit,
		identity: deps.Identity,
		version:  deps.Version,
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(deps.Hub)
	}

	cfg := deps.Config.Current()
	s.handler = s.buildRouter(cfg.Gateway)
	s.server = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       cfg.GetReadTimeout(),
		ReadHeaderTimeout: cfg.GetReadTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
		IdleTimeout:       cfg.GetIdleTimeout(),
	}
	return s, nil
}

// Handler returns the router. Useful for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on ln until Close. It always returns a
// non-nil error; http.ErrServerClosed after a clean Close.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("API server listening", "address", ln.Addr().String())
	err := s.server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("API server error", "error", err)
	}
	return err
}

// Close gracefully shuts down the server, waiting up to timeout for
// in-flight requests before severing the remaining connections. Stream
// handlers return as soon as their clients are closed, so close the hub
// first.
func (s *Server) Close(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		//nolint:errcheck // Best-effort hard close after the graceful window
		s.server.Close()
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// ServerHeader is the value of the Server response header.
func (s *Server) ServerHeader() string {
	return fmt.Sprintf("Local API v%s, %s %s", s.version, s.identity.Application, s.identity.Version)
}

// Banner is the body of GET /.
func (s *Server) Banner() string {
	return fmt.Sprintf("Local API v%s running on %s %s", s.version, s.identity.Application, s.identity.Version)
}
