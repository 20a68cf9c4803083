package config

import (
	"fmt"
	"sync/atomic"
)

// Store holds the live configuration and swaps it atomically on reload.
// Readers on any goroutine see either the old or the new Config, never a
// partially applied one. A Config obtained from Current must be treated
// as read-only.
type Store struct {
	path    string
	current atomic.Pointer[Config]
}

// NewStore wraps an already loaded configuration. path is the file that
// Reload re-reads; an empty path makes Reload fail.
func NewStore(path string, cfg *Config) *Store {
	s := &Store{path: path}
	s.current.Store(cfg)
	return s
}

// Current returns the active configuration.
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Path returns the file the store reloads from.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the config file. On any error the previous
// configuration stays active.
func (s *Store) Reload() (*Config, error) {
	if s.path == "" {
		return nil, fmt.Errorf("reloading config: no config file")
	}
	cfg, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	s.current.Store(cfg)
	return cfg, nil
}

// Replace swaps in cfg after validating it.
func (s *Store) Replace(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	s.current.Store(cfg)
	return nil
}

// EndpointEnabled reports the flag for name in the active configuration.
// Unknown names are reported as disabled.
func (s *Store) EndpointEnabled(name string) bool {
	return s.Current().Endpoints[name]
}

// Clone returns a deep copy of c, so tests and callers of Replace can edit
// a config without touching the one readers currently see.
func (c *Config) Clone() *Config {
	out := *c
	out.Endpoints = make(EndpointsConfig, len(c.Endpoints))
	for k, v := range c.Endpoints {
		out.Endpoints[k] = v
	}
	return &out
}
