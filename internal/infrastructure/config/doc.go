// Package config handles loading and validating the gateway configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of ports, thresholds and endpoint names
//   - Live reload through Store
//
// Endpoint flags are read on every request through Store.EndpointEnabled,
// so a reload takes effect without restarting the gateway.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := config.NewStore("configs/config.yaml", cfg)
//	if store.EndpointEnabled("player.position") { ... }
package config
