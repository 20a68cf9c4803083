// Package logging provides structured logging for the local API gateway.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same default fields (service, version).
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("gateway started", "addr", "127.0.0.1:25566")
//	logger.With("component", "stream").Debug("client evicted", "client_id", id)
//
// Chat message bodies are player content and are never logged.
package logging
