// Package api implements the HTTP surface of the local API gateway.
//
// This package provides:
//   - REST endpoints for player position, world, screen, mods, chat and
//     waypoint sets
//   - The position stream as Server-Sent Events and over WebSocket
//   - The GraphQL endpoint and its GraphiQL explorer
//   - Prometheus metrics
//   - Middleware stack (request ID, logging, recovery, Server header, CORS, gzip)
//
// # Gating
//
// Every route except the root banner sits behind the endpoint registry.
// A disabled capability answers 403 with a fixed text body. The check runs
// on every request, so configuration reloads take effect immediately.
//
// # Host access
//
// Handlers never touch host state directly. Every read and write is a
// closure run through a host.Executor, which marshals it onto the host's
// tick thread and bounds the wait.
package api
