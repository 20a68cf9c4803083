// Package gateway owns the lifecycle of the local API.
//
// A Gateway moves through Stopped → Starting → Running → Stopping →
// Stopped. Start binds the listener synchronously so a port conflict is
// reported to the caller and the operator instead of surfacing later in a
// goroutine. Stop closes every stream client, drains in-flight requests
// and clears the change detector so the next run starts fresh.
//
// The embedding application calls Tick once per simulation tick from its
// own thread. Tick runs queued host calls and then the change detector;
// it never blocks on network I/O.
package gateway
