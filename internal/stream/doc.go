// Package stream fans position and world events out to long-lived
// streaming clients.
//
// Hub owns the membership set. The tick thread broadcasts into it while
// request goroutines subscribe and unsubscribe. Every client has its own
// buffered send path: Send never blocks, and a client that cannot accept
// an event (closed, or its buffer is full) is removed and closed on the
// spot without affecting delivery to anyone else.
//
// Two transports share the Hub: Server-Sent Events (SSEClient) and
// WebSocket (WSClient). Both run their writer on the request goroutine
// that accepted them, so a broken peer surfaces there as a write error.
package stream
