package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/local-api-gateway/internal/endpoint"
	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/stream"
)

// Response bodies for the error statuses. All are text/plain.
const (
	MsgPlayerUnavailable = "Player not available."
	MsgNoMinimapSession  = "No minimap session available."
	MsgHostTimeout       = "Host did not respond in time."
	MsgStopping          = "Gateway is stopping."
	MsgNotFound          = "Not found."
	MsgMethodNotAllowed  = "Method not allowed."
	MsgInternal          = "Internal server error."
	MsgBodyTooLarge      = "Request body too large."
	MsgNoAuditLog        = "Audit log not available."
)

// errNoAuditLog is returned when the server runs without an audit log.
var errNoAuditLog = errors.New("api: audit log not configured")

// badRequest is a request rejected before reaching the host.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func errBadRequest(msg string) error {
	return &badRequest{msg: msg}
}

// statusFor maps an error to its status code and client-facing body.
// ok is false for unexpected errors, which callers should log.
func statusFor(err error) (status int, msg string, ok bool) {
	var (
		bad    *badRequest
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.Is(err, endpoint.ErrDisabled):
		return http.StatusForbidden, endpoint.DisabledMessage, true
	case errors.As(err, &bad):
		return http.StatusBadRequest, bad.msg, true
	case errors.As(err, &tooBig):
		return http.StatusBadRequest, MsgBodyTooLarge, true
	case errors.Is(err, host.ErrPlayerUnavailable):
		return http.StatusServiceUnavailable, MsgPlayerUnavailable, true
	case errors.Is(err, host.ErrWaypointsUnavailable):
		return http.StatusServiceUnavailable, MsgNoMinimapSession, true
	case errors.Is(err, host.ErrHostTimeout):
		return http.StatusServiceUnavailable, MsgHostTimeout, true
	case errors.Is(err, errNoAuditLog):
		return http.StatusServiceUnavailable, MsgNoAuditLog, true
	case errors.Is(err, stream.ErrHubClosed):
		return http.StatusServiceUnavailable, MsgStopping, true
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, MsgHostTimeout, true
	default:
		return http.StatusInternalServerError, MsgInternal, false
	}
}

// writeError maps err to a text response and logs unexpected errors.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg, ok := statusFor(err)
	if !ok {
		s.logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}
	writeText(w, status, msg)
}

// writeText writes a plain text response.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if body != "" {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		w.Write([]byte(body))
	}
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}
