package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/local-api-gateway/internal/audit"
)

// handleAudit returns the writes forwarded into the game, newest first.
//
// Query parameters:
//   - action: chat.message, chat.command or waypoint-set.create
//   - world: world identifier at the time of the write
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
//
// Unparsable limit and offset values fall back to their defaults.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.writeError(w, r, errNoAuditLog)
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		World:  q.Get("world"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
