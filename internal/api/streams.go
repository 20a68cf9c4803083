package api

import (
	"net/http"

	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/stream"
)

// subscribe checks the player and registers c on the host thread, with
// the current position as the initial event. Running both in one host
// call means no tick-driven event can reach c before the initial one.
func (s *Server) subscribe(r *http.Request, c stream.Client) error {
	return s.hosts.Do(r.Context(), func(h host.Host) error {
		pos, err := h.Position()
		if err != nil {
			return err
		}
		return s.hub.Subscribe(c, stream.Event{Name: stream.EventPosition, Data: pos.String()})
	})
}

// handlePositionStream serves the position stream as Server-Sent Events.
func (s *Server) handlePositionStream(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.Current()
	client := stream.NewSSEClient(w, cfg.Stream.SendBuffer)

	if err := s.subscribe(r, client); err != nil {
		client.Close()
		s.writeError(w, r, err)
		return
	}
	defer s.hub.Unsubscribe(client)

	if err := client.Run(r.Context(), cfg.GetKeepAliveInterval()); err != nil {
		s.logger.Debug("position stream ended", "client_id", client.ID(), "error", err)
	}
}

// handlePositionWS serves the same stream over a WebSocket.
func (s *Server) handlePositionWS(w http.ResponseWriter, r *http.Request) {
	client := stream.NewWSClient(s.cfg.Current().Stream.SendBuffer)

	if err := s.subscribe(r, client); err != nil {
		client.Close()
		s.writeError(w, r, err)
		return
	}
	defer s.hub.Unsubscribe(client)

	if err := client.Upgrade(w, r); err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	if err := client.Run(r.Context()); err != nil {
		s.logger.Debug("position websocket ended", "client_id", client.ID(), "error", err)
	}
}
