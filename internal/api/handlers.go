package api

import (
	"io"
	"net/http"

	"github.com/nerrad567/local-api-gateway/internal/host"
)

// handleRoot writes the plain text banner.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, s.Banner())
}

// handlePosition returns the player's position as "x, y, z".
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var pos host.Vec3
	err := s.hosts.Do(r.Context(), func(h host.Host) error {
		var err error
		pos, err = h.Position()
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, pos.String())
}

// handleWorld returns the player's world identifier.
func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	var world host.WorldID
	err := s.hosts.Do(r.Context(), func(h host.Host) error {
		var err error
		world, err = h.World()
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, world.String())
}

// handleScreen returns the open screen's title, or 204 with no screen open.
// An absent player is a 503 like every other host read.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var (
		title string
		open  bool
	)
	err := s.hosts.Do(r.Context(), func(h host.Host) error {
		if !h.PlayerPresent() {
			return host.ErrPlayerUnavailable
		}
		title, open = h.Screen()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !open {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeText(w, http.StatusOK, title)
}

// handleMods returns the installed mods as a JSON object id → version.
func (s *Server) handleMods(w http.ResponseWriter, r *http.Request) {
	var mods []host.ModInfo
	err := s.hosts.Do(r.Context(), func(h host.Host) error {
		mods = h.Mods()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make(map[string]string, len(mods))
	for _, m := range mods {
		out[m.ID] = m.Version
	}
	writeJSON(w, http.StatusOK, out)
}

// handleChatMessage posts the request body to chat as the player.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	s.handleChat(w, r, "Message cannot be empty.", host.Host.SendChatMessage)
}

// handleChatCommand runs the request body as a command.
func (s *Server) handleChatCommand(w http.ResponseWriter, r *http.Request) {
	s.handleChat(w, r, "Command cannot be empty.", host.Host.SendChatCommand)
}

// handleChat forwards the body verbatim through send. Only an empty body
// is rejected; whitespace is forwarded as is. Player presence is checked
// before the body so an absent player is always a 503.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, emptyMsg string, send func(host.Host, string) error) {
	text, err := readText(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	err = s.hosts.Do(r.Context(), func(h host.Host) error {
		if !h.PlayerPresent() {
			return host.ErrPlayerUnavailable
		}
		if text == "" {
			return errBadRequest(emptyMsg)
		}
		return send(h, text)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleListWaypointSets returns the minimap's waypoint sets.
func (s *Server) handleListWaypointSets(w http.ResponseWriter, r *http.Request) {
	var sets []host.WaypointSet
	err := s.hosts.Do(r.Context(), func(h host.Host) error {
		var err error
		sets, err = h.WaypointSets()
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sets == nil {
		sets = []host.WaypointSet{}
	}
	writeJSON(w, http.StatusOK, sets)
}

// handleCreateWaypointSet creates a set named by the request body and
// returns it as the minimap stored it.
func (s *Server) handleCreateWaypointSet(w http.ResponseWriter, r *http.Request) {
	name, err := readText(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var set host.WaypointSet
	err = s.hosts.Do(r.Context(), func(h host.Host) error {
		if name == "" {
			return errBadRequest("Set name cannot be empty.")
		}
		var err error
		set, err = h.CreateWaypointSet(name)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if set.Waypoints == nil {
		set.Waypoints = []host.Waypoint{}
	}
	writeJSON(w, http.StatusOK, set)
}

// readText reads the whole request body as text.
func readText(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

