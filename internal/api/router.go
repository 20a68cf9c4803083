package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nerrad567/local-api-gateway/internal/endpoint"
	"github.com/nerrad567/local-api-gateway/internal/explorer"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
)

// Route paths.
const (
	routeRoot           = "/"
	routePosition       = "/player/position"
	routeWorld          = "/player/world"
	routePositionStream = "/player/position/stream"
	routePositionWS     = "/player/position/ws"
	routeScreen         = "/screen"
	routeMods           = "/mods"
	routeChatMessages   = "/chat/messages"
	routeChatCommands   = "/chat/commands"
	routeWaypointSets   = "/xaero/waypoint-sets"
	routeGraphQL        = "/graphql"
	routeGraphiQL       = "/graphiql"
	routeMetrics        = "/metrics"
	routeAudit          = "/audit"
)

func isStreamRoute(route string) bool {
	return route == routePositionStream || route == routePositionWS
}

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter(gw config.GatewayConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(middleware.SetHeader("Server", s.ServerHeader()))
	if gw.CORS {
		r.Use(s.corsMiddleware)
	}
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusNotFound, MsgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	})

	// Streams stay uncompressed so every event is flushed as written.
	r.With(s.gate(endpoint.PlayerPositionStream)).Get(routePositionStream, s.handlePositionStream)
	r.With(s.gate(endpoint.PlayerPositionStream)).Get(routePositionWS, s.handlePositionWS)

	r.Group(func(r chi.Router) {
		if gw.Gzip {
			r.Use(gzipMiddleware)
		}

		// Root banner (the only ungated route)
		r.Get(routeRoot, s.handleRoot)

		r.With(s.gate(endpoint.PlayerPosition)).Get(routePosition, s.handlePosition)
		r.With(s.gate(endpoint.PlayerWorld)).Get(routeWorld, s.handleWorld)
		r.With(s.gate(endpoint.Screen)).Get(routeScreen, s.handleScreen)
		r.With(s.gate(endpoint.Mods)).Get(routeMods, s.handleMods)

		r.With(s.gate(endpoint.ChatMessages)).Post(routeChatMessages, s.handleChatMessage)
		r.With(s.gate(endpoint.ChatCommands)).Post(routeChatCommands, s.handleChatCommand)

		r.Route(routeWaypointSets, func(r chi.Router) {
			r.Use(s.gate(endpoint.XaeroWaypointSets))
			r.Get("/", s.handleListWaypointSets)
			r.Post("/", s.handleCreateWaypointSet)
		})

		// GraphQL (fields are gated individually as well)
		r.With(s.gate(endpoint.GraphQL)).Post(routeGraphQL, s.graphql.ServeHTTP)
		r.With(s.gate(endpoint.GraphiQL)).Get(routeGraphiQL, explorer.Handler(gw.ExplorerDir).ServeHTTP)

		r.With(s.gate(endpoint.Metrics)).Get(routeMetrics, s.metrics.Handler().ServeHTTP)
		r.With(s.gate(endpoint.Audit)).Get(routeAudit, s.handleAudit)
	})

	return r
}
