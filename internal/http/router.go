package httpx

import (
	"net/http"

	"log/slog"

	"github.com/ghomren619/talk-caves/internal/app"
	"github.com/ghomren619/talk-caves/internal/room"
	"github.com/ghomren619/talk-caves/internal/ws"
	"github.com/ghomren619/talk-caves/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, store *room.Store) http.Handler {
	mw := NewMiddleware(cfg)
	api := &RoomsAPI{Store: store, Log: logger}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Room endpoints
	mux.Handle("/api/rooms", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			api.Create(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	mux.Handle("/api/rooms/{id}", http.HandlerFunc(api.Info))

	// CORS applied globally
	return mw.Wrap(mux)
}
