package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsOpen tracks live WebSocket connections.
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "talkcaves_connections_open",
		Help: "Number of open WebSocket connections.",
	})

	// RoomsOpen tracks live rooms.
	RoomsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "talkcaves_rooms_open",
		Help: "Number of live rooms.",
	})

	// EventsTotal counts inbound socket events by name.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkcaves_events_total",
		Help: "Inbound socket events processed, by event name.",
	}, []string{"event"})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
