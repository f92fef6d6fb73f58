package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes coordinator counters. A nil registerer yields unregistered collectors.
type Metrics struct {
	events      *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	messages    *prometheus.CounterVec
	activeUsers prometheus.Gauge
	rooms       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_events_total",
			Help: "Events handled by the coordinator, by event name.",
		}, []string{"event"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_dropped_events_total",
			Help: "Events dropped without effect, by event name and reason.",
		}, []string{"event", "reason"}),
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Messages appended, by kind.",
		}, []string{"kind"}),
		activeUsers: f.NewGauge(prometheus.GaugeOpts{
			Name: "chat_active_users",
			Help: "Users currently logged in.",
		}),
		rooms: f.NewGauge(prometheus.GaugeOpts{
			Name: "chat_rooms",
			Help: "Rooms currently in the directory.",
		}),
	}
}
