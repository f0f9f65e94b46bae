// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "strangerchat",
		Name:      "connections_active",
		Help:      "Live client connections.",
	})
	QueueLength = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "strangerchat",
		Name:      "queue_length",
		Help:      "Connections waiting per queue.",
	}, []string{"queue"})
	RoomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "strangerchat",
		Name:      "rooms_active",
		Help:      "Active two-party rooms.",
	})
	MatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strangerchat",
		Name:      "matches_total",
		Help:      "Rooms created per queue.",
	}, []string{"queue"})
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strangerchat",
		Name:      "inbound_events_total",
		Help:      "Inbound client events per type.",
	}, []string{"type"})
	SweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "strangerchat",
		Name:      "liveness_removed_total",
		Help:      "Connections removed by the liveness sweep.",
	})
	AuditDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "strangerchat",
		Name:      "audit_dropped_total",
		Help:      "Audit records dropped because the writer buffer was full.",
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsActive,
		QueueLength,
		RoomsActive,
		MatchesTotal,
		EventsTotal,
		SweptTotal,
		AuditDropped,
	)
}
