package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the game server's Prometheus collectors.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	RoundsTotal       *prometheus.CounterVec
	AutoGuessesTotal  prometheus.Counter
	DepositsTotal     prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "game_ws_active_connections",
			Help: "Currently open websocket connections",
		}),
		RoundsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "game_rounds_total",
			Help: "Resolved rounds by outcome",
		}, []string{"outcome"}),
		AutoGuessesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_auto_guesses_total",
			Help: "Guesses issued by the countdown on the player's behalf",
		}),
		DepositsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_deposits_total",
			Help: "Completed wallet to table deposits",
		}),
	}
	reg.MustRegister(m.ActiveConnections, m.RoundsTotal, m.AutoGuessesTotal, m.DepositsTotal)
	return m
}
