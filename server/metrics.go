package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	playersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wander_server_players_connected",
		Help: "Players currently joined to the playground hub.",
	})

	connectionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wander_server_joins_rejected_total",
		Help: "Join requests rejected by the playground hub.",
	})

	broadcastsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wander_server_move_broadcasts_total",
		Help: "players_moved batches broadcast to clients.",
	})
)
