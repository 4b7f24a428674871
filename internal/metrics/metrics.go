package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "battleship"

var (
	// созданные партии по режиму (vs_ai, multiplayer)
	GamesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_created_total",
		Help:      "Games created, by mode.",
	}, []string{"mode"})

	// принятые выстрелы: hit, miss, sunk
	Attacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attacks_total",
		Help:      "Resolved attacks, by result.",
	}, []string{"result"})

	// отклоненные операции реестра
	Rejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejected_operations_total",
		Help:      "Rejected session operations, by operation and reason.",
	}, []string{"op", "reason"})

	// завершенные сессии: finished, abandoned, aborted, expired
	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_ended_total",
		Help:      "Sessions removed from the registry, by reason.",
	}, []string{"reason"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently held by the registry.",
	})

	WaitingPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "waiting_players",
		Help:      "Connections waiting in the matchmaking queue.",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Open WebSocket connections.",
	})
)
