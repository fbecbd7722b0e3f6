package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campfire_connections",
		Help: "Currently registered websocket connections.",
	})

	Messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campfire_messages_total",
		Help: "Messages accepted by the hub, by kind.",
	}, []string{"kind"})

	VoiceMembers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campfire_voice_members",
		Help: "Connections currently in a voice room.",
	})

	SnapshotSaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campfire_snapshot_saves_total",
		Help: "Completed snapshot writes.",
	})

	SnapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campfire_snapshot_failures_total",
		Help: "Snapshot writes that returned an error.",
	})

	RetentionEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campfire_retention_evicted_total",
		Help: "Messages evicted by the retention sweep.",
	})
)
