package chat

import "github.com/prometheus/client_golang/prometheus"

const (
	dropSlowConsumer = "slow_consumer"
	dropWriteError   = "write_error"
)

var (
	ConnectedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presence_connected_sessions",
		Help: "Number of sessions currently registered in the roster",
	})

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_commands_total",
		Help: "Total client commands processed by kind",
	}, []string{"command"})

	CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "presence_command_seconds",
		Help:    "Time to handle each command kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	NotificationsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_notifications_dropped_total",
		Help: "Notifications that never reached their recipient, by reason",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(ConnectedSessions)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(CommandDuration)
	prometheus.MustRegister(NotificationsDropped)
}
