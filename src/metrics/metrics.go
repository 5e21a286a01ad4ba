// Package metrics provides Prometheus metrics for the meeting bot.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// commandsTotal counts handled commands.
	// Labels:
	//   - command: top level command, e.g. "agenda add", "start"
	//   - source: front end, e.g. "discord", "http", "cli"
	//   - outcome: "ok", "rejected" (caller error) or "error" (storage failure)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govmeet_commands_total",
			Help: "Total number of meeting commands handled",
		},
		[]string{"command", "source", "outcome"},
	)

	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "govmeet_command_duration_seconds",
			Help:    "Duration of meeting commands in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"command"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govmeet_notifications_total",
			Help: "Total number of topic notifications emitted",
		},
		[]string{"type", "status"},
	)
)

func init() {
	prometheus.MustRegister(commandsTotal)
	prometheus.MustRegister(commandDuration)
	prometheus.MustRegister(notificationsTotal)
}

// RecordCommand records one handled command and how long it took.
func RecordCommand(command, source, outcome string, durationSeconds float64) {
	commandsTotal.WithLabelValues(command, source, outcome).Inc()
	commandDuration.WithLabelValues(command).Observe(durationSeconds)
}

// RecordNotification records a notification delivery attempt.
func RecordNotification(kind, status string) {
	notificationsTotal.WithLabelValues(kind, status).Inc()
}
