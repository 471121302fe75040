package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	RoundsGenerated    prometheus.Counter
	MatchesGenerated   prometheus.Counter
	ResultsRecorded    *prometheus.CounterVec
	MatchesArchived    prometheus.Counter
	OperationDuration  *prometheus.HistogramVec
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	EventsPublished    *prometheus.CounterVec
	EventsFailed       *prometheus.CounterVec
	StartupTimeSeconds prometheus.Gauge
}
