package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		RoundsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chess_rounds_generated_total",
			Help: "The total number of rounds generated.",
		}),
		MatchesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chess_matches_generated_total",
			Help: "The total number of matches created by round generation.",
		}),
		ResultsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chess_results_recorded_total",
			Help: "The total number of match results recorded, by outcome.",
		}, []string{"outcome"}),
		MatchesArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chess_matches_archived_total",
			Help: "The total number of scored matches moved to the history.",
		}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chess_operation_duration_seconds",
			Help:    "The duration of tournament operations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chess_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chess_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chess_events_published_total",
			Help: "The total number of domain events published, by type.",
		}, []string{"type"}),
		EventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chess_events_failed_total",
			Help: "The total number of domain events that failed to publish, by type.",
		}, []string{"type"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chess_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.RoundsGenerated,
		s.MatchesGenerated,
		s.ResultsRecorded,
		s.MatchesArchived,
		s.OperationDuration,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.EventsPublished,
		s.EventsFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncRoundsGenerated() {
	s.RoundsGenerated.Inc()
}

func (s *Service) AddMatchesGenerated(n int) {
	s.MatchesGenerated.Add(float64(n))
}

func (s *Service) IncResultsRecorded(outcome string) {
	s.ResultsRecorded.WithLabelValues(outcome).Inc()
}

func (s *Service) AddMatchesArchived(n int64) {
	s.MatchesArchived.Add(float64(n))
}

func (s *Service) ObserveOperationDuration(operation string, duration float64) {
	s.OperationDuration.WithLabelValues(operation).Observe(duration)
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) IncEventsPublished(eventType string) {
	s.EventsPublished.WithLabelValues(eventType).Inc()
}

func (s *Service) IncEventsFailed(eventType string) {
	s.EventsFailed.WithLabelValues(eventType).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
