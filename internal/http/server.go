package http

import (
	"net/http"

	"github.com/mauv0809/chess-club/internal/config"
	"github.com/mauv0809/chess-club/internal/metrics"
	"github.com/mauv0809/chess-club/internal/notifier"
	"github.com/mauv0809/chess-club/internal/pubsub"
	"github.com/mauv0809/chess-club/internal/tournament"
)

func NewServer(batches Batches, svc *tournament.Service, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Batches:        batches,
		Tournament:     svc,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Notifier:       notifier,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// Batch routes additionally resolve the ?batch= parameter into a handle.
	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))

	s.Router.Handle("GET /batches", Chain(s.ListBatchesHandler(), paramsMiddleware))
	s.Router.Handle("POST /batches", Chain(s.CreateBatchHandler(), paramsMiddleware))

	s.Router.Handle("GET /students", s.batchRoute(s.ListStudentsHandler()))
	s.Router.Handle("POST /students", s.batchRoute(s.AddStudentHandler()))
	s.Router.Handle("PUT /students/{id}", s.batchRoute(s.UpdateStudentHandler()))
	s.Router.Handle("POST /students/{id}/toggle-paid", s.batchRoute(s.TogglePaidHandler()))
	s.Router.Handle("POST /students/mark-all-paid", s.batchRoute(s.MarkAllPaidHandler()))

	s.Router.Handle("GET /matches", s.batchRoute(s.ListMatchesHandler()))
	s.Router.Handle("POST /matches", s.batchRoute(s.CreateMatchHandler()))
	s.Router.Handle("POST /matches/generate", s.batchRoute(s.GenerateMatchesHandler()))
	s.Router.Handle("POST /matches/{id}/result", s.batchRoute(s.RecordResultHandler()))
	s.Router.Handle("POST /matches/archive", s.batchRoute(s.ArchiveMatchesHandler()))
	s.Router.Handle("GET /history", s.batchRoute(s.ListHistoryHandler()))

	s.Router.Handle("GET /leaderboard", s.batchRoute(s.LeaderboardHandler()))
	s.Router.Handle("POST /leaderboard/notify", s.batchRoute(s.NotifyLeaderboardHandler()))
	s.Router.Handle("POST /reconcile", s.batchRoute(s.ReconcileHandler()))
	s.Router.Handle("GET /dashboard", s.batchRoute(s.DashboardHandler()))

	s.Router.Handle("POST /slack/command/leaderboard", Chain(s.LeaderboardCommandHandler(), paramsMiddleware, s.slackVerificationMiddleware))
	s.Router.Handle("POST /pubsub/events", Chain(s.EventPushHandler(), paramsMiddleware))
}

func (s *Server) batchRoute(h http.Handler) http.Handler {
	return Chain(h, paramsMiddleware, s.batchMiddleware)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
