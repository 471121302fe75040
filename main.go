package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-club/internal/batch"
	"github.com/mauv0809/chess-club/internal/config"
	server "github.com/mauv0809/chess-club/internal/http"
	"github.com/mauv0809/chess-club/internal/metrics"
	"github.com/mauv0809/chess-club/internal/notifier"
	"github.com/mauv0809/chess-club/internal/notifier/slack"
	"github.com/mauv0809/chess-club/internal/pubsub"
	"github.com/mauv0809/chess-club/internal/scheduler"
	"github.com/mauv0809/chess-club/internal/tournament"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()

	registry := batch.NewRegistry(cfg)
	defer func() {
		log.Info("Closing batch databases")
		registry.Close()
	}()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()

	var notif notifier.Notifier = notifier.LogNotifier{}
	if cfg.SlackEnabled() {
		notif = slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	} else {
		log.Warn("Slack is not configured, notifications will only be logged")
	}

	ps, err := pubsub.New(context.Background(), cfg.ProjectID)
	if err != nil {
		log.Fatalf("Failed to initialize pubsub: %s", err)
	}
	defer ps.Close()

	svc := tournament.New(registry, notif, metricsSvc, ps)
	s := server.NewServer(registry, svc, metricsSvc, metricsHandler, cfg, notif, ps)

	if cfg.ArchiveInterval > 0 {
		sched, err := scheduler.New(svc, cfg.ArchiveInterval)
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %s", err)
		}
		sched.Start()
		defer func() {
			if err := sched.Shutdown(); err != nil {
				log.Error("Scheduler shutdown failed", "error", err)
			}
		}()
	}

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port, "data_dir", cfg.DataDir)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
