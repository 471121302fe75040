// Package scheduler runs the periodic archive of scored matches.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// Archiver archives the scored matches of every batch.
type Archiver interface {
	ArchiveAll(ctx context.Context) (map[string]int64, error)
}

// Scheduler wraps a gocron scheduler with the archive job.
type Scheduler struct {
	sched gocron.Scheduler
}

// New registers an archive job that runs every interval. Runs never overlap.
func New(archiver Archiver, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("archive interval must be positive, got %s", interval)
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			archived, err := archiver.ArchiveAll(ctx)
			if err != nil {
				log.Error("Scheduled archive failed", "error", err)
			}
			var total int64
			for _, n := range archived {
				total += n
			}
			log.Info("Scheduled archive finished", "batches", len(archived), "archived", total)
		}),
		gocron.WithName("archive-completed-matches"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		sched.Shutdown()
		return nil, fmt.Errorf("failed to register archive job: %w", err)
	}
	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	log.Info("Scheduler started")
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
