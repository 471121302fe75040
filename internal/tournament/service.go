package tournament

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-club/internal/batch"
	"github.com/mauv0809/chess-club/internal/club"
	"github.com/mauv0809/chess-club/internal/metrics"
	"github.com/mauv0809/chess-club/internal/notifier"
	"github.com/mauv0809/chess-club/internal/pairing"
	"github.com/mauv0809/chess-club/internal/pubsub"
)

// New creates a new Service. Rounds are shuffled with a fresh random seed
// unless WithSeed is used.
func New(registry Registry, notifier notifier.Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient) *Service {
	return &Service{
		registry: registry,
		notifier: notifier,
		metrics:  metrics,
		pubsub:   pubsub,
		newRand: func() *rand.Rand {
			return pairing.NewRand(rand.Uint64())
		},
	}
}

// WithSeed makes round generation reproducible: every round draws from a
// single generator seeded once.
func (s *Service) WithSeed(seed uint64) *Service {
	rng := pairing.NewRand(seed)
	s.rngMu.Lock()
	s.newRand = func() *rand.Rand {
		return pairing.NewRand(rng.Uint64())
	}
	s.rngMu.Unlock()
	return s
}

func (s *Service) nextRand() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.newRand()
}

func (s *Service) observe(operation string, start time.Time) {
	s.metrics.ObserveOperationDuration(operation, time.Since(start).Seconds())
}

func (s *Service) publish(ctx context.Context, topic pubsub.EventType, data any, dryRun bool) {
	if dryRun {
		log.Info("[Dry Run] Would publish event", "topic", topic)
		return
	}
	if err := s.pubsub.SendMessage(ctx, topic, data); err != nil {
		s.metrics.IncEventsFailed(string(topic))
		log.Error("Failed to publish event", "error", err, "topic", topic)
		return
	}
	s.metrics.IncEventsPublished(string(topic))
}

// GenerateMatches creates the next round of the batch. A round in progress
// or an invalid limit is returned as an error and nothing is announced.
func (s *Service) GenerateMatches(ctx context.Context, h *batch.Handle, maxMatches int, dryRun bool) ([]club.Match, error) {
	defer s.observe("generate_matches", time.Now())

	matches, err := h.Ledger.GenerateRound(ctx, maxMatches, s.nextRand())
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return matches, nil
	}

	s.metrics.IncRoundsGenerated()
	s.metrics.AddMatchesGenerated(len(matches))

	if err := s.notifier.SendRoundSchedule(ctx, h.Key, matches, dryRun); err != nil {
		log.Error("Failed to announce round", "error", err, "batch", h.Key)
	}

	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	s.publish(ctx, pubsub.EventRoundGenerated, pubsub.RoundGenerated{
		Batch:     h.Key,
		RoundID:   matches[0].RoundID,
		MatchDate: matches[0].MatchDate,
		MatchIDs:  ids,
	}, dryRun)
	return matches, nil
}

// RecordResult scores a match and announces the result.
func (s *Service) RecordResult(ctx context.Context, h *batch.Handle, matchID int64, outcome club.Outcome, dryRun bool) (*club.Match, error) {
	defer s.observe("record_result", time.Now())

	match, err := h.Ledger.RecordResult(ctx, matchID, outcome)
	if err != nil {
		return nil, err
	}
	s.metrics.IncResultsRecorded(string(outcome))

	if err := s.notifier.SendResult(ctx, h.Key, match, dryRun); err != nil {
		log.Error("Failed to announce result", "error", err, "batch", h.Key, "matchID", matchID)
	}

	event := pubsub.ResultRecorded{Batch: h.Key, MatchID: match.ID, Draw: match.WinnerID == nil}
	if match.WinnerID != nil {
		event.WinnerID = *match.WinnerID
	}
	s.publish(ctx, pubsub.EventResultRecorded, event, dryRun)
	return match, nil
}

// ArchiveCompleted moves the scored matches of a batch to its history.
// dryRun suppresses the archive event; the archive itself always runs.
func (s *Service) ArchiveCompleted(ctx context.Context, h *batch.Handle, dryRun bool) (int64, error) {
	defer s.observe("archive_completed", time.Now())

	n, err := h.Ledger.ArchiveCompleted(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.AddMatchesArchived(n)
		s.publish(ctx, pubsub.EventMatchesArchived, pubsub.MatchesArchived{Batch: h.Key, Count: n}, dryRun)
	}
	return n, nil
}

// ArchiveAll archives the scored matches of every known batch. A failing
// batch does not stop the others; all failures are returned together.
func (s *Service) ArchiveAll(ctx context.Context) (map[string]int64, error) {
	keys, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	archived := make(map[string]int64, len(keys))
	var errs []error
	for _, key := range keys {
		h, err := s.registry.Open(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("batch %s: %w", key, err))
			continue
		}
		n, err := s.ArchiveCompleted(ctx, h, false)
		if err != nil {
			errs = append(errs, fmt.Errorf("batch %s: %w", key, err))
			continue
		}
		archived[key] = n
	}
	log.Info("Archive run finished", "batches", len(keys), "failed", len(errs))
	return archived, errors.Join(errs...)
}

func (s *Service) Standings(ctx context.Context, h *batch.Handle, scope club.Scope, class string) ([]club.Standing, error) {
	defer s.observe("standings", time.Now())
	return h.Ledger.Standings(ctx, scope, class)
}

// NotifyLeaderboard posts the standings of a scope to the club channel.
// Unlike the other side effects a failed send is returned to the caller.
func (s *Service) NotifyLeaderboard(ctx context.Context, h *batch.Handle, scope club.Scope, class string, dryRun bool) ([]club.Standing, error) {
	standings, err := s.Standings(ctx, h, scope, class)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.SendLeaderboard(ctx, h.Key, scope, standings, dryRun); err != nil {
		return nil, fmt.Errorf("failed to send leaderboard: %w", err)
	}
	return standings, nil
}

func (s *Service) Reconcile(ctx context.Context, h *batch.Handle) (int, error) {
	defer s.observe("reconcile", time.Now())

	n, err := h.Ledger.Reconcile(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Warn("Cached student totals were out of date", "batch", h.Key, "corrected", n)
	}
	return n, nil
}

// Dashboard collects the batch totals and the top students by points.
func (s *Service) Dashboard(ctx context.Context, h *batch.Handle) (*Dashboard, error) {
	students, err := h.Roster.ListStudents(ctx, "")
	if err != nil {
		return nil, err
	}
	paid, err := h.Roster.EligibleIDs(ctx)
	if err != nil {
		return nil, err
	}
	active, err := h.Ledger.ListMatches(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := h.Ledger.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	history, err := h.Ledger.ListHistory(ctx)
	if err != nil {
		return nil, err
	}

	top := make([]club.Student, len(students))
	copy(top, students)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Points != top[j].Points {
			return top[i].Points > top[j].Points
		}
		if top[i].MatchesPlayed != top[j].MatchesPlayed {
			return top[i].MatchesPlayed > top[j].MatchesPlayed
		}
		return top[i].ID < top[j].ID
	})
	if len(top) > dashboardTopN {
		top = top[:dashboardTopN]
	}

	return &Dashboard{
		Batch:           h.Key,
		Students:        len(students),
		Paid:            len(paid),
		ActiveMatches:   len(active),
		PendingMatches:  pending,
		ArchivedMatches: len(history),
		Top:             top,
	}, nil
}
