package ledger

import (
	"context"
	"math/rand/v2"

	"github.com/mauv0809/chess-club/internal/club"
)

// Store records rounds and results of one batch and derives its standings.
type Store interface {
	// GenerateRound pairs the paid students and persists the pairs as pending
	// matches. It fails with club.ErrRoundInProgress while any match is unscored.
	GenerateRound(ctx context.Context, maxMatches int, rng *rand.Rand) ([]club.Match, error)
	// CreateMatch adds a single pending match between two students.
	CreateMatch(ctx context.Context, student1ID, student2ID string) (*club.Match, error)
	// RecordResult scores a pending match exactly once.
	RecordResult(ctx context.Context, matchID int64, outcome club.Outcome) (*club.Match, error)
	// ArchiveCompleted moves every scored match into the history.
	ArchiveCompleted(ctx context.Context) (int64, error)
	// Standings recomputes the leaderboard from match records.
	Standings(ctx context.Context, scope club.Scope, class string) ([]club.Standing, error)
	GetMatch(ctx context.Context, matchID int64) (*club.Match, error)
	ListMatches(ctx context.Context) ([]club.Match, error)
	ListHistory(ctx context.Context) ([]club.Match, error)
	PendingCount(ctx context.Context) (int, error)
	// Reconcile rewrites the cached student points and match counters from
	// the match records and returns how many students were corrected.
	Reconcile(ctx context.Context) (int, error)
}
