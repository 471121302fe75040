package notifier

import (
	"context"

	"github.com/mauv0809/chess-club/internal/club"
)

// Notifier defines a high-level interface for sending notifications about tournament events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For freshly generated rounds
	SendRoundSchedule(ctx context.Context, batch string, matches []club.Match, dryRun bool) error
	// For scored matches
	SendResult(ctx context.Context, batch string, match *club.Match, dryRun bool) error
	SendLeaderboard(ctx context.Context, batch string, scope club.Scope, standings []club.Standing, dryRun bool) error

	// FormatLeaderboardResponse renders standings without sending them.
	FormatLeaderboardResponse(batch string, scope club.Scope, standings []club.Standing) (any, error)
}
