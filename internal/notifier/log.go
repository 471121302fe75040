package notifier

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-club/internal/club"
)

var _ Notifier = LogNotifier{}

// LogNotifier is used when no Slack workspace is configured. It only logs.
type LogNotifier struct{}

func (LogNotifier) SendRoundSchedule(_ context.Context, batch string, matches []club.Match, _ bool) error {
	log.Info("Round scheduled", "batch", batch, "matches", len(matches))
	return nil
}

func (LogNotifier) SendResult(_ context.Context, batch string, match *club.Match, _ bool) error {
	log.Info("Result recorded", "batch", batch, "matchID", match.ID, "winner", match.WinnerName, "draw", match.IsDraw())
	return nil
}

func (LogNotifier) SendLeaderboard(_ context.Context, batch string, scope club.Scope, standings []club.Standing, _ bool) error {
	log.Info("Leaderboard", "batch", batch, "scope", scope.String(), "rows", len(standings))
	return nil
}

func (LogNotifier) FormatLeaderboardResponse(_ string, _ club.Scope, standings []club.Standing) (any, error) {
	return standings, nil
}
