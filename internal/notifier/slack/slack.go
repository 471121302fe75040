package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-club/internal/club"
	"github.com/mauv0809/chess-club/internal/metrics"
	"github.com/mauv0809/chess-club/internal/notifier"
	"github.com/slack-go/slack"
)

const (
	sendTimeout = 10 * time.Second
	// Slack rejects messages with more than 50 blocks.
	matchesPerSection  = 10
	maxLeaderboardRows = 25
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendRoundSchedule(ctx context.Context, batch string, matches []club.Match, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatRoundSchedule(batch, matches), dryRun)
	return err
}

func (s *Notifier) SendResult(ctx context.Context, batch string, match *club.Match, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatResult(batch, match), dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(ctx context.Context, batch string, scope club.Scope, standings []club.Standing, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatLeaderboard(batch, scope, standings), dryRun)
	return err
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command
// response. The reply is posted to the whole channel, not only to the caller.
func (s *Notifier) FormatLeaderboardResponse(batch string, scope club.Scope, standings []club.Standing) (any, error) {
	msg := s.formatLeaderboard(batch, scope, standings)
	msg.ResponseType = slack.ResponseTypeInChannel
	return msg, nil
}

func plainSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil)
}

func playerLabel(name, id string) string {
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

// formatRoundSchedule lists the pairings of a new round using Block Kit.
func (s *Notifier) formatRoundSchedule(batch string, matches []club.Match) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf(":chess_pawn: New round for %s :chess_pawn:", batch), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(matches) == 0 {
		blocks = append(blocks, plainSection("No pairings this round. At least two paid students are needed."))
		return slack.NewBlockMessage(blocks...)
	}

	lines := make([]string, 0, matchesPerSection)
	for i, m := range matches {
		lines = append(lines, fmt.Sprintf("#%d  %s vs %s", m.ID, playerLabel(m.Student1Name, m.Student1ID), playerLabel(m.Student2Name, m.Student2ID)))
		if len(lines) == matchesPerSection || i == len(matches)-1 {
			blocks = append(blocks, plainSection(strings.Join(lines, "\n")))
			lines = lines[:0]
		}
	}

	contextText := fmt.Sprintf("%d matches on %s", len(matches), matches[0].MatchDate)
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, true, false)))
	return slack.NewBlockMessage(blocks...)
}

// formatResult announces the outcome of a scored match.
func (s *Notifier) formatResult(batch string, match *club.Match) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf(":chess_pawn: Result in %s", batch), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	p1 := playerLabel(match.Student1Name, match.Student1ID)
	p2 := playerLabel(match.Student2Name, match.Student2ID)

	var resultText, pointsText string
	switch {
	case match.WinnerID == nil:
		resultText = fmt.Sprintf("%s and %s drew.", p1, p2)
		pointsText = fmt.Sprintf("+%.1f points each", club.DrawPoints)
	case *match.WinnerID == match.Student1ID:
		resultText = fmt.Sprintf("%s beat %s! :trophy:", p1, p2)
		pointsText = fmt.Sprintf("+%.0f points to %s", club.WinPoints, playerLabel(match.Student1Name, match.Student1ID))
	default:
		resultText = fmt.Sprintf("%s beat %s! :trophy:", p2, p1)
		pointsText = fmt.Sprintf("+%.0f points to %s", club.WinPoints, playerLabel(match.Student2Name, match.Student2ID))
	}
	blocks = append(blocks, plainSection(resultText))
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", fmt.Sprintf("Match #%d | %s", match.ID, pointsText), true, false)))

	return slack.NewBlockMessage(blocks...)
}

func scopeTitle(scope club.Scope) string {
	switch scope.Kind {
	case club.ScopeHistory:
		return "all time"
	case club.ScopeMonth:
		return scope.Month
	default:
		return "current round"
	}
}

// formatLeaderboard creates a Slack message to display the standings.
func (s *Notifier) formatLeaderboard(batch string, scope club.Scope, standings []club.Standing) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf(":trophy: %s leaderboard (%s) :trophy:", batch, scopeTitle(scope)), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(standings) == 0 {
		blocks = append(blocks, plainSection("No scored matches yet. Go play some chess!"))
		return slack.NewBlockMessage(blocks...)
	}

	rows := standings
	if len(rows) > maxLeaderboardRows {
		rows = rows[:maxLeaderboardRows]
	}
	for _, st := range rows {
		var medal string
		switch st.Rank {
		case 1:
			medal = ":first_place_medal: "
		case 2:
			medal = ":second_place_medal: "
		case 3:
			medal = ":third_place_medal: "
		}

		text := fmt.Sprintf("%d. %s%s\n> *Points*: %.1f | *Matches*: %d", st.Rank, medal, st.Name, st.Points, st.MatchesPlayed)
		if st.Class != "" {
			text += fmt.Sprintf(" | *Class*: %s", st.Class)
		}
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil))
	}

	if hidden := len(standings) - len(rows); hidden > 0 {
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", fmt.Sprintf("and %d more", hidden), true, false)))
	}
	return slack.NewBlockMessage(blocks...)
}
