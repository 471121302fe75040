package notifier

import (
	"context"
	"sync"

	"github.com/mauv0809/chess-club/internal/club"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendRoundScheduleCalls []struct {
		Batch   string
		Matches []club.Match
		DryRun  bool
	}
	SendResultCalls []struct {
		Batch  string
		Match  *club.Match
		DryRun bool
	}
	SendLeaderboardCalls []struct {
		Batch     string
		Scope     club.Scope
		Standings []club.Standing
		DryRun    bool
	}

	// Optional overrides
	SendRoundScheduleFunc         func(batch string, matches []club.Match, dryRun bool) error
	SendResultFunc                func(batch string, match *club.Match, dryRun bool) error
	SendLeaderboardFunc           func(batch string, scope club.Scope, standings []club.Standing, dryRun bool) error
	FormatLeaderboardResponseFunc func(batch string, scope club.Scope, standings []club.Standing) (any, error)

	LastLeaderboardResponse any
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRoundScheduleCalls = nil
	m.SendResultCalls = nil
	m.SendLeaderboardCalls = nil
	m.LastLeaderboardResponse = nil
}

func (m *Mock) SendRoundSchedule(_ context.Context, batch string, matches []club.Match, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRoundScheduleCalls = append(m.SendRoundScheduleCalls, struct {
		Batch   string
		Matches []club.Match
		DryRun  bool
	}{batch, matches, dryRun})
	if m.SendRoundScheduleFunc != nil {
		return m.SendRoundScheduleFunc(batch, matches, dryRun)
	}
	return nil
}

func (m *Mock) SendResult(_ context.Context, batch string, match *club.Match, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultCalls = append(m.SendResultCalls, struct {
		Batch  string
		Match  *club.Match
		DryRun bool
	}{batch, match, dryRun})
	if m.SendResultFunc != nil {
		return m.SendResultFunc(batch, match, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(_ context.Context, batch string, scope club.Scope, standings []club.Standing, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, struct {
		Batch     string
		Scope     club.Scope
		Standings []club.Standing
		DryRun    bool
	}{batch, scope, standings, dryRun})
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(batch, scope, standings, dryRun)
	}
	return nil
}

func (m *Mock) FormatLeaderboardResponse(batch string, scope club.Scope, standings []club.Standing) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLeaderboardResponseFunc != nil {
		resp, err := m.FormatLeaderboardResponseFunc(batch, scope, standings)
		m.LastLeaderboardResponse = resp
		return resp, err
	}
	return "formatted_leaderboard", nil
}

// Calls returns how many send calls of each kind were recorded.
func (m *Mock) Calls() (rounds, results, leaderboards int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendRoundScheduleCalls), len(m.SendResultCalls), len(m.SendLeaderboardCalls)
}
