package club

import (
	"fmt"
	"time"
)

// Points awarded per scored match.
const (
	WinPoints  = 3.0
	DrawPoints = 0.5
)

// MaxMatchesLimit bounds the per-player cap accepted by the pairing engine.
const (
	MinMaxMatches   = 1
	MaxMatchesLimit = 20
)

// Student is a roster entry of a batch.
type Student struct {
	ID            string  `json:"student_id"`
	Name          string  `json:"name"`
	Class         string  `json:"class"`
	Roll          string  `json:"roll"`
	Mobile        string  `json:"mobile"`
	Year          string  `json:"year"`
	Points        float64 `json:"points"`
	MatchesPlayed int     `json:"matches_played"`
	PaidEntry     bool    `json:"paid_entry"`
}

// Match is a pairing between two students. WinnerID is nil for a draw or
// while the match is still pending.
type Match struct {
	ID             int64   `json:"match_id"`
	Student1ID     string  `json:"student1_id"`
	Student1Name   string  `json:"student1_name,omitempty"`
	Student2ID     string  `json:"student2_id"`
	Student2Name   string  `json:"student2_name,omitempty"`
	WinnerID       *string `json:"winner_id"`
	WinnerName     string  `json:"winner_name,omitempty"`
	PointsAssigned bool    `json:"points_assigned"`
	MatchDate      string  `json:"match_date"`
	BatchID        string  `json:"batch_id"`
	RoundID        string  `json:"round_id,omitempty"`
}

// Involves reports whether the student played in the match.
func (m Match) Involves(studentID string) bool {
	return m.Student1ID == studentID || m.Student2ID == studentID
}

// IsDraw reports whether the match was scored without a winner.
func (m Match) IsDraw() bool {
	return m.PointsAssigned && m.WinnerID == nil
}

// PointsFor returns the points the match is worth to a participant.
// Pending matches and non-participants are worth nothing.
func (m Match) PointsFor(studentID string) float64 {
	if !m.PointsAssigned || !m.Involves(studentID) {
		return 0
	}
	if m.WinnerID == nil {
		return DrawPoints
	}
	if *m.WinnerID == studentID {
		return WinPoints
	}
	return 0
}

// Outcome is the result reported for a match.
type Outcome string

const (
	OutcomeStudent1 Outcome = "student1"
	OutcomeStudent2 Outcome = "student2"
	OutcomeDraw     Outcome = "draw"
)

// ParseOutcome validates a raw outcome value.
func ParseOutcome(raw string) (Outcome, error) {
	switch o := Outcome(raw); o {
	case OutcomeStudent1, OutcomeStudent2, OutcomeDraw:
		return o, nil
	}
	return "", fmt.Errorf("%w: unknown outcome %q", ErrValidation, raw)
}

// Winner resolves the outcome against a match. It returns nil for a draw.
func (o Outcome) Winner(m Match) (*string, error) {
	switch o {
	case OutcomeStudent1:
		id := m.Student1ID
		return &id, nil
	case OutcomeStudent2:
		id := m.Student2ID
		return &id, nil
	case OutcomeDraw:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown outcome %q", ErrValidation, string(o))
}

// ScopeKind selects which match records feed a standings query.
type ScopeKind string

const (
	ScopeCurrent ScopeKind = "current"
	ScopeHistory ScopeKind = "history"
	ScopeMonth   ScopeKind = "month"
)

// Scope of a standings query. Month is only used with ScopeMonth and has
// the form YYYY-MM.
type Scope struct {
	Kind  ScopeKind
	Month string
}

func CurrentScope() Scope { return Scope{Kind: ScopeCurrent} }
func HistoryScope() Scope { return Scope{Kind: ScopeHistory} }

func MonthScope(month string) Scope { return Scope{Kind: ScopeMonth, Month: month} }

// Validate checks the scope kind and, for month scopes, the month format.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeCurrent, ScopeHistory:
		return nil
	case ScopeMonth:
		if _, err := time.Parse("2006-01", s.Month); err != nil {
			return fmt.Errorf("%w: month must be YYYY-MM, got %q", ErrValidation, s.Month)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown standings scope %q", ErrValidation, string(s.Kind))
}

func (s Scope) String() string {
	if s.Kind == ScopeMonth {
		return string(s.Kind) + ":" + s.Month
	}
	return string(s.Kind)
}

// Standing is one leaderboard row.
type Standing struct {
	Rank          int     `json:"rank"`
	StudentID     string  `json:"student_id"`
	Name          string  `json:"name"`
	Class         string  `json:"class"`
	Roll          string  `json:"roll"`
	Mobile        string  `json:"mobile"`
	Year          string  `json:"year"`
	Points        float64 `json:"points"`
	MatchesPlayed int     `json:"matches_played"`
}
