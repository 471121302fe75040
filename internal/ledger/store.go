package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/chess-club/internal/club"
	"github.com/mauv0809/chess-club/internal/pairing"
	"github.com/mauv0809/chess-club/internal/roster"
)

// New creates a ledger Store for the batch whose database is db.
func New(db *sql.DB, batchID string) Store {
	return NewWithClock(db, batchID, time.Now)
}

// NewWithClock is like New but dates matches with the given clock.
func NewWithClock(db *sql.DB, batchID string, now func() time.Time) Store {
	return &store{
		db:      db,
		batchID: batchID,
		now:     now,
	}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func matchSelect(table string) string {
	return fmt.Sprintf(`
		SELECT m.match_id, m.student1_id, COALESCE(s1.name, ''), m.student2_id, COALESCE(s2.name, ''),
			m.winner_id, COALESCE(w.name, ''), m.points_assigned, m.match_date, m.batch_id, m.round_id
		FROM %s m
		LEFT JOIN students s1 ON m.student1_id = s1.student_id
		LEFT JOIN students s2 ON m.student2_id = s2.student_id
		LEFT JOIN students w ON m.winner_id = w.student_id`, table)
}

func scanMatch(scanner interface{ Scan(...any) error }) (*club.Match, error) {
	var m club.Match
	var winnerID sql.NullString
	err := scanner.Scan(
		&m.ID, &m.Student1ID, &m.Student1Name, &m.Student2ID, &m.Student2Name,
		&winnerID, &m.WinnerName, &m.PointsAssigned, &m.MatchDate, &m.BatchID, &m.RoundID,
	)
	if err != nil {
		return nil, err
	}
	if winnerID.Valid {
		id := winnerID.String
		m.WinnerID = &id
	}
	return &m, nil
}

func queryMatches(ctx context.Context, q queryer, query string, args ...any) ([]club.Match, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]club.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (s *store) getMatch(ctx context.Context, q queryer, matchID int64) (*club.Match, error) {
	row := q.QueryRowContext(ctx, matchSelect(activeTable)+` WHERE m.match_id = ? AND m.batch_id = ?`, matchID, s.batchID)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %d: %w", matchID, club.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	return m, nil
}

func countPending(ctx context.Context, q queryer) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE points_assigned = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending matches: %w", err)
	}
	return n, nil
}

// GenerateRound takes the eligibility snapshot, runs the pairing engine and
// stores the pairs in a single transaction, so a rejected or failed round
// leaves no matches behind.
func (s *store) GenerateRound(ctx context.Context, maxMatches int, rng *rand.Rand) ([]club.Match, error) {
	if err := pairing.ValidateMaxMatches(maxMatches); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pending, err := countPending(ctx, tx)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		log.Warn("Refusing to generate round while matches are pending", "batch", s.batchID, "pending", pending)
		return nil, fmt.Errorf("%w (%d pending)", club.ErrRoundInProgress, pending)
	}

	eligible, err := roster.EligibleIDs(ctx, tx)
	if err != nil {
		return nil, err
	}
	result, err := pairing.Generate(eligible, maxMatches, rng)
	if err != nil {
		return nil, err
	}
	if len(result.Pairs) == 0 {
		log.Info("Not enough eligible students to pair", "batch", s.batchID, "eligible", len(eligible))
		return []club.Match{}, nil
	}

	roundID := uuid.NewString()
	matchDate := s.now().Format(dateLayout)
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches (student1_id, student2_id, points_assigned, match_date, batch_id, round_id)
		VALUES (?, ?, 0, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range result.Pairs {
		if _, err := stmt.ExecContext(ctx, p.Student1ID, p.Student2ID, matchDate, s.batchID, roundID); err != nil {
			return nil, fmt.Errorf("failed to insert match %s vs %s: %w", p.Student1ID, p.Student2ID, err)
		}
	}

	matches, err := queryMatches(ctx, tx, matchSelect(activeTable)+` WHERE m.round_id = ? ORDER BY m.match_id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to read generated round: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit round: %w", err)
	}

	log.Info("Generated round", "batch", s.batchID, "roundID", roundID, "eligible", len(eligible), "matches", len(matches), "max_matches", maxMatches)
	return matches, nil
}

func (s *store) CreateMatch(ctx context.Context, student1ID, student2ID string) (*club.Match, error) {
	student1ID, student2ID = strings.TrimSpace(student1ID), strings.TrimSpace(student2ID)
	if student1ID == "" || student2ID == "" {
		return nil, fmt.Errorf("%w: both student ids are required", club.ErrValidation)
	}
	if student1ID == student2ID {
		return nil, fmt.Errorf("%w: a student cannot play against themselves", club.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var known int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE student_id IN (?, ?)`, student1ID, student2ID).Scan(&known)
	if err != nil {
		return nil, fmt.Errorf("failed to look up students: %w", err)
	}
	if known != 2 {
		return nil, fmt.Errorf("students %s and %s: %w", student1ID, student2ID, club.ErrNotFound)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO matches (student1_id, student2_id, points_assigned, match_date, batch_id)
		VALUES (?, ?, 0, ?, ?)
	`, student1ID, student2ID, s.now().Format(dateLayout), s.batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	m, err := s.getMatch(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit match: %w", err)
	}
	log.Info("Created match", "batch", s.batchID, "matchID", id, "student1", student1ID, "student2", student2ID)
	return m, nil
}

// RecordResult scores a pending match: both students play one more match,
// a draw gives each DrawPoints and a win gives the winner WinPoints. All
// updates commit together or not at all.
func (s *store) RecordResult(ctx context.Context, matchID int64, outcome club.Outcome) (*club.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	m, err := s.getMatch(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if m.PointsAssigned {
		return nil, fmt.Errorf("match %d: %w", matchID, club.ErrAlreadyScored)
	}
	winnerID, err := outcome.Winner(*m)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE students SET matches_played = matches_played + 1 WHERE student_id IN (?, ?)`, m.Student1ID, m.Student2ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update matches played: %w", err)
	}
	if winnerID == nil {
		_, err = tx.ExecContext(ctx, `UPDATE students SET points = points + ? WHERE student_id IN (?, ?)`, club.DrawPoints, m.Student1ID, m.Student2ID)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE students SET points = points + ? WHERE student_id = ?`, club.WinPoints, *winnerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to award points: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE matches SET winner_id = ?, points_assigned = 1 WHERE match_id = ? AND points_assigned = 0`, winnerID, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to score match %d: %w", matchID, err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, fmt.Errorf("match %d: %w", matchID, club.ErrAlreadyScored)
	}

	scored, err := s.getMatch(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit result: %w", err)
	}

	log.Info("Recorded match result", "batch", s.batchID, "matchID", matchID, "outcome", outcome)
	return scored, nil
}

// ArchiveCompleted copies every scored match into the history, keeping its
// id, and removes it from the active set in the same transaction.
func (s *store) ArchiveCompleted(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO match_history (match_id, student1_id, student2_id, winner_id, points_assigned, match_date, batch_id, round_id, archived_at)
		SELECT match_id, student1_id, student2_id, winner_id, points_assigned, match_date, batch_id, round_id, ?
		FROM matches
		WHERE points_assigned = 1
	`, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to copy matches to history: %w", err)
	}
	copied, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM matches WHERE points_assigned = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete archived matches: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if copied != deleted {
		return 0, fmt.Errorf("archive mismatch: copied %d matches but deleted %d", copied, deleted)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit archive: %w", err)
	}
	log.Info("Archived completed matches", "batch", s.batchID, "count", copied)
	return copied, nil
}

func (s *store) GetMatch(ctx context.Context, matchID int64) (*club.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getMatch(ctx, s.db, matchID)
}

func (s *store) ListMatches(ctx context.Context) ([]club.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := queryMatches(ctx, s.db, matchSelect(activeTable)+` ORDER BY m.match_id`)
	if err != nil {
		log.Error("Failed to query matches", "error", err, "batch", s.batchID)
		return nil, err
	}
	return matches, nil
}

func (s *store) ListHistory(ctx context.Context) ([]club.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := queryMatches(ctx, s.db, matchSelect(historyTable)+` ORDER BY m.match_date DESC, m.match_id DESC`)
	if err != nil {
		log.Error("Failed to query match history", "error", err, "batch", s.batchID)
		return nil, err
	}
	return matches, nil
}

func (s *store) PendingCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countPending(ctx, s.db)
}
