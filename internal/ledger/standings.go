package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-club/internal/club"
)

// Standings sums points over the scored matches in scope instead of reading
// the cached student columns. Students without a scored match in scope are
// left out. Rows are ordered by points, then matches played, then id; tied
// points share a rank.
func (s *store) Standings(ctx context.Context, scope club.Scope, class string) ([]club.Standing, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	table := activeTable
	where := []string{"m.points_assigned = 1", "m.batch_id = ?"}
	args := []any{club.WinPoints, club.DrawPoints, s.batchID}
	switch scope.Kind {
	case club.ScopeHistory:
		table = historyTable
	case club.ScopeMonth:
		table = historyTable
		where = append(where, "substr(m.match_date, 1, 7) = ?")
		args = append(args, scope.Month)
	}
	if class = strings.TrimSpace(class); class != "" {
		where = append(where, "s.class = ?")
		args = append(args, class)
	}

	query := fmt.Sprintf(`
		SELECT s.student_id, s.name, s.class, s.roll, s.mobile, s.year,
			SUM(CASE WHEN m.winner_id = s.student_id THEN ?
			         WHEN m.winner_id IS NULL THEN ?
			         ELSE 0 END) AS total_points,
			COUNT(*) AS played
		FROM %s m
		JOIN students s ON m.student1_id = s.student_id OR m.student2_id = s.student_id
		WHERE %s
		GROUP BY s.student_id
		ORDER BY total_points DESC, played DESC, s.student_id ASC
	`, table, strings.Join(where, " AND "))

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("Failed to query standings", "error", err, "batch", s.batchID, "scope", scope.String())
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer rows.Close()

	standings := make([]club.Standing, 0)
	for rows.Next() {
		var st club.Standing
		err := rows.Scan(&st.StudentID, &st.Name, &st.Class, &st.Roll, &st.Mobile, &st.Year, &st.Points, &st.MatchesPlayed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", err)
		}
		standings = append(standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range standings {
		if i > 0 && standings[i].Points == standings[i-1].Points {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}
	log.Debug("Computed standings", "batch", s.batchID, "scope", scope.String(), "class", class, "rows", len(standings))
	return standings, nil
}

type cachedTotals struct {
	studentID     string
	points        float64
	matchesPlayed int
	wantPoints    float64
	wantPlayed    int
}

// Reconcile recomputes every student's points and matches played from all
// scored matches, active and archived, and writes back the ones that drifted.
func (s *store) Reconcile(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		WITH scored AS (
			SELECT student1_id, student2_id, winner_id FROM matches WHERE points_assigned = 1
			UNION ALL
			SELECT student1_id, student2_id, winner_id FROM match_history WHERE points_assigned = 1
		), per_student AS (
			SELECT student1_id AS sid,
				CASE WHEN winner_id = student1_id THEN ? WHEN winner_id IS NULL THEN ? ELSE 0 END AS pts
			FROM scored
			UNION ALL
			SELECT student2_id AS sid,
				CASE WHEN winner_id = student2_id THEN ? WHEN winner_id IS NULL THEN ? ELSE 0 END AS pts
			FROM scored
		)
		SELECT s.student_id, s.points, s.matches_played, COALESCE(SUM(p.pts), 0), COUNT(p.sid)
		FROM students s
		LEFT JOIN per_student p ON p.sid = s.student_id
		GROUP BY s.student_id
	`, club.WinPoints, club.DrawPoints, club.WinPoints, club.DrawPoints)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute totals: %w", err)
	}

	var drifted []cachedTotals
	for rows.Next() {
		var c cachedTotals
		if err := rows.Scan(&c.studentID, &c.points, &c.matchesPlayed, &c.wantPoints, &c.wantPlayed); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan totals: %w", err)
		}
		if c.points != c.wantPoints || c.matchesPlayed != c.wantPlayed {
			drifted = append(drifted, c)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, c := range drifted {
		_, err := tx.ExecContext(ctx, `UPDATE students SET points = ?, matches_played = ? WHERE student_id = ?`, c.wantPoints, c.wantPlayed, c.studentID)
		if err != nil {
			return 0, fmt.Errorf("failed to correct totals of %s: %w", c.studentID, err)
		}
		log.Warn("Corrected cached student totals", "batch", s.batchID, "studentID", c.studentID,
			"points", c.points, "want_points", c.wantPoints, "played", c.matchesPlayed, "want_played", c.wantPlayed)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reconcile: %w", err)
	}
	return len(drifted), nil
}
