package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-club/internal/club"
)

// New creates a roster Store backed by a batch database.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const studentColumns = `student_id, name, class, roll, mobile, year, points, matches_played, paid_entry`

func scanStudent(scanner interface{ Scan(...any) error }) (*club.Student, error) {
	var s club.Student
	err := scanner.Scan(&s.ID, &s.Name, &s.Class, &s.Roll, &s.Mobile, &s.Year, &s.Points, &s.MatchesPlayed, &s.PaidEntry)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func getStudent(ctx context.Context, q querier, studentID string) (*club.Student, error) {
	row := q.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE student_id = ?`, studentID)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("student %s: %w", studentID, club.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student %s: %w", studentID, err)
	}
	return s, nil
}

// AddStudent inserts a student with the next sequential id. New students
// have not paid their entry fee.
func (s *store) AddStudent(ctx context.Context, in NewStudent) (*club.Student, error) {
	if err := validateName(in.Name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxID int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(CAST(student_id AS INTEGER)), 0) FROM students`).Scan(&maxID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate student id: %w", err)
	}
	id := FormatStudentID(maxID + 1)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO students (student_id, name, class, roll, mobile, year, paid_entry)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, id, strings.TrimSpace(in.Name), in.Class, in.Roll, in.Mobile, in.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to insert student: %w", err)
	}

	student, err := getStudent(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit student insert: %w", err)
	}

	log.Info("Added student to roster", "studentID", id, "name", student.Name, "class", student.Class)
	return student, nil
}

func (s *store) UpdateStudent(ctx context.Context, studentID string, u StudentUpdate) (*club.Student, error) {
	if err := validateName(u.Name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE students SET name = ?, class = ?, roll = ?, mobile = ?, year = ?, paid_entry = ?
		WHERE student_id = ?
	`, strings.TrimSpace(u.Name), u.Class, u.Roll, u.Mobile, u.Year, u.PaidEntry, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to update student %s: %w", studentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("student %s: %w", studentID, club.ErrNotFound)
	}

	log.Info("Updated student", "studentID", studentID)
	return getStudent(ctx, s.db, studentID)
}

func (s *store) GetStudent(ctx context.Context, studentID string) (*club.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getStudent(ctx, s.db, studentID)
}

// ListStudents returns students whose name or id contains query, ordered by
// id. An empty query lists the whole roster.
func (s *store) ListStudents(ctx context.Context, query string) ([]club.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rows *sql.Rows
		err  error
	)
	if query = strings.TrimSpace(query); query == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY student_id`)
	} else {
		pattern := "%" + query + "%"
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+studentColumns+` FROM students
			WHERE name LIKE ? COLLATE NOCASE OR student_id LIKE ?
			ORDER BY student_id
		`, pattern, pattern)
	}
	if err != nil {
		log.Error("Failed to query students", "error", err, "query", query)
		return nil, err
	}
	defer rows.Close()

	students := make([]club.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, *st)
	}
	return students, rows.Err()
}

func (s *store) TogglePaid(ctx context.Context, studentID string) (*club.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE students SET paid_entry = NOT paid_entry WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle entry fee for %s: %w", studentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("student %s: %w", studentID, club.ErrNotFound)
	}

	student, err := getStudent(ctx, s.db, studentID)
	if err != nil {
		return nil, err
	}
	log.Info("Toggled entry fee", "studentID", studentID, "paid", student.PaidEntry)
	return student, nil
}

// MarkAllPaid flags every student as paid and returns how many changed.
func (s *store) MarkAllPaid(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE students SET paid_entry = 1 WHERE paid_entry = 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all students paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Info("Marked all students as paid", "updated", n)
	return n, nil
}

// EligibleIDs returns the ids of students who paid their entry fee.
func (s *store) EligibleIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return EligibleIDs(ctx, s.db)
}

func (s *store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return n, nil
}

// RowQuerier is satisfied by *sql.DB and *sql.Tx.
type RowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// EligibleIDs reads the paid student ids through q, which lets the ledger
// take the eligibility snapshot inside its own transaction.
func EligibleIDs(ctx context.Context, q RowQuerier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT student_id FROM students WHERE paid_entry = 1 ORDER BY student_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible students: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan eligible student: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
