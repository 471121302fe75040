package roster

import (
	"context"

	"github.com/mauv0809/chess-club/internal/club"
)

// Store defines the roster and entry-fee operations of a batch.
type Store interface {
	AddStudent(ctx context.Context, s NewStudent) (*club.Student, error)
	UpdateStudent(ctx context.Context, studentID string, u StudentUpdate) (*club.Student, error)
	GetStudent(ctx context.Context, studentID string) (*club.Student, error)
	ListStudents(ctx context.Context, query string) ([]club.Student, error)
	TogglePaid(ctx context.Context, studentID string) (*club.Student, error)
	MarkAllPaid(ctx context.Context) (int64, error)
	EligibleIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}
