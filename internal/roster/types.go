package roster

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/mauv0809/chess-club/internal/club"
)

// store handles all roster database operations for one batch.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStudent carries the fields supplied when a student joins the roster.
type NewStudent struct {
	Name   string `json:"name"`
	Class  string `json:"class"`
	Roll   string `json:"roll"`
	Mobile string `json:"mobile"`
	Year   string `json:"year"`
}

// StudentUpdate replaces the editable fields of a student.
type StudentUpdate struct {
	Name      string `json:"name"`
	Class     string `json:"class"`
	Roll      string `json:"roll"`
	Mobile    string `json:"mobile"`
	Year      string `json:"year"`
	PaidEntry bool   `json:"paid_entry"`
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: student name is required", club.ErrValidation)
	}
	return nil
}

// FormatStudentID renders the zero-padded sequential id of the n-th student.
func FormatStudentID(n int) string {
	return fmt.Sprintf("%05d", n)
}
