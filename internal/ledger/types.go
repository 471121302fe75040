package ledger

import (
	"database/sql"
	"sync"
	"time"
)

const (
	activeTable  = "matches"
	historyTable = "match_history"

	dateLayout = "2006-01-02"
)

// store handles match and scoring database operations for one batch.
type store struct {
	db      *sql.DB
	batchID string
	now     func() time.Time
	mu      sync.RWMutex
}
