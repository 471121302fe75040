package batch

import (
	"database/sql"
	"sync"

	"github.com/mauv0809/chess-club/internal/ledger"
	"github.com/mauv0809/chess-club/internal/roster"
)

// Handle is an open batch. It is passed explicitly to every operation that
// touches batch data.
type Handle struct {
	// ID is the batch name as entered; Key is its slug, used to name the
	// store and to tag matches.
	ID     string
	Key    string
	DB     *sql.DB
	Roster roster.Store
	Ledger ledger.Store

	teardown func()
}

// Registry opens batch stores by name and caches the handles.
type Registry struct {
	dataDir     string
	urlTemplate string
	authToken   string

	mu      sync.Mutex
	handles map[string]*Handle
}
