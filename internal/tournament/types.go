package tournament

import (
	"math/rand/v2"
	"sync"

	"github.com/mauv0809/chess-club/internal/club"
	"github.com/mauv0809/chess-club/internal/metrics"
	"github.com/mauv0809/chess-club/internal/notifier"
	"github.com/mauv0809/chess-club/internal/pubsub"
)

// Service runs tournament operations on a batch and fans out the side
// effects: metrics, notifications and events.
type Service struct {
	registry Registry
	notifier notifier.Notifier
	metrics  metrics.Metrics
	pubsub   pubsub.PubSubClient

	rngMu   sync.Mutex
	newRand func() *rand.Rand
}

// Dashboard summarizes a batch.
type Dashboard struct {
	Batch           string         `json:"batch"`
	Students        int            `json:"students"`
	Paid            int            `json:"paid"`
	ActiveMatches   int            `json:"active_matches"`
	PendingMatches  int            `json:"pending_matches"`
	ArchivedMatches int            `json:"archived_matches"`
	Top             []club.Student `json:"top"`
}

const dashboardTopN = 5
