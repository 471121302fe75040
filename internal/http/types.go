package http

import (
	"context"
	"net/http"

	"github.com/mauv0809/chess-club/internal/batch"
	"github.com/mauv0809/chess-club/internal/config"
	"github.com/mauv0809/chess-club/internal/metrics"
	"github.com/mauv0809/chess-club/internal/notifier"
	"github.com/mauv0809/chess-club/internal/pubsub"
	"github.com/mauv0809/chess-club/internal/tournament"
)

// Batches opens and lists batch stores.
type Batches interface {
	Open(ctx context.Context, name string) (*batch.Handle, error)
	Create(ctx context.Context, name string) (*batch.Handle, error)
	List(ctx context.Context) ([]string, error)
}

type Server struct {
	Batches        Batches
	Tournament     *tournament.Service
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Notifier       notifier.Notifier
	Cfg            config.Config
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}

type errorResponse struct {
	Error string `json:"error"`
}

type batchResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type createMatchRequest struct {
	Student1ID string `json:"student1_id"`
	Student2ID string `json:"student2_id"`
}

type resultRequest struct {
	Outcome string `json:"outcome"`
}

// pushRequest is the envelope of a Pub/Sub push delivery.
type pushRequest struct {
	Subscription string `json:"subscription"`
	Message      struct {
		Data       string            `json:"data"` // base64-encoded msgpack payload
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
}
