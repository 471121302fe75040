package tournament

import (
	"context"

	"github.com/mauv0809/chess-club/internal/batch"
)

// Registry resolves batch names to open handles.
type Registry interface {
	Open(ctx context.Context, name string) (*batch.Handle, error)
	List(ctx context.Context) ([]string, error)
}
