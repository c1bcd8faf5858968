package federated

import (
	"context"

	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// BackendClient runs one query string against a single backend store.
// Implementations report failures as errors; the orchestrator turns them into data.
type BackendClient interface {
	Execute(ctx context.Context, query string) ([]store.Row, error)
}

// Backend binds a configured store identifier to its client.
type Backend struct {
	ID     store.ID
	Client BackendClient
}
