package ingest

import (
	"context"

	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// Indexer writes documents into one backend store.
type Indexer interface {
	Index(ctx context.Context, docs []domdoc.Document) error
}

// Target is a named store that accepts documents.
type Target struct {
	ID      store.ID
	Indexer Indexer
}
