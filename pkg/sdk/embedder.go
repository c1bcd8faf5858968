package fedsearch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/fedsearch/internal/domain"
	"github.com/kailas-cloud/fedsearch/internal/repository/redissearch"
)

// Embedder converts text to vector embeddings.
// Required for semantic and hybrid Redis stores; other stores never call it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder vectorizes multiple texts in a single call.
// Optional: if the provided Embedder also implements BatchEmbedder,
// Index uses it for documents without a vector.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// embedderAdapter reports the configured dimensions to the Redis store and
// tags provider failures with ErrEmbeddingProviderError.
type embedderAdapter struct {
	inner Embedder
	dims  int
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := a.inner.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return v, nil
}

func (a *embedderAdapter) Dimensions() int { return a.dims }

type batchEmbedderAdapter struct {
	*embedderAdapter
	batch BatchEmbedder
}

func (a *batchEmbedderAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := a.batch.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return vecs, nil
}

// adaptEmbedder returns nil (an untyped nil interface) when e is nil.
func adaptEmbedder(e Embedder, dims int) redissearch.Embedder {
	if e == nil {
		return nil
	}
	base := &embedderAdapter{inner: e, dims: dims}
	if b, ok := e.(BatchEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: base, batch: b}
	}
	return base
}
