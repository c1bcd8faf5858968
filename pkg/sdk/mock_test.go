package fedsearch

import (
	"context"
	"time"

	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
	"github.com/kailas-cloud/fedsearch/internal/usecase/federated"
	healthuc "github.com/kailas-cloud/fedsearch/internal/usecase/health"
	"github.com/kailas-cloud/fedsearch/internal/usecase/ingest"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	orchestrateFn func(ctx context.Context, text string, timeout time.Duration) (federated.Result, error)
	stores        []store.ID
}

func (m *mockSearchUC) Orchestrate(ctx context.Context, text string, timeout time.Duration) (federated.Result, error) {
	return m.orchestrateFn(ctx, text, timeout)
}

func (m *mockSearchUC) Stores() []store.ID { return m.stores }

// --- ingestUseCase mock ---

type mockIngestUC struct {
	ingestFn func(ctx context.Context, docs []domdoc.Document) []ingest.Result
	released bool
}

func (m *mockIngestUC) Ingest(ctx context.Context, docs []domdoc.Document) []ingest.Result {
	return m.ingestFn(ctx, docs)
}

func (m *mockIngestUC) Release() { m.released = true }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return m.batchFn(ctx, texts)
}
