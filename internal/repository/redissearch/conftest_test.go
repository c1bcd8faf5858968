package redissearch

import (
	"context"
	"sync"
	"testing"

	"github.com/kailas-cloud/fedsearch/internal/db"
	"github.com/kailas-cloud/fedsearch/internal/domain/search/mode"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	mu sync.Mutex

	pingErr       error
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchBM25Fn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	indexExists   bool
	createErr     error
	createdIndex  *db.IndexDefinition
	hsetItems     []db.HashSetItem
	hsetErr       error
	indexExistErr error
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchBM25Fn != nil {
		return m.searchBM25Fn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hsetItems = append(m.hsetItems, items...)
	return m.hsetErr
}

func (m *mockStore) Del(context.Context, string) error { return nil }

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createdIndex = def
	return m.createErr
}

func (m *mockStore) DropIndex(context.Context, string) error { return nil }

func (m *mockStore) IndexExists(context.Context, string) (bool, error) {
	return m.indexExists, m.indexExistErr
}

// mockEmbedder returns a fixed vector and counts calls.
type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
	mu    sync.Mutex
}

func (m *mockEmbedder) Embed(context.Context, string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.vec, m.err
}

func newTestRepo(t *testing.T, md mode.Mode) (*Repo, *mockStore, *mockEmbedder) {
	t.Helper()
	ms := &mockStore{}
	me := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	repo, err := New(ms, me, Config{Name: "vectors", Mode: md, TopK: 10, Dimensions: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return repo, ms, me
}

func entry(key string, score float64, content string) db.SearchEntry {
	return db.SearchEntry{Key: key, Score: score, Fields: map[string]string{db.FieldContent: content}}
}
