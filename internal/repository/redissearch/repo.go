// Package redissearch is a backend store over Redis Search. One store runs a
// single dialect: BM25 keyword matching, KNN over embeddings, or both fused
// with Reciprocal Rank Fusion.
package redissearch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/fedsearch/internal/db"
	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	"github.com/kailas-cloud/fedsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/fedsearch/internal/domain/search/result"
	domstore "github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// DefaultTopK is the hit limit when none is configured.
const DefaultTopK = 20

// store is the consumer interface over the Redis driver (ISP).
type store interface {
	db.Pinger
	db.HashStore
	db.IndexManager
	db.Searcher
}

// Embedder vectorizes text for semantic and hybrid modes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by embedders that vectorize many texts per request.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Config describes one Redis Search store.
type Config struct {
	Name       domstore.ID
	Index      string // FT index name
	Prefix     string // document key prefix
	Mode       mode.Mode
	TopK       int
	Dimensions int // vector DIM; required for semantic and hybrid
}

// Repo runs queries in one dialect against a Redis Search index.
type Repo struct {
	store store
	embed Embedder
	cfg   Config
}

// New creates a Redis Search store. embed may be nil in keyword mode.
func New(s store, embed Embedder, cfg Config) (*Repo, error) {
	if cfg.Mode == "" {
		cfg.Mode = mode.Keyword
	}
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("unsupported search mode %q", cfg.Mode)
	}
	if cfg.Mode.NeedsEmbedding() && embed == nil {
		return nil, fmt.Errorf("%s mode requires an embedder", cfg.Mode)
	}
	if cfg.Index == "" {
		cfg.Index = "fedsearch:" + string(cfg.Name) + ":idx"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "fedsearch:" + string(cfg.Name) + ":"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Repo{store: s, embed: embed, cfg: cfg}, nil
}

// Execute runs query in the configured mode and returns rows ranked best first.
func (r *Repo) Execute(ctx context.Context, query string) ([]domstore.Row, error) {
	results, err := r.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return result.Rows(r.cfg.Name, results), nil
}

// Search runs query in the configured mode.
func (r *Repo) Search(ctx context.Context, query string) ([]result.Result, error) {
	switch r.cfg.Mode {
	case mode.Keyword:
		return r.searchKeyword(ctx, query)
	case mode.Semantic:
		return r.searchSemantic(ctx, query)
	case mode.Hybrid:
		return r.searchHybrid(ctx, query)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", r.cfg.Mode)
	}
}

// Ping checks that Redis answers.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx) //nolint:wrapcheck // driver error already carries context
}

func (r *Repo) searchKeyword(ctx context.Context, query string) ([]result.Result, error) {
	sr, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName: r.cfg.Index,
		Query:     query,
		Fields:    []string{db.FieldTitle, db.FieldContent},
		TopK:      r.cfg.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w", err)
	}
	return r.parseResults(sr), nil
}

func (r *Repo) searchSemantic(ctx context.Context, query string) ([]result.Result, error) {
	vec, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return r.searchKNN(ctx, vec)
}

func (r *Repo) searchKNN(ctx context.Context, vec []float32) ([]result.Result, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.Index,
		Vector:       vec,
		K:            r.cfg.TopK,
		ReturnFields: []string{db.FieldTitle, db.FieldContent, "__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return r.parseResults(sr), nil
}

// searchHybrid runs KNN and BM25 concurrently, then fuses via RRF.
// Either side failing fails the whole store.
func (r *Repo) searchHybrid(ctx context.Context, query string) ([]result.Result, error) {
	var knn, bm25 []result.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		knn, err = r.searchSemantic(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		bm25, err = r.searchKeyword(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // both branches wrap already
	}

	return fuseRRF(knn, bm25, r.cfg.TopK), nil
}

// parseResults converts db entries into hits, stripping the key prefix.
// Tag fields (tag:<name>) become tags; the vector blob is dropped.
func (r *Repo) parseResults(sr *db.SearchResult) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	results := make([]result.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		var title, content string
		var tags map[string]string

		for k, v := range entry.Fields {
			switch {
			case k == db.FieldContent:
				content = v
			case k == db.FieldTitle:
				title = v
			case strings.HasPrefix(k, db.FieldTagPrefix):
				if tags == nil {
					tags = make(map[string]string)
				}
				tags[strings.TrimPrefix(k, db.FieldTagPrefix)] = v
			}
		}

		docID := strings.TrimPrefix(entry.Key, r.cfg.Prefix)
		results = append(results, result.New(docID, entry.Score, title, content, tags))
	}
	return results
}

// EnsureIndex creates the FT index when it is missing.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.cfg.Index)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	b := db.NewIndex(r.cfg.Index).
		Prefix(r.cfg.Prefix).
		WeightedText(db.FieldTitle, 2).
		Text(db.FieldContent)
	if r.cfg.Mode.NeedsEmbedding() {
		b = b.VectorHNSW(db.FieldVector, r.cfg.Dimensions, db.DistanceCosine, 16, 200)
	}
	def, err := b.Build()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Index upserts documents as hashes, embedding them first in semantic and hybrid modes.
func (r *Repo) Index(ctx context.Context, docs []domdoc.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := r.EnsureIndex(ctx); err != nil {
		return err
	}

	var vectors [][]float32
	if r.cfg.Mode.NeedsEmbedding() {
		var err error
		if vectors, err = r.vectorize(ctx, docs); err != nil {
			return err
		}
	}

	items := make([]db.HashSetItem, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		fields := map[string]string{db.FieldContent: d.Content()}
		if d.Title() != "" {
			fields[db.FieldTitle] = d.Title()
		}
		for k, v := range d.Tags() {
			fields[db.FieldTagPrefix+k] = v
		}
		if vectors != nil {
			fields[db.FieldVector] = db.EncodeVector(vectors[i])
		}
		items = append(items, db.HashSetItem{Key: r.cfg.Prefix + d.ID(), Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store documents: %w", err)
	}
	return nil
}

// vectorize returns one vector per document, reusing vectors already set and
// embedding the rest in a single batch when the embedder supports it.
func (r *Repo) vectorize(ctx context.Context, docs []domdoc.Document) ([][]float32, error) {
	vectors := make([][]float32, len(docs))
	var missing []int
	for i := range docs {
		if v := docs[i].Vector(); v != nil {
			vectors[i] = v
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	if be, ok := r.embed.(BatchEmbedder); ok {
		texts := make([]string, len(missing))
		for j, i := range missing {
			texts[j] = docs[i].Text()
		}
		vecs, err := be.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("vectorize documents: %w", err)
		}
		if len(vecs) != len(missing) {
			return nil, fmt.Errorf("vectorize documents: got %d vectors for %d documents", len(vecs), len(missing))
		}
		for j, i := range missing {
			vectors[i] = vecs[j]
		}
		return vectors, nil
	}

	for _, i := range missing {
		vec, err := r.embed.Embed(ctx, docs[i].Text())
		if err != nil {
			return nil, fmt.Errorf("vectorize document %s: %w", docs[i].ID(), err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Name returns the store identifier.
func (r *Repo) Name() domstore.ID { return r.cfg.Name }
