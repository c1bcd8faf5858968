package fedsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	"github.com/kailas-cloud/fedsearch/internal/domain/report"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
	"github.com/kailas-cloud/fedsearch/internal/registry"
	"github.com/kailas-cloud/fedsearch/internal/usecase/federated"
	healthuc "github.com/kailas-cloud/fedsearch/internal/usecase/health"
	"github.com/kailas-cloud/fedsearch/internal/usecase/ingest"
)

// Internal interfaces for substitution in tests.
type searchUseCase interface {
	Orchestrate(ctx context.Context, text string, timeout time.Duration) (federated.Result, error)
	Stores() []store.ID
}

type ingestUseCase interface {
	Ingest(ctx context.Context, docs []domdoc.Document) []ingest.Result
	Release()
}

// Client is the fedsearch SDK entry point.
type Client struct {
	closeStores func() error
	searchSvc   searchUseCase
	ingestSvc   ingestUseCase
	healthSvc   healthUseCase
	obs         *observer
}

// New opens every configured store and wires the federated search over them.
// A store that cannot be opened does not fail New: it stays in the federation
// and is reported as failed by every Search. The context bounds store
// readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	if len(cc.stores) == 0 {
		return nil, errors.New("fedsearch: at least one store required (use WithSQLite, WithBadger or WithRedis)")
	}
	cfg := cc.toConfig()
	if err := cfg.ValidateStores(); err != nil {
		return nil, fmt.Errorf("fedsearch: %w", err)
	}
	if cfg.Federation.MaxTimeout() < cfg.Federation.DefaultTimeout() {
		return nil, fmt.Errorf("fedsearch: max timeout %s is below default %s",
			cfg.Federation.MaxTimeout(), cfg.Federation.DefaultTimeout())
	}

	log := cc.logger
	if log == nil {
		log = zap.NewNop()
	}
	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(ctx, cfg.Stores, registry.Deps{
		Embedder: adaptEmbedder(cc.embedder, cc.vectorDimensions),
		Logger:   log,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("fedsearch: %w", err)
	}

	ingestSvc, err := ingest.New(reg.Targets(), cfg.Federation.IngestPoolSize,
		ingest.WithBatchSize(cfg.Federation.IngestBatchSize),
		ingest.WithLogger(log),
	)
	if err != nil {
		_ = reg.Close()
		return nil, fmt.Errorf("fedsearch: %w", err)
	}

	return &Client{
		closeStores: reg.Close,
		searchSvc: federated.New(reg.Backends(),
			federated.WithDefaultTimeout(cfg.Federation.DefaultTimeout()),
			federated.WithMaxTimeout(cfg.Federation.MaxTimeout()),
			federated.WithMaxQueryLength(cfg.Federation.MaxQueryLength),
			federated.WithLogger(log),
		),
		ingestSvc: ingestSvc,
		healthSvc: healthuc.New(reg.Probes(), nil),
		obs:       obs,
	}, nil
}

// Close releases the ingest pool and closes every store.
func (c *Client) Close() error {
	if c.ingestSvc != nil {
		c.ingestSvc.Release()
	}
	if c.closeStores == nil {
		return nil
	}
	if err := c.closeStores(); err != nil {
		return fmt.Errorf("fedsearch: close: %w", err)
	}
	return nil
}

// Search runs text against every store under one deadline. timeout <= 0 uses
// the default. Store failures are reported in Performance, not returned.
// Errors: ErrInvalidQuery, ErrTimeout (no partial rows), or the context error
// when ctx ends first.
func (c *Client) Search(ctx context.Context, text string, timeout time.Duration) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	out, err := c.searchSvc.Orchestrate(ctx, text, timeout)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return searchResultFromDomain(out), nil
}

// Stores returns the store names in query order.
func (c *Client) Stores() []string {
	return idsToStrings(c.searchSvc.Stores())
}

// Index writes docs to every store that accepts writes. A failing store does
// not stop the others; its IndexResult carries the error. The returned error
// is non-nil only for invalid documents or when every store failed.
func (c *Client) Index(ctx context.Context, docs []Document) (results []IndexResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index", start, err) }()

	domDocs, err := documentsToDomain(docs)
	if err != nil {
		return nil, err
	}

	results = indexResultsFromDomain(c.ingestSvc.Ingest(ctx, domDocs))
	if len(results) == 0 {
		return nil, errors.New("index: no writable store is available")
	}
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Store, r.Err))
		}
	}
	if len(errs) == len(results) {
		return results, fmt.Errorf("index failed on every store: %w", errors.Join(errs...))
	}
	return results, nil
}

// --- converters ---

func documentsToDomain(docs []Document) ([]domdoc.Document, error) {
	out := make([]domdoc.Document, 0, len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		dd, err := domdoc.New(id, d.Title, d.Content, d.Tags)
		if err != nil {
			return nil, fmt.Errorf("documents[%d]: %w", i, err)
		}
		out = append(out, dd)
	}
	return out, nil
}

func searchResultFromDomain(r federated.Result) SearchResult {
	rows := make([]Row, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = Row(row)
	}
	return SearchResult{Rows: rows, Performance: performanceFromDomain(r.Performance)}
}

func performanceFromDomain(r report.Report) Performance {
	p := Performance{
		Elapsed:          time.Duration(r.ElapsedMs) * time.Millisecond,
		TotalResultCount: r.TotalResultCount,
		Stores:           make(map[string]StoreSummary, len(r.Stores)),
		Order:            idsToStrings(r.Order),
	}
	for id, s := range r.Stores {
		p.Stores[id.String()] = StoreSummary{
			Succeeded: s.Succeeded,
			Count:     s.Count,
			Error:     s.Error,
			Elapsed:   time.Duration(s.ElapsedMs) * time.Millisecond,
		}
	}
	return p
}

func indexResultsFromDomain(results []ingest.Result) []IndexResult {
	out := make([]IndexResult, len(results))
	for i, r := range results {
		out[i] = IndexResult{Store: r.Store.String(), Indexed: r.Indexed, Elapsed: r.Elapsed, Err: r.Err}
	}
	return out
}

func idsToStrings(ids []store.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
