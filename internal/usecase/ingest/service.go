// Package ingest loads documents into every store that supports indexing.
package ingest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// DefaultBatchSize is the number of documents handed to a store per Index call.
const DefaultBatchSize = 100

// Result reports how one store fared.
type Result struct {
	Store   store.ID
	Indexed int
	Elapsed time.Duration
	Err     error
}

// Service indexes documents into all targets concurrently on a bounded pool.
// A failing store does not stop the others.
type Service struct {
	targets   []Target
	pool      *ants.Pool
	batchSize int
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize sets the documents-per-call limit.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an ingest service with a worker pool of poolSize goroutines.
// poolSize <= 0 uses half the CPUs, at least one.
func New(targets []Target, poolSize int, opts ...Option) (*Service, error) {
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU()/2, 1)
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	s := &Service{
		targets:   append([]Target(nil), targets...),
		pool:      pool,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ingest indexes docs into every target and returns one Result per target,
// in target order.
func (s *Service) Ingest(ctx context.Context, docs []domdoc.Document) []Result {
	results := make([]Result, len(s.targets))
	var wg sync.WaitGroup

	for i, t := range s.targets {
		results[i].Store = t.ID
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[i] = s.indexInto(ctx, t, docs)
		})
		if err != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("schedule %s: %w", t.ID, err)
		}
	}
	wg.Wait()
	return results
}

func (s *Service) indexInto(ctx context.Context, t Target, docs []domdoc.Document) Result {
	start := time.Now()
	res := Result{Store: t.ID}

	for lo := 0; lo < len(docs); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(docs))
		if err := t.Indexer.Index(ctx, docs[lo:hi]); err != nil {
			res.Err = fmt.Errorf("index into %s: %w", t.ID, err)
			break
		}
		res.Indexed = hi
	}
	res.Elapsed = time.Since(start)

	if res.Err != nil {
		s.logger.Warn("ingest failed",
			zap.String("store", t.ID.String()),
			zap.Int("indexed", res.Indexed),
			zap.Error(res.Err),
		)
	} else {
		s.logger.Info("ingest completed",
			zap.String("store", t.ID.String()),
			zap.Int("indexed", res.Indexed),
			zap.Duration("elapsed", res.Elapsed),
		)
	}
	return res
}

// Stores returns the target identifiers in order.
func (s *Service) Stores() []store.ID {
	ids := make([]store.ID, len(s.targets))
	for i, t := range s.targets {
		ids[i] = t.ID
	}
	return ids
}

// Release stops the worker pool.
func (s *Service) Release() {
	s.pool.Release()
}
