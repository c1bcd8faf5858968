package federated

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fedsearch/internal/domain"
	"github.com/kailas-cloud/fedsearch/internal/domain/query"
	"github.com/kailas-cloud/fedsearch/internal/domain/report"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
	"github.com/kailas-cloud/fedsearch/internal/logger"
	"github.com/kailas-cloud/fedsearch/internal/metrics"
)

// Defaults used when no option overrides them.
const (
	DefaultTimeout    = time.Second
	DefaultMaxTimeout = 10 * time.Second
)

// Result is the merged output of a successful federated search.
type Result struct {
	Rows        []store.Row
	Performance report.Report
}

// Service runs one query against every configured store under a deadline.
type Service struct {
	backends       []Backend
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	maxQueryLength int
	logger         *zap.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithDefaultTimeout sets the deadline used when the caller passes none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Service) { s.defaultTimeout = d }
}

// WithMaxTimeout caps the deadline a caller may request.
func WithMaxTimeout(d time.Duration) Option {
	return func(s *Service) { s.maxTimeout = d }
}

// WithMaxQueryLength sets the query length limit in runes.
func WithMaxQueryLength(n int) Option {
	return func(s *Service) { s.maxQueryLength = n }
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a federated search service over backends, queried and merged in the given order.
// The slice is copied; later changes by the caller are not observed.
func New(backends []Backend, opts ...Option) *Service {
	s := &Service{
		backends:       append([]Backend(nil), backends...),
		defaultTimeout: DefaultTimeout,
		maxTimeout:     DefaultMaxTimeout,
		maxQueryLength: query.DefaultMaxLength,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxTimeout < s.defaultTimeout {
		s.maxTimeout = s.defaultTimeout
	}
	return s
}

// Stores returns the configured store identifiers in query order.
func (s *Service) Stores() []store.ID {
	ids := make([]store.ID, len(s.backends))
	for i, b := range s.backends {
		ids[i] = b.ID
	}
	return ids
}

// Orchestrate runs text against every store concurrently and merges the rows.
//
// A store failure is reported in the performance summary and never fails the
// call. The call fails only with domain.ErrInvalidQuery (bad input, rejected
// before any store is contacted), domain.ErrTimeout (deadline hit; rows from
// stores that had already answered are discarded), or context.Canceled when
// ctx is cancelled by the caller. timeout <= 0 selects the default deadline.
func (s *Service) Orchestrate(ctx context.Context, text string, timeout time.Duration) (Result, error) {
	start := time.Now()
	log := logger.FromContextOr(ctx, s.logger)

	q, err := query.New(text, s.maxQueryLength)
	if err != nil {
		s.record(metrics.ResultInvalid, start)
		return Result{}, err
	}

	timeout, err = s.resolveTimeout(timeout)
	if err != nil {
		s.record(metrics.ResultInvalid, start)
		return Result{}, err
	}

	backends := s.backends
	res, err := guard(ctx, timeout, func(ctx context.Context) fanOutResult {
		return fanOut(ctx, log, backends, q)
	})
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			s.record(metrics.ResultTimeout, start)
			log.Warn("federated search timed out",
				zap.Duration("timeout", timeout),
				zap.Int("stores", len(backends)),
			)
		} else {
			s.record(metrics.ResultCancelled, start)
			log.Info("federated search cancelled", zap.Error(err))
		}
		return Result{}, err
	}

	perf := assemble(start, time.Now(), res.rows, res.outcomes)
	s.record(metrics.ResultSuccess, start)
	log.Debug("federated search completed",
		zap.Int64("elapsed_ms", perf.ElapsedMs),
		zap.Int("total", perf.TotalResultCount),
		zap.Int("failed_stores", len(perf.Failed())),
	)

	return Result{Rows: res.rows, Performance: perf}, nil
}

func (s *Service) resolveTimeout(timeout time.Duration) (time.Duration, error) {
	if timeout <= 0 {
		return s.defaultTimeout, nil
	}
	if timeout > s.maxTimeout {
		return 0, fmt.Errorf("%w: timeout %s exceeds maximum %s",
			domain.ErrInvalidQuery, timeout, s.maxTimeout)
	}
	return timeout, nil
}

func (s *Service) record(result string, start time.Time) {
	metrics.OrchestrationsTotal.WithLabelValues(result).Inc()
	metrics.OrchestrationDuration.Observe(time.Since(start).Seconds())
}
