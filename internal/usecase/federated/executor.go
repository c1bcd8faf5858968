package federated

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fedsearch/internal/domain/outcome"
	"github.com/kailas-cloud/fedsearch/internal/domain/query"
	"github.com/kailas-cloud/fedsearch/internal/metrics"
)

// execute calls one backend and always returns an outcome.
// Errors and panics raised by the client become a Failure; nothing propagates.
func execute(ctx context.Context, log *zap.Logger, b Backend, q query.Query) (out outcome.Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out = outcome.Failure(b.ID, fmt.Sprintf("panic: %v", r), time.Since(start))
		}
		observe(log, out)
	}()

	rows, err := b.Client.Execute(ctx, q.Text())
	if err != nil {
		return outcome.Failure(b.ID, err.Error(), time.Since(start))
	}
	return outcome.Success(b.ID, rows, time.Since(start))
}

// observe logs and records metrics for one store call.
func observe(log *zap.Logger, out outcome.Outcome) {
	name := out.Store().String()
	metrics.StoreRequestDuration.WithLabelValues(name).Observe(out.Elapsed().Seconds())

	if !out.Succeeded() {
		metrics.StoreRequestsTotal.WithLabelValues(name, metrics.StatusError).Inc()
		log.Warn("store query failed",
			zap.String("store", name),
			zap.Bool("succeeded", false),
			zap.Duration("duration", out.Elapsed()),
			zap.String("error", out.Error()),
		)
		return
	}

	metrics.StoreRequestsTotal.WithLabelValues(name, metrics.StatusOK).Inc()
	metrics.StoreRowsTotal.WithLabelValues(name).Add(float64(out.Count()))
	log.Debug("store query completed",
		zap.String("store", name),
		zap.Bool("succeeded", true),
		zap.Int("count", out.Count()),
		zap.Duration("duration", out.Elapsed()),
	)
}
