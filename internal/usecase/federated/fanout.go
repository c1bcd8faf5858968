package federated

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fedsearch/internal/domain/outcome"
	"github.com/kailas-cloud/fedsearch/internal/domain/query"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// fanOutResult is the merged output of one fan-out, owned by a single request.
type fanOutResult struct {
	rows     []store.Row
	outcomes []outcome.Outcome
}

// fanOut queries every backend concurrently and waits for all of them.
// Each goroutine writes only its own slot, so no locking is needed and the
// merged rows follow backend order regardless of completion order.
func fanOut(ctx context.Context, log *zap.Logger, backends []Backend, q query.Query) fanOutResult {
	outcomes := make([]outcome.Outcome, len(backends))

	var wg sync.WaitGroup
	for i, b := range backends {
		wg.Add(1)
		go func(idx int, b Backend) {
			defer wg.Done()
			outcomes[idx] = execute(ctx, log, b, q)
		}(i, b)
	}
	wg.Wait()

	return fanOutResult{rows: merge(outcomes), outcomes: outcomes}
}

// merge concatenates successful rows in outcome order.
func merge(outcomes []outcome.Outcome) []store.Row {
	total := 0
	for _, o := range outcomes {
		total += o.Count()
	}

	rows := make([]store.Row, 0, total)
	for _, o := range outcomes {
		if o.Succeeded() {
			rows = append(rows, o.Rows()...)
		}
	}
	return rows
}
