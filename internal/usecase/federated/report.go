package federated

import (
	"time"

	"github.com/kailas-cloud/fedsearch/internal/domain/outcome"
	"github.com/kailas-cloud/fedsearch/internal/domain/report"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// assemble builds the performance report for one completed fan-out.
func assemble(start, end time.Time, rows []store.Row, outcomes []outcome.Outcome) report.Report {
	stores := make(map[store.ID]report.StoreSummary, len(outcomes))
	order := make([]store.ID, 0, len(outcomes))

	for _, o := range outcomes {
		stores[o.Store()] = report.StoreSummary{
			Succeeded: o.Succeeded(),
			Count:     o.Count(),
			Error:     o.Error(),
			ElapsedMs: o.Elapsed().Milliseconds(),
		}
		order = append(order, o.Store())
	}

	return report.Report{
		ElapsedMs:        max(end.Sub(start).Milliseconds(), 0),
		TotalResultCount: len(rows),
		Stores:           stores,
		Order:            order,
	}
}
