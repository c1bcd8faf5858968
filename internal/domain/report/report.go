// Package report holds the performance summary returned with every federated search.
package report

import "github.com/kailas-cloud/fedsearch/internal/domain/store"

// StoreSummary describes how one store fared.
type StoreSummary struct {
	Succeeded bool
	Count     int
	Error     string
	ElapsedMs int64
}

// Report is the performance and diagnostic summary of one federated search.
type Report struct {
	ElapsedMs        int64
	TotalResultCount int
	Stores           map[store.ID]StoreSummary
	// Order lists the stores in configured order.
	Order []store.ID
}

// Failed returns the identifiers of stores that did not succeed, in configured order.
func (r Report) Failed() []store.ID {
	var failed []store.ID
	for _, id := range r.Order {
		if s, ok := r.Stores[id]; ok && !s.Succeeded {
			failed = append(failed, id)
		}
	}
	return failed
}
