package fedsearch

import (
	"time"

	"github.com/kailas-cloud/fedsearch/internal/domain/search/mode"
)

// RedisMode selects how a Redis store answers a query.
type RedisMode string

// Redis mode constants.
const (
	ModeKeyword  RedisMode = RedisMode(mode.Keyword)
	ModeSemantic RedisMode = RedisMode(mode.Semantic)
	ModeHybrid   RedisMode = RedisMode(mode.Hybrid)
)

// Document is a record indexed into every writable store.
// An empty ID is replaced with a random UUID.
type Document struct {
	ID      string
	Title   string
	Content string
	Tags    map[string]string
}

// Row is one opaque result row. Every row carries "id", "score", "content"
// and "source" (the store that produced it).
type Row map[string]any

// StoreSummary describes how one store fared in a search.
type StoreSummary struct {
	Succeeded bool
	Count     int
	Error     string
	Elapsed   time.Duration
}

// Performance is the per-search diagnostic summary.
type Performance struct {
	Elapsed          time.Duration
	TotalResultCount int
	Stores           map[string]StoreSummary
	// Order lists store names in query order.
	Order []string
}

// Failed returns the names of stores that did not succeed, in query order.
func (p Performance) Failed() []string {
	var failed []string
	for _, name := range p.Order {
		if s, ok := p.Stores[name]; ok && !s.Succeeded {
			failed = append(failed, name)
		}
	}
	return failed
}

// SearchResult is a successful federated search. Rows are grouped by store
// in query order, each store's rows in the order it returned them.
type SearchResult struct {
	Rows        []Row
	Performance Performance
}

// IndexResult reports how one store handled an Index call.
type IndexResult struct {
	Store   string
	Indexed int
	Elapsed time.Duration
	Err     error
}

// HealthStatus represents the aggregated health of the stores.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // store -> "ok"/"error"
}
