// Package health probes every configured store and the embedding provider.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// DefaultCheckTimeout bounds a single probe.
const DefaultCheckTimeout = 2 * time.Second

// EmbeddingCheck is the key of the embedding provider probe.
const EmbeddingCheck = "embedding"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Probe is one store to ping.
type Probe struct {
	ID     store.ID
	Pinger Pinger
}

// Service coordinates health checks.
type Service struct {
	probes    []Probe
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. embedding can be nil.
func New(probes []Probe, embedding EmbeddingChecker) *Service {
	return &Service{
		probes:    append([]Probe(nil), probes...),
		embedding: embedding,
		timeout:   DefaultCheckTimeout,
	}
}

// WithTimeout overrides the per-probe timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check probes all components concurrently. The report is Unhealthy only when
// every probe fails; any single failure makes it Degraded.
func (s *Service) Check(ctx context.Context) Report {
	type named struct {
		name  string
		check func(context.Context) error
	}
	checks := make([]named, 0, len(s.probes)+1)
	for _, p := range s.probes {
		checks = append(checks, named{name: p.ID.String(), check: p.Pinger.Ping})
	}
	if s.embedding != nil {
		checks = append(checks, named{name: EmbeddingCheck, check: s.embedding.HealthCheck})
	}

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			if err := c.check(cctx); err != nil {
				results[i] = CheckError
				return
			}
			results[i] = CheckOK
		}()
	}
	wg.Wait()

	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(checks))}
	failed := 0
	for i, c := range checks {
		report.Checks[c.name] = results[i]
		if results[i] == CheckError {
			failed++
		}
	}
	switch {
	case len(checks) > 0 && failed == len(checks):
		report.Status = Unhealthy
	case failed > 0:
		report.Status = Degraded
	}
	return report
}
