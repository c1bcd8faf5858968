package fedsearch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/fedsearch/internal/domain"
	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	"github.com/kailas-cloud/fedsearch/internal/domain/report"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
	"github.com/kailas-cloud/fedsearch/internal/usecase/federated"
	healthuc "github.com/kailas-cloud/fedsearch/internal/usecase/health"
	"github.com/kailas-cloud/fedsearch/internal/usecase/ingest"
)

func newMockClient(t *testing.T, s searchUseCase, i ingestUseCase, h healthUseCase) (*Client, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	return &Client{searchSvc: s, ingestSvc: i, healthSvc: h, obs: obs}, reg
}

func TestSearch_Converts(t *testing.T) {
	var gotTimeout time.Duration
	s := &mockSearchUC{orchestrateFn: func(_ context.Context, _ string, timeout time.Duration) (federated.Result, error) {
		gotTimeout = timeout
		return federated.Result{
			Rows: []store.Row{{"id": "1", "source": "primary"}},
			Performance: report.Report{
				ElapsedMs:        7,
				TotalResultCount: 1,
				Stores: map[store.ID]report.StoreSummary{
					"primary": {Succeeded: true, Count: 1, ElapsedMs: 5},
					"cache":   {Error: "down", ElapsedMs: 1},
				},
				Order: []store.ID{"primary", "cache"},
			},
		}, nil
	}}
	c, _ := newMockClient(t, s, nil, nil)

	res, err := c.Search(context.Background(), "q", 300*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTimeout != 300*time.Millisecond {
		t.Errorf("timeout = %v", gotTimeout)
	}
	if len(res.Rows) != 1 || res.Rows[0]["source"] != "primary" {
		t.Errorf("rows = %v", res.Rows)
	}
	if res.Performance.Elapsed != 7*time.Millisecond {
		t.Errorf("elapsed = %v", res.Performance.Elapsed)
	}
	if failed := res.Performance.Failed(); len(failed) != 1 || failed[0] != "cache" {
		t.Errorf("failed = %v", failed)
	}
}

func TestSearch_ErrorsAreObserved(t *testing.T) {
	s := &mockSearchUC{orchestrateFn: func(context.Context, string, time.Duration) (federated.Result, error) {
		return federated.Result{}, domain.NewTimeout(time.Second)
	}}
	c, reg := newMockClient(t, s, nil, nil)

	_, err := c.Search(context.Background(), "q", 0)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	n, err := testutil.GatherAndCount(reg, "fedsearch_sdk_operations_total")
	if err != nil || n != 1 {
		t.Errorf("operations series = %d (%v), want 1", n, err)
	}
	m, _ := newSDKMetrics(reg)
	if v := testutil.ToFloat64(m.operations.WithLabelValues("search", "error")); v != 1 {
		t.Errorf("search errors = %v, want 1", v)
	}
}

func TestStores(t *testing.T) {
	c, _ := newMockClient(t, &mockSearchUC{stores: []store.ID{"b", "a"}}, nil, nil)
	got := c.Stores()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("Stores() = %v", got)
	}
}

func TestIndex_PartialFailure(t *testing.T) {
	var got []domdoc.Document
	i := &mockIngestUC{ingestFn: func(_ context.Context, docs []domdoc.Document) []ingest.Result {
		got = docs
		return []ingest.Result{
			{Store: "primary", Indexed: len(docs)},
			{Store: "cache", Err: errors.New("down")},
		}
	}}
	c, _ := newMockClient(t, nil, i, nil)

	res, err := c.Index(context.Background(), []Document{{ID: "a", Content: "x"}, {Content: "y"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID() != "a" || got[1].ID() == "" {
		t.Errorf("ingested docs = %+v", got)
	}
	if res[0].Indexed != 2 || res[1].Err == nil || res[1].Store != "cache" {
		t.Errorf("results = %+v", res)
	}
}

func TestIndex_AllFail(t *testing.T) {
	i := &mockIngestUC{ingestFn: func(context.Context, []domdoc.Document) []ingest.Result {
		return []ingest.Result{{Store: "primary", Err: errors.New("disk full")}}
	}}
	c, _ := newMockClient(t, nil, i, nil)

	res, err := c.Index(context.Background(), []Document{{ID: "a", Content: "x"}})
	if err == nil {
		t.Fatal("expected error when every store fails")
	}
	if len(res) != 1 {
		t.Errorf("results should still be returned, got %d", len(res))
	}
}

func TestIndex_InvalidDocument(t *testing.T) {
	called := false
	i := &mockIngestUC{ingestFn: func(context.Context, []domdoc.Document) []ingest.Result {
		called = true
		return nil
	}}
	c, _ := newMockClient(t, nil, i, nil)

	if _, err := c.Index(context.Background(), []Document{{ID: "a", Content: ""}}); err == nil {
		t.Fatal("expected validation error")
	}
	if called {
		t.Error("ingest must not run for invalid documents")
	}
}

func TestHealth(t *testing.T) {
	h := &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"primary": healthuc.CheckOK, "cache": healthuc.CheckError},
	}}
	c, _ := newMockClient(t, nil, nil, h)

	got := c.Health(context.Background())
	if got.Status != "degraded" || got.Checks["cache"] != "error" || got.Checks["primary"] != "ok" {
		t.Errorf("Health() = %+v", got)
	}
}

func TestClose_ReleasesPool(t *testing.T) {
	i := &mockIngestUC{}
	closed := false
	c := &Client{ingestSvc: i, closeStores: func() error { closed = true; return nil }}

	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !i.released || !closed {
		t.Errorf("released=%v closed=%v", i.released, closed)
	}
}

func TestRegisterOrReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.operations != second.operations {
		t.Error("expected the existing collector to be reused")
	}
}
