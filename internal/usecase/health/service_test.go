package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err   error
	delay time.Duration
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New([]Probe{
		{ID: "primary", Pinger: &mockPinger{}},
		{ID: "cache", Pinger: &mockPinger{}},
	}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"primary", "cache", EmbeddingCheck} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_OneStoreDown(t *testing.T) {
	svc := New([]Probe{
		{ID: "primary", Pinger: &mockPinger{}},
		{ID: "cache", Pinger: &mockPinger{err: errors.New("conn refused")}},
	}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
	if _, ok := r.Checks[EmbeddingCheck]; ok {
		t.Error("embedding check should be absent when no checker is configured")
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New([]Probe{{ID: "primary", Pinger: &mockPinger{}}}, &mockEmbeddingChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[EmbeddingCheck] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[EmbeddingCheck])
	}
}

func TestCheck_AllFail(t *testing.T) {
	svc := New(
		[]Probe{{ID: "primary", Pinger: &mockPinger{err: errors.New("db down")}}},
		&mockEmbeddingChecker{err: errors.New("emb down")},
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_SlowProbeTimesOut(t *testing.T) {
	svc := New([]Probe{
		{ID: "slow", Pinger: &mockPinger{delay: time.Second}},
		{ID: "fast", Pinger: &mockPinger{}},
	}, nil).WithTimeout(20 * time.Millisecond)

	start := time.Now()
	r := svc.Check(context.Background())

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("check took %v, probe timeout not applied", elapsed)
	}
	if r.Checks["slow"] != CheckError || r.Checks["fast"] != CheckOK {
		t.Errorf("checks = %v", r.Checks)
	}
}

func TestCheck_NoProbes(t *testing.T) {
	r := New(nil, nil).Check(context.Background())
	if r.Status != Healthy || len(r.Checks) != 0 {
		t.Errorf("report = %+v", r)
	}
}
