package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fedsearch/internal/domain"
	"github.com/kailas-cloud/fedsearch/internal/domain/report"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
	"github.com/kailas-cloud/fedsearch/internal/usecase/federated"
	healthuc "github.com/kailas-cloud/fedsearch/internal/usecase/health"
)

// --- Mocks ---

type mockSearcher struct {
	res         federated.Result
	err         error
	lastText    string
	lastTimeout time.Duration
	panicWith   any
}

func (m *mockSearcher) Orchestrate(_ context.Context, text string, timeout time.Duration) (federated.Result, error) {
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	m.lastText = text
	m.lastTimeout = timeout
	return m.res, m.err
}

func (m *mockSearcher) Stores() []store.ID { return []store.ID{"primary", "cache"} }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func successResult() federated.Result {
	return federated.Result{
		Rows: []store.Row{{"id": "1", "source": "primary"}, {"id": "2", "source": "primary"}},
		Performance: report.Report{
			ElapsedMs:        12,
			TotalResultCount: 2,
			Stores: map[store.ID]report.StoreSummary{
				"primary": {Succeeded: true, Count: 2, ElapsedMs: 10},
				"cache":   {Succeeded: false, Error: "connection refused", ElapsedMs: 5},
			},
			Order: []store.ID{"primary", "cache"},
		},
	}
}

func newTestRouter(s Searcher, apiKeys ...string) http.Handler {
	h := &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}}
	return NewRouter(NewServer(s, h, zap.NewNop()), apiKeys, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return e
}

// --- Tests ---

func TestSearchGet_OK(t *testing.T) {
	ms := &mockSearcher{res: successResult()}
	rr := do(t, newTestRouter(ms), http.MethodGet, "/api/v1/search?q=alpha&timeout_ms=250", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if ms.lastText != "alpha" || ms.lastTimeout != 250*time.Millisecond {
		t.Errorf("orchestrate called with %q, %v", ms.lastText, ms.lastTimeout)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Rows) != 2 || resp.Performance.TotalResultCount != 2 {
		t.Errorf("resp = %+v", resp)
	}
	cache := resp.Performance.Stores["cache"]
	if cache.Succeeded || cache.Error != "connection refused" {
		t.Errorf("cache summary = %+v", cache)
	}
	if len(resp.Performance.Order) != 2 || resp.Performance.Order[0] != "primary" {
		t.Errorf("order = %v", resp.Performance.Order)
	}
}

func TestSearchGet_DefaultTimeout(t *testing.T) {
	ms := &mockSearcher{res: successResult()}
	do(t, newTestRouter(ms), http.MethodGet, "/api/v1/search?q=alpha", "")
	if ms.lastTimeout != 0 {
		t.Errorf("timeout = %v, want 0 (service default)", ms.lastTimeout)
	}
}

func TestSearchGet_BadTimeout(t *testing.T) {
	for _, raw := range []string{"abc", "-5"} {
		rr := do(t, newTestRouter(&mockSearcher{}), http.MethodGet, "/api/v1/search?q=a&timeout_ms="+raw, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("timeout_ms=%s: status = %d", raw, rr.Code)
		}
		if e := decodeError(t, rr); e.Code != ErrorCodeValidationFailed {
			t.Errorf("timeout_ms=%s: code = %s", raw, e.Code)
		}
	}
}

func TestSearchPost_OK(t *testing.T) {
	ms := &mockSearcher{res: successResult()}
	rr := do(t, newTestRouter(ms), http.MethodPost, "/api/v1/search", `{"query":"beta","timeout_ms":500}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if ms.lastText != "beta" || ms.lastTimeout != 500*time.Millisecond {
		t.Errorf("orchestrate called with %q, %v", ms.lastText, ms.lastTimeout)
	}
}

func TestSearchPost_BadJSON(t *testing.T) {
	for _, body := range []string{`{"query":`, `{"query":"a","unknown":1}`} {
		rr := do(t, newTestRouter(&mockSearcher{}), http.MethodPost, "/api/v1/search", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d", body, rr.Code)
		}
		if e := decodeError(t, rr); e.Code != ErrorCodeBadRequest {
			t.Errorf("body %s: code = %s", body, e.Code)
		}
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
		msg    string
	}{
		{"validation", fmt.Errorf("%w: query is required", domain.ErrInvalidQuery),
			http.StatusBadRequest, ErrorCodeValidationFailed, "invalid query: query is required"},
		{"timeout", domain.NewTimeout(time.Second),
			http.StatusGatewayTimeout, ErrorCodeTimeout, "search timed out"},
		{"cancelled", fmt.Errorf("search cancelled: %w", context.Canceled),
			StatusClientClosedRequest, ErrorCodeCancelled, "context canceled"},
		{"internal", errors.New("boom: secret detail"),
			http.StatusInternalServerError, ErrorCodeInternalError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestRouter(&mockSearcher{err: tt.err}), http.MethodGet, "/api/v1/search?q=x", "")
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			e := decodeError(t, rr)
			if e.Code != tt.code || e.Message != tt.msg {
				t.Errorf("error = %+v, want %s %q", e, tt.code, tt.msg)
			}
		})
	}
}

func TestSearch_EmptyRowsEncodeAsArray(t *testing.T) {
	ms := &mockSearcher{res: federated.Result{Performance: report.Report{Stores: map[store.ID]report.StoreSummary{}}}}
	rr := do(t, newTestRouter(ms), http.MethodGet, "/api/v1/search?q=x", "")
	if !strings.Contains(rr.Body.String(), `"rows":[]`) {
		t.Errorf("body = %s", rr.Body)
	}
}

func TestListStores(t *testing.T) {
	rr := do(t, newTestRouter(&mockSearcher{}), http.MethodGet, "/api/v1/stores", "")
	var resp StoresResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Stores) != 2 || resp.Stores[0] != "primary" || resp.Stores[1] != "cache" {
		t.Errorf("stores = %v", resp.Stores)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		code   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		h := &mockHealth{report: healthuc.Report{
			Status: tt.status,
			Checks: map[string]healthuc.CheckResult{"primary": healthuc.CheckOK},
		}}
		router := NewRouter(NewServer(&mockSearcher{}, h, nil), []string{"secret"}, zap.NewNop())

		rr := do(t, router, http.MethodGet, "/health", "")
		if rr.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.status, rr.Code, tt.code)
		}
		var resp HealthResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != string(tt.status) || resp.Checks["primary"] != "ok" {
			t.Errorf("resp = %+v", resp)
		}
	}
}

func TestRouter_AuthProtectsSearch(t *testing.T) {
	router := newTestRouter(&mockSearcher{res: successResult()}, "secret")

	rr := do(t, router, http.MethodGet, "/api/v1/search?q=x", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=x", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestRouter_RecoversPanic(t *testing.T) {
	rr := do(t, newTestRouter(&mockSearcher{panicWith: "kaboom"}), http.MethodGet, "/api/v1/search?q=x", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Code != ErrorCodeInternalError {
		t.Errorf("code = %s", e.Code)
	}
}

func TestRouter_NotFound(t *testing.T) {
	rr := do(t, newTestRouter(&mockSearcher{}), http.MethodGet, "/api/v2/nothing", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := do(t, newTestRouter(&mockSearcher{}), http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}
