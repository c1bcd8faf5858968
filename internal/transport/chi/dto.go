package chi

import (
	"github.com/kailas-cloud/fedsearch/internal/domain/report"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
	"github.com/kailas-cloud/fedsearch/internal/usecase/federated"
)

// ErrorCode is the machine-readable error kind in an ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeTimeout          ErrorCode = "timeout"
	ErrorCodeCancelled        ErrorCode = "cancelled"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the POST /api/v1/search body.
type SearchRequest struct {
	Query     string `json:"query"`
	TimeoutMs *int   `json:"timeout_ms,omitempty"`
}

// SearchResponse is a successful federated search.
type SearchResponse struct {
	Rows        []store.Row         `json:"rows"`
	Performance PerformanceResponse `json:"performance"`
}

// PerformanceResponse mirrors report.Report on the wire.
type PerformanceResponse struct {
	ElapsedMs        int64                           `json:"elapsed_ms"`
	TotalResultCount int                             `json:"total_result_count"`
	Stores           map[string]StoreSummaryResponse `json:"stores"`
	Order            []string                        `json:"order"`
}

// StoreSummaryResponse is one store's entry in the performance summary.
type StoreSummaryResponse struct {
	Succeeded bool   `json:"succeeded"`
	Count     int    `json:"count"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// StoresResponse lists the configured stores in query order.
type StoresResponse struct {
	Stores []string `json:"stores"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// NewSearchResponse converts a federated result to its wire form. Rows are
// never null.
func NewSearchResponse(res federated.Result) SearchResponse {
	rows := res.Rows
	if rows == nil {
		rows = []store.Row{}
	}
	return SearchResponse{Rows: rows, Performance: performanceToResponse(res.Performance)}
}

func performanceToResponse(r report.Report) PerformanceResponse {
	resp := PerformanceResponse{
		ElapsedMs:        r.ElapsedMs,
		TotalResultCount: r.TotalResultCount,
		Stores:           make(map[string]StoreSummaryResponse, len(r.Stores)),
		Order:            idsToStrings(r.Order),
	}
	for id, s := range r.Stores {
		resp.Stores[id.String()] = StoreSummaryResponse{
			Succeeded: s.Succeeded,
			Count:     s.Count,
			Error:     s.Error,
			ElapsedMs: s.ElapsedMs,
		}
	}
	return resp
}

func idsToStrings(ids []store.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
