package federated

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// mockClient is a BackendClient with scripted rows, error, and latency.
type mockClient struct {
	rows      []store.Row
	err       error
	delay     time.Duration
	ignoreCtx bool // sleep through cancellation like a client without cooperative cancel
	panicWith any
	fn        func(ctx context.Context, query string) ([]store.Row, error)

	calls     atomic.Int32
	lastQuery atomic.Value
}

func (m *mockClient) Execute(ctx context.Context, query string) ([]store.Row, error) {
	m.calls.Add(1)
	m.lastQuery.Store(query)

	if m.fn != nil {
		return m.fn(ctx, query)
	}
	if m.delay > 0 {
		if m.ignoreCtx {
			time.Sleep(m.delay)
		} else {
			select {
			case <-time.After(m.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func rowsOf(source string, ids ...string) []store.Row {
	rows := make([]store.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, store.Row{"id": id, "source": source})
	}
	return rows
}

var errConnRefused = errors.New("connection refused")
