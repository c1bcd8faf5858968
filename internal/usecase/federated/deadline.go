package federated

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/fedsearch/internal/domain"
)

// guard runs work under a deadline and returns whichever comes first.
//
// work receives a context cancelled at the deadline; clients that honour it
// stop early, the rest are abandoned. The result channel is buffered so an
// abandoned work goroutine can always finish its send and exit, and nothing it
// produces is reachable once guard has returned.
func guard[T any](parent context.Context, timeout time.Duration, work func(context.Context) T) (T, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	done := make(chan T, 1)
	go func() {
		done <- work(ctx)
	}()

	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		var zero T
		if errors.Is(parent.Err(), context.Canceled) {
			return zero, fmt.Errorf("search cancelled: %w", parent.Err())
		}
		return zero, domain.NewTimeout(timeout)
	}
}
