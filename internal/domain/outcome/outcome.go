// Package outcome holds the per-store result of one federated search.
package outcome

import (
	"time"

	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// unknownError replaces an empty failure message so failures are never silent.
const unknownError = "unknown error"

// Outcome is either a success carrying rows or a failure carrying a message,
// tagged by the store that produced it.
type Outcome struct {
	store     store.ID
	rows      []store.Row
	err       string
	succeeded bool
	elapsed   time.Duration
}

// Success creates a successful outcome. Nil rows become an empty slice.
func Success(id store.ID, rows []store.Row, elapsed time.Duration) Outcome {
	if rows == nil {
		rows = []store.Row{}
	}
	return Outcome{store: id, rows: rows, succeeded: true, elapsed: elapsed}
}

// Failure creates a failed outcome with the store-reported message.
func Failure(id store.ID, message string, elapsed time.Duration) Outcome {
	if message == "" {
		message = unknownError
	}
	return Outcome{store: id, err: message, elapsed: elapsed}
}

// Store returns the store identifier.
func (o Outcome) Store() store.ID { return o.store }

// Succeeded reports whether the store returned rows.
func (o Outcome) Succeeded() bool { return o.succeeded }

// Rows returns the store rows; nil for a failure.
func (o Outcome) Rows() []store.Row { return o.rows }

// Count returns the number of rows.
func (o Outcome) Count() int { return len(o.rows) }

// Error returns the failure message; empty for a success.
func (o Outcome) Error() string { return o.err }

// Elapsed returns how long the store call took.
func (o Outcome) Elapsed() time.Duration { return o.elapsed }
