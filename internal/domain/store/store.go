// Package store holds the identifiers and row shape shared by every backend store.
package store

import "regexp"

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ID names one configured backend store.
type ID string

// IsValid reports whether the identifier is usable as a store name.
func (id ID) IsValid() bool {
	return len(id) > 0 && len(id) <= 64 && idRegex.MatchString(string(id))
}

func (id ID) String() string { return string(id) }

// Row is an opaque record returned by a backend store.
// The orchestrator collects rows as-is and never inspects their fields.
type Row map[string]any
