// Package query holds the validated search query value object.
package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/fedsearch/internal/domain"
)

// DefaultMaxLength is the query length limit in runes when none is configured.
const DefaultMaxLength = 1024

// Query is a validated, trimmed search text (immutable value object).
type Query struct {
	text string
}

// New validates and creates a Query.
// Text is trimmed; it must be non-empty and at most maxLength runes.
// maxLength <= 0 falls back to DefaultMaxLength.
func New(text string, maxLength int) (Query, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(text); n > maxLength {
		return Query{}, fmt.Errorf("%w: query too long (%d > %d)", domain.ErrInvalidQuery, n, maxLength)
	}
	return Query{text: text}, nil
}

// Text returns the query text.
func (q Query) Text() string { return q.text }

func (q Query) String() string { return q.text }

// Terms splits text into lowercase terms on anything that is not a letter or
// digit. Duplicates are dropped; first occurrence order is kept.
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	terms := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// Terms returns the distinct terms of the query text.
func (q Query) Terms() []string { return Terms(q.text) }
