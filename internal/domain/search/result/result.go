package result

import (
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// Row keys shared by every store that builds rows from a Result.
const (
	KeyID      = "id"
	KeyScore   = "score"
	KeyTitle   = "title"
	KeyContent = "content"
	KeyTags    = "tags"
	KeySource  = "source"
)

// Result is a single ranked hit inside one store.
type Result struct {
	id      string
	score   float64
	title   string
	content string
	tags    map[string]string
}

// New creates a search result.
func New(id string, score float64, title, content string, tags map[string]string) Result {
	return Result{id: id, score: score, title: title, content: content, tags: tags}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// Title returns the document title.
func (r *Result) Title() string { return r.title }

// Content returns the document content.
func (r *Result) Content() string { return r.content }

// Tags returns the document tags.
func (r *Result) Tags() map[string]string { return r.tags }

// WithScore returns a copy with the score replaced.
func (r *Result) WithScore(score float64) Result {
	return Result{id: r.id, score: score, title: r.title, content: r.content, tags: r.tags}
}

// Row converts the hit into the opaque row handed to the orchestrator.
// Empty title and tags are omitted.
func (r *Result) Row(source store.ID) store.Row {
	row := store.Row{
		KeyID:      r.id,
		KeyScore:   r.score,
		KeyContent: r.content,
		KeySource:  string(source),
	}
	if r.title != "" {
		row[KeyTitle] = r.title
	}
	if len(r.tags) > 0 {
		row[KeyTags] = r.tags
	}
	return row
}

// Rows converts hits into rows, preserving order.
func Rows(source store.ID, results []Result) []store.Row {
	rows := make([]store.Row, 0, len(results))
	for i := range results {
		rows = append(rows, results[i].Row(source))
	}
	return rows
}
