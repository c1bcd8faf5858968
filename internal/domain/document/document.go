package document

import (
	"fmt"
	"maps"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 163840 // 160KB

// Document is a searchable record indexed into every store that accepts writes
// (immutable value object).
type Document struct {
	id      string
	title   string
	content string
	tags    map[string]string
	vector  []float32
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Content: non-empty, max 160KB.
func New(id, title, content string, tags map[string]string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}

	return Document{
		id:      id,
		title:   title,
		content: content,
		tags:    maps.Clone(tags),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, title, content string, tags map[string]string) Document {
	return Document{id: id, title: title, content: content, tags: tags}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the optional document title.
func (d *Document) Title() string { return d.title }

// Content returns the document text content.
func (d *Document) Content() string { return d.content }

// Tags returns the tag metadata fields.
func (d *Document) Tags() map[string]string { return d.tags }

// Vector returns the embedding vector, if one was attached.
func (d *Document) Vector() []float32 { return d.vector }

// WithVector returns a copy with the given vector set.
func (d *Document) WithVector(v []float32) Document {
	return Document{id: d.id, title: d.title, content: d.content, tags: d.tags, vector: v}
}

// Text returns the title and content joined, the text stores index.
func (d *Document) Text() string {
	if d.title == "" {
		return d.content
	}
	return d.title + "\n" + d.content
}
