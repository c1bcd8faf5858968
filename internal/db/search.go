package db

import (
	"encoding/binary"
	"math"
)

// Default field names written by the redis backend store.
const (
	FieldContent = "__content"
	FieldTitle   = "__title"
	FieldVector  = "__vector"
	// FieldTagPrefix prefixes every tag field, e.g. "tag:lang".
	FieldTagPrefix = "tag:"
)

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Field        string // vector field; defaults to FieldVector
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search.
type TextQuery struct {
	IndexName    string
	Query        string
	Fields       []string // TEXT fields to match; defaults to FieldContent
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// EncodeVector serializes a vector as little-endian FLOAT32 bytes, the format
// HSET fields and KNN query params expect.
func EncodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
