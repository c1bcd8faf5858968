package mode

// Mode is the ranking dialect a Redis Search store applies to a query.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses semantic and keyword rankings.
	Hybrid   Mode = "hybrid"
	Semantic Mode = "semantic"
	Keyword  Mode = "keyword"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Keyword
}

// NeedsEmbedding reports whether the mode requires a query vector.
func (m Mode) NeedsEmbedding() bool {
	return m == Hybrid || m == Semantic
}
