package types

// SearchResult represents a single search result with similarity information
type SearchResult struct {
	Element CodeElement
	Rank    int // Position in result set (1-based)

	// Similarity is 1 - cosine distance, in [-1, 1]
	Similarity float64

	SearchableText string
}
