package retrieval

import (
	"context"
	"sort"
)

// DefaultK is the number of documents retrieved when the caller does not ask for a specific count.
const DefaultK = 3

// Document is a unit of reference material returned by the vector index.
// Metadata is opaque and passed through unchanged.
type Document struct {
	Text     string
	Metadata map[string]any
}

// Match pairs a document with its similarity score (higher is more similar).
type Match struct {
	Document Document
	Score    float64
}

// Index is the read-only vector index boundary.
// Search returns at most k matches ordered by descending similarity.
type Index interface {
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)
}

// Rank stable-sorts matches by descending score, truncates to k and drops the scores.
// Ties keep the order the index returned them in.
func Rank(matches []Match, k int) []Document {
	if k <= 0 {
		k = DefaultK
	}
	sorted := make([]Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}

	docs := make([]Document, len(sorted))
	for i, m := range sorted {
		docs[i] = m.Document
	}
	return docs
}

// Texts returns the document texts in order.
func Texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}
