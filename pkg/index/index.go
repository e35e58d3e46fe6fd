package index

import (
	"sort"

	"github.com/ken/internmatch/pkg/core/similarity"
	"github.com/ken/internmatch/pkg/core/vector"
)

// SearchResult is one scored catalog entry
type SearchResult struct {
	Index int     // Position of the vector in the indexed sequence
	Score float32 // Similarity to the query vector
}

// SearchResults is a slice of SearchResult
type SearchResults []SearchResult

// Index is the interface that all index implementations must satisfy
type Index interface {
	// Name returns the name of the index
	Name() string

	// Build constructs the index from an ordered set of vectors
	Build(vectors []*vector.Vector) error

	// Search returns the k most similar entries to query
	Search(query *vector.Vector, k int) (SearchResults, error)

	// Size returns the number of vectors in the index
	Size() int

	// Metric returns the similarity metric used by the index
	Metric() similarity.Metric
}

// Sort orders results by descending score. Equal scores keep ascending
// index order.
func (r SearchResults) Sort() {
	sort.SliceStable(r, func(i, j int) bool {
		if r[i].Score != r[j].Score {
			return r[i].Score > r[j].Score
		}
		return r[i].Index < r[j].Index
	})
}

// Indices returns the catalog positions in result order
func (r SearchResults) Indices() []int {
	out := make([]int, len(r))
	for i, res := range r {
		out[i] = res.Index
	}
	return out
}
