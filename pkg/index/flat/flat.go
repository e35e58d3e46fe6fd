package flat

import (
	"errors"
	"sync"

	"github.com/ken/internmatch/pkg/core/similarity"
	"github.com/ken/internmatch/pkg/core/vector"
	"github.com/ken/internmatch/pkg/index"
)

var (
	// ErrInvalidK is returned when k is negative
	ErrInvalidK = errors.New("k must not be negative")

	// ErrMetricRequired is returned when a similarity metric is required but not set
	ErrMetricRequired = errors.New("similarity metric is required")
)

// FlatIndex implements exact brute-force ranking over an ordered set of
// vectors. After Build it is safe for concurrent Search calls.
type FlatIndex struct {
	vectors []*vector.Vector  // Indexed vectors, in catalog order
	metric  similarity.Metric // Similarity metric to use
	mu      sync.RWMutex
}

// NewFlatIndex creates a new flat index with the specified similarity metric
func NewFlatIndex(metric similarity.Metric) *FlatIndex {
	return &FlatIndex{
		metric: metric,
	}
}

// Name returns the name of the index
func (idx *FlatIndex) Name() string {
	return "flat"
}

// Build constructs the index from an ordered set of vectors, replacing
// anything indexed before. Positions in vectors become result indices.
func (idx *FlatIndex) Build(vectors []*vector.Vector) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	built := make([]*vector.Vector, len(vectors))
	for i, vec := range vectors {
		if i > 0 && vec.Dimension != built[0].Dimension {
			return vector.ErrInvalidDimension
		}
		built[i] = vec.Copy() // Store a copy of the vector
	}
	idx.vectors = built

	return nil
}

// Search scores every indexed vector against query and returns the top k
func (idx *FlatIndex) Search(query *vector.Vector, k int) (index.SearchResults, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.metric == nil {
		return nil, ErrMetricRequired
	}
	return rank(idx.metric, query, idx.vectors, k)
}

// Size returns the number of vectors in the index
func (idx *FlatIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.vectors)
}

// Metric returns the similarity metric used by the index
func (idx *FlatIndex) Metric() similarity.Metric {
	return idx.metric
}

// Rank scores query against catalog by cosine similarity and returns the k
// best (index, score) pairs, highest score first. Ties keep the lower index
// first. A catalog shorter than k yields every entry; k == 0 or an empty
// catalog yields an empty result.
func Rank(query *vector.Vector, catalog []*vector.Vector, k int) (index.SearchResults, error) {
	return rank(&similarity.CosineSimilarity{}, query, catalog, k)
}

func rank(metric similarity.Metric, query *vector.Vector, catalog []*vector.Vector, k int) (index.SearchResults, error) {
	if k < 0 {
		return nil, ErrInvalidK
	}
	if k == 0 || len(catalog) == 0 {
		return index.SearchResults{}, nil
	}

	// Calculate similarity to all vectors
	results := make(index.SearchResults, 0, len(catalog))
	for i, vec := range catalog {
		score, err := metric.Similarity(query, vec)
		if err != nil {
			return nil, err
		}
		results = append(results, index.SearchResult{
			Index: i,
			Score: score,
		})
	}

	results.Sort()

	// Return top k results
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}
