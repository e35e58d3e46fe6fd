package similarity

import (
	"errors"
	"math"

	"github.com/ken/internmatch/pkg/core/vector"
)

// MetricType represents the type of similarity metric
type MetricType string

const (
	// Cosine similarity metric, in [-1, 1]
	Cosine MetricType = "cosine"
)

// ErrUnknownMetric is returned by GetMetric for unsupported metric names
var ErrUnknownMetric = errors.New("unknown similarity metric")

// Metric scores how alike two vectors are; higher means more similar
type Metric interface {
	// Similarity calculates the similarity between two vectors
	Similarity(a, b *vector.Vector) (float32, error)

	// Name returns the name of the metric
	Name() MetricType
}

// GetMetric returns a similarity metric implementation by name
func GetMetric(metric MetricType) (Metric, error) {
	switch metric {
	case Cosine:
		return &CosineSimilarity{}, nil
	default:
		return nil, ErrUnknownMetric
	}
}

// CosineSimilarity implements the cosine similarity metric
type CosineSimilarity struct{}

// Similarity returns dot(a, b) / (|a| * |b|). A zero-magnitude operand
// scores 0 rather than failing.
func (m *CosineSimilarity) Similarity(a, b *vector.Vector) (float32, error) {
	if a.Dimension != b.Dimension {
		return 0, vector.ErrInvalidDimension
	}

	var dotProduct, normA, normB float64
	for i := 0; i < a.Dimension; i++ {
		x, y := float64(a.Values[i]), float64(b.Values[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))

	// Clamp to [-1, 1] to handle floating-point errors
	if similarity > 1.0 {
		similarity = 1.0
	} else if similarity < -1.0 {
		similarity = -1.0
	}

	return float32(similarity), nil
}

func (m *CosineSimilarity) Name() MetricType {
	return Cosine
}
