package similarity

import (
	"testing"

	"github.com/ken/internmatch/pkg/core/vector"
)

func TestCosineSimilarity(t *testing.T) {
	a := vector.NewVector([]float32{1.0, 0.0, 0.0})
	b := vector.NewVector([]float32{0.0, 1.0, 0.0})
	c := vector.NewVector([]float32{1.0, 1.0, 0.0})
	d := vector.NewVector([]float32{-2.0, 0.0, 0.0})

	metric := &CosineSimilarity{}

	tests := []struct {
		name     string
		x, y     *vector.Vector
		expected float32
	}{
		{"Orthogonal", a, b, 0.0},
		{"FortyFiveDegrees", a, c, 0.707},
		{"Identical", c, c, 1.0},
		{"Opposite", a, d, -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, err := metric.Similarity(tt.x, tt.y)
			if err != nil {
				t.Fatalf("Failed to calculate similarity: %v", err)
			}

			// Allow for small floating-point errors
			if sim < tt.expected-0.01 || sim > tt.expected+0.01 {
				t.Errorf("Expected similarity %f, got %f", tt.expected, sim)
			}
		})
	}
}

func TestCosineSimilarityIgnoresMagnitude(t *testing.T) {
	a := vector.NewVector([]float32{1.0, 2.0, 3.0})
	scaled := vector.NewVector([]float32{10.0, 20.0, 30.0})

	sim, err := (&CosineSimilarity{}).Similarity(a, scaled)
	if err != nil {
		t.Fatalf("Failed to calculate similarity: %v", err)
	}
	if sim < 0.999 {
		t.Errorf("Expected similarity of scaled vectors to be 1.0, got %f", sim)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	a := vector.NewVector([]float32{1.0, 2.0, 3.0})
	zero := vector.Zero(3)

	metric := &CosineSimilarity{}

	sim, err := metric.Similarity(a, zero)
	if err != nil {
		t.Fatalf("Expected no error for zero vector, got %v", err)
	}
	if sim != 0 {
		t.Errorf("Expected similarity 0 for zero vector, got %f", sim)
	}

	sim, err = metric.Similarity(zero, zero)
	if err != nil {
		t.Fatalf("Expected no error for zero vectors, got %v", err)
	}
	if sim != 0 {
		t.Errorf("Expected similarity 0 for two zero vectors, got %f", sim)
	}
}

func TestGetMetric(t *testing.T) {
	metric, err := GetMetric(Cosine)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if metric.Name() != Cosine {
		t.Errorf("Expected metric %s, got %s", Cosine, metric.Name())
	}

	if _, err := GetMetric("euclidean"); err != ErrUnknownMetric {
		t.Errorf("Expected ErrUnknownMetric, got %v", err)
	}
}

func TestInvalidDimension(t *testing.T) {
	a := vector.NewVector([]float32{1.0, 2.0, 3.0})
	b := vector.NewVector([]float32{4.0, 5.0})

	_, err := (&CosineSimilarity{}).Similarity(a, b)
	if err != vector.ErrInvalidDimension {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}
}
