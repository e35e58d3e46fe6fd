package vector

import (
	"errors"
	"math"
)

var (
	// ErrInvalidDimension is returned when vector dimensions don't match
	ErrInvalidDimension = errors.New("invalid vector dimension")
)

// Vector is a dense embedding of fixed dimension
type Vector struct {
	Values    []float32 // Vector components
	Dimension int       // Number of dimensions
}

// NewVector creates a new vector backed by values
func NewVector(values []float32) *Vector {
	return &Vector{
		Values:    values,
		Dimension: len(values),
	}
}

// FromFloat64 converts a float64 slice, as returned by most embedding APIs
func FromFloat64(values []float64) *Vector {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return NewVector(out)
}

// Zero creates a zero vector of the specified dimension
func Zero(dimension int) *Vector {
	return &Vector{
		Values:    make([]float32, dimension),
		Dimension: dimension,
	}
}

// Copy creates a deep copy of the vector
func (v *Vector) Copy() *Vector {
	valuesCopy := make([]float32, v.Dimension)
	copy(valuesCopy, v.Values)
	return &Vector{
		Values:    valuesCopy,
		Dimension: v.Dimension,
	}
}

// Dot returns the dot product of v and other
func (v *Vector) Dot(other *Vector) (float64, error) {
	if v.Dimension != other.Dimension {
		return 0, ErrInvalidDimension
	}

	var sum float64
	for i := 0; i < v.Dimension; i++ {
		sum += float64(v.Values[i]) * float64(other.Values[i])
	}
	return sum, nil
}

// Magnitude returns the L2 norm of the vector
func (v *Vector) Magnitude() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

// IsZero reports whether the vector has zero magnitude
func (v *Vector) IsZero() bool {
	for _, val := range v.Values {
		if val != 0 {
			return false
		}
	}
	return true
}

// Normalize converts the vector to a unit vector (same direction, length 1)
func (v *Vector) Normalize() {
	magnitude := v.Magnitude()

	if magnitude > 0 {
		for i := range v.Values {
			v.Values[i] = float32(float64(v.Values[i]) / magnitude)
		}
	}
}
