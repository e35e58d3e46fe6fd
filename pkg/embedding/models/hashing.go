package models

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/ken/internmatch/pkg/core/vector"
)

// DefaultHashingModel is the name reported by the offline model
const DefaultHashingModel = "feature-hashing-bow"

// HashingModel is an offline bag-of-words model. Each lowercase alphanumeric
// token is hashed into one of Dimension buckets and the counts are
// L2-normalised, so texts sharing words point in similar directions.
// It needs no network and is deterministic, which makes it the default for
// local runs and tests.
type HashingModel struct {
	config    *ModelConfig
	dimension int
}

// NewHashingModel creates a new hashing model
func NewHashingModel(config *ModelConfig) (*HashingModel, error) {
	if config == nil {
		config = NewModelConfig(DefaultHashingModel)
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("hashing model dimension must be positive, got %d", config.Dimension)
	}
	if config.ModelName == "" {
		config.ModelName = DefaultHashingModel
	}

	return &HashingModel{
		config:    config,
		dimension: config.Dimension,
	}, nil
}

// Embed converts input text into a vector embedding. Text without any
// tokens maps to the zero vector.
func (m *HashingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := vector.Zero(m.dimension)
	tokens := Tokenize(text)
	if m.config.MaxLength > 0 && len(tokens) > m.config.MaxLength {
		tokens = tokens[:m.config.MaxLength]
	}

	for _, token := range tokens {
		h := fnv.New32a()
		h.Write([]byte(token))
		v.Values[h.Sum32()%uint32(m.dimension)]++
	}
	v.Normalize()

	return v.Values, nil
}

// EmbedBatch converts multiple texts into vector embeddings
func (m *HashingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		values, err := m.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text at index %d: %w", i, err)
		}
		results[i] = values
	}

	return results, nil
}

// Dimension returns the dimension of the vectors produced by this model
func (m *HashingModel) Dimension() int {
	return m.dimension
}

// Name returns the name of the model
func (m *HashingModel) Name() string {
	return m.config.ModelName
}

// Close releases resources used by the model
func (m *HashingModel) Close() error {
	return nil
}

// Tokenize splits text into lowercase runs of letters and digits
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
