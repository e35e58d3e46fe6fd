package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ken/internmatch/pkg/core/vector"
)

// DefaultOpenAIModel is used when no model name is configured
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIModel generates embeddings with the OpenAI embeddings API
type OpenAIModel struct {
	config    *ModelConfig
	client    openai.Client
	dimension int
}

// NewOpenAIModel creates a new OpenAI-backed model and probes it once to
// learn the vector dimension
func NewOpenAIModel(ctx context.Context, config *ModelConfig) (*OpenAIModel, error) {
	if config == nil {
		config = NewModelConfig(DefaultOpenAIModel)
		config.Provider = ProviderOpenAI
		config.Dimension = 0
	}
	if config.APIKey == "" {
		return nil, errors.New("api_key is required for openai")
	}
	if config.ModelName == "" {
		config.ModelName = DefaultOpenAIModel
	}

	// Request-path calls are never retried
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(requestTimeout(config)),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	m := &OpenAIModel{
		config: config,
		client: openai.NewClient(opts...),
	}

	dim, err := m.probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", config.ModelName, err)
	}
	if config.Dimension > 0 && config.Dimension != dim {
		return nil, fmt.Errorf("model %s produces %d dimensions, configured %d", config.ModelName, dim, config.Dimension)
	}
	m.dimension = dim

	return m, nil
}

func (m *OpenAIModel) probe(ctx context.Context) (int, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = m.config.LoadTimeout
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = backoff.DefaultMaxElapsedTime
	}

	var dim int
	op := func() error {
		vectors, err := m.embed(ctx, []string{probeText})
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500) {
				return err
			}
			return backoff.Permanent(err)
		}
		dim = len(vectors[0])
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return 0, err
	}
	if dim == 0 {
		return 0, errors.New("embeddings API returned an empty embedding")
	}
	return dim, nil
}

// Embed converts input text into a vector embedding
func (m *OpenAIModel) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch converts multiple texts into vector embeddings
func (m *OpenAIModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batchSize := m.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := m.embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch at index %d: %w", start, err)
		}
		results = append(results, vectors...)
	}
	return results, nil
}

// embed sends the non-empty texts in one request. The API rejects empty
// input, so empty texts map to the zero vector.
func (m *OpenAIModel) embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	inputs := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))
	for i, text := range texts {
		if text == "" {
			results[i] = vector.Zero(m.dimension).Values
			continue
		}
		inputs = append(inputs, text)
		positions = append(positions, i)
	}
	if len(inputs) == 0 {
		return results, nil
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: openai.EmbeddingModel(m.config.ModelName),
	}
	if m.config.Dimension > 0 {
		params.Dimensions = openai.Int(int64(m.config.Dimension))
	}

	resp, err := m.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	// Order by index, the API does not promise response order
	seen := make([]bool, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(inputs) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		results[positions[d.Index]] = vector.FromFloat64(d.Embedding).Values
		seen[d.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing embedding for text at index %d", positions[i])
		}
	}

	return results, nil
}

// Dimension returns the dimension of the vectors produced by this model
func (m *OpenAIModel) Dimension() int {
	return m.dimension
}

// Name returns the name of the model
func (m *OpenAIModel) Name() string {
	return m.config.ModelName
}

// Close releases resources used by the model
func (m *OpenAIModel) Close() error {
	return nil
}
