package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultHuggingFaceModel produces 384-dimensional sentence embeddings
	DefaultHuggingFaceModel = "sentence-transformers/all-MiniLM-L6-v2"

	// DefaultHuggingFaceURL is the hosted inference router; a
	// text-embeddings-inference server can be used by overriding BaseURL.
	DefaultHuggingFaceURL = "https://router.huggingface.co/hf-inference/models"

	probeText = "internship"
)

// StatusError is returned when the inference endpoint answers with a
// non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// HuggingFaceModel calls a feature-extraction endpoint serving a
// sentence-transformers model
type HuggingFaceModel struct {
	config    *ModelConfig
	endpoint  string
	client    *http.Client
	dimension int
}

type featureExtractionRequest struct {
	Inputs []string `json:"inputs"`
}

// NewHuggingFaceModel creates a new model instance and probes the endpoint
// until the model reports ready or config.LoadTimeout elapses
func NewHuggingFaceModel(ctx context.Context, config *ModelConfig) (*HuggingFaceModel, error) {
	if config == nil {
		config = NewModelConfig(DefaultHuggingFaceModel)
		config.Provider = ProviderHuggingFace
	}
	if config.ModelName == "" {
		config.ModelName = DefaultHuggingFaceModel
	}

	endpoint := config.BaseURL
	if endpoint == "" {
		endpoint = DefaultHuggingFaceURL + "/" + config.ModelName + "/pipeline/feature-extraction"
	}

	m := &HuggingFaceModel{
		config:   config,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: requestTimeout(config),
		},
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

// probe embeds a fixed text, retrying while the endpoint answers 503 (model
// still loading), and returns the observed dimension
func (m *HuggingFaceModel) probe(ctx context.Context) (int, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = m.config.LoadTimeout
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = backoff.DefaultMaxElapsedTime
	}

	var dim int
	op := func() error {
		vectors, err := m.embed(ctx, []string{probeText})
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusServiceUnavailable {
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
		return 0, errors.New("inference endpoint returned an empty embedding")
	}
	return dim, nil
}

// Embed converts input text into a vector embedding
func (m *HuggingFaceModel) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch converts multiple texts into vector embeddings, splitting the
// input into requests of at most BatchSize texts
func (m *HuggingFaceModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

func (m *HuggingFaceModel) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(featureExtractionRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if m.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	vectors, err := decodeFeatures(respBody)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

// decodeFeatures accepts pooled output ([text][dim]) or per-token output
// ([text][token][dim]), mean-pooling the latter
func decodeFeatures(body []byte) ([][]float32, error) {
	var pooled [][]float32
	if err := json.Unmarshal(body, &pooled); err == nil {
		return pooled, nil
	}

	var tokens [][][]float32
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	out := make([][]float32, len(tokens))
	for i, seq := range tokens {
		if len(seq) == 0 {
			return nil, fmt.Errorf("empty token embeddings for text at index %d", i)
		}
		mean := make([]float32, len(seq[0]))
		for t, tok := range seq {
			if len(tok) != len(mean) {
				return nil, fmt.Errorf("text at index %d: token %d has %d dimensions, expected %d",
					i, t, len(tok), len(mean))
			}
			for j := range mean {
				mean[j] += tok[j]
			}
		}
		for j := range mean {
			mean[j] /= float32(len(seq))
		}
		out[i] = mean
	}
	return out, nil
}

// Dimension returns the dimension of the vectors produced by this model
func (m *HuggingFaceModel) Dimension() int {
	return m.dimension
}

// Name returns the name of the model
func (m *HuggingFaceModel) Name() string {
	return m.config.ModelName
}

// Close releases resources used by the model
func (m *HuggingFaceModel) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
