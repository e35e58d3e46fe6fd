package models

import (
	"context"
	"fmt"
	"time"
)

// Provider names accepted by NewModel
const (
	ProviderHashing     = "hashing"
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
)

// EmbeddingModel defines the interface for all embedding models
type EmbeddingModel interface {
	// Embed converts input text into a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts into vector embeddings, one per
	// text and in the same order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimension of the vectors produced by this model
	Dimension() int

	// Name returns the name of the model
	Name() string

	// Close releases resources used by the model
	Close() error
}

// ModelConfig holds configuration for embedding models
type ModelConfig struct {
	Provider    string
	ModelName   string
	BaseURL     string
	APIKey      string
	Dimension   int
	MaxLength   int
	BatchSize   int
	LoadTimeout time.Duration

	// RequestTimeout bounds a single call to a remote backend
	RequestTimeout time.Duration
}

// DefaultRequestTimeout is used when ModelConfig.RequestTimeout is not set
const DefaultRequestTimeout = 30 * time.Second

// NewModelConfig creates a new model configuration with default values
func NewModelConfig(modelName string) *ModelConfig {
	return &ModelConfig{
		Provider:    ProviderHashing,
		ModelName:   modelName,
		Dimension:   384,
		MaxLength:   256,
		BatchSize:   32,
		LoadTimeout: 2 * time.Minute,

		RequestTimeout: DefaultRequestTimeout,
	}
}

func requestTimeout(config *ModelConfig) time.Duration {
	if config.RequestTimeout > 0 {
		return config.RequestTimeout
	}
	return DefaultRequestTimeout
}

// NewModel creates the model selected by config.Provider. Remote models are
// probed once so that an unreachable backend fails here, at startup.
func NewModel(ctx context.Context, config *ModelConfig) (EmbeddingModel, error) {
	if config == nil {
		config = NewModelConfig(DefaultHashingModel)
	}

	switch config.Provider {
	case "", ProviderHashing:
		return NewHashingModel(config)
	case ProviderHuggingFace:
		return NewHuggingFaceModel(ctx, config)
	case ProviderOpenAI:
		return NewOpenAIModel(ctx, config)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", config.Provider)
	}
}
