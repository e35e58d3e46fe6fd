package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ken/internmatch/pkg/core/vector"
	"github.com/ken/internmatch/pkg/embedding/models"
	"github.com/ken/internmatch/pkg/embedding/pipeline"
)

// Engine is the main embedding engine. It is built once and shared by all
// requests; calls into the model are gated by a semaphore of MaxConcurrent
// slots.
type Engine struct {
	model       models.EmbeddingModel
	pipeline    *pipeline.Pipeline
	sem         *semaphore.Weighted // nil means unlimited
	initialized atomic.Bool
}

// Config holds configuration for the embedding engine
type Config struct {
	Provider       string
	ModelName      string
	BaseURL        string
	APIKey         string
	Dimension      int
	ModelMaxLength int
	ModelBatchSize int
	MaxConcurrent  int // 1 serialises inference, 0 is unlimited
	LoadTimeout    time.Duration
	RequestTimeout time.Duration // per call to a remote backend
}

// DefaultConfig returns a default configuration for the embedding engine
func DefaultConfig() *Config {
	return &Config{
		Provider:       models.ProviderHashing,
		ModelName:      models.DefaultHashingModel,
		Dimension:      384,
		ModelMaxLength: 256,
		ModelBatchSize: 32,
		MaxConcurrent:  0,
		LoadTimeout:    2 * time.Minute,
		RequestTimeout: models.DefaultRequestTimeout,
	}
}

// NewEngine loads the configured model and creates an engine around it.
// Any failure is reported as a *ModelLoadError.
func NewEngine(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}

	// Create model configuration
	modelConfig := &models.ModelConfig{
		Provider:    config.Provider,
		ModelName:   config.ModelName,
		BaseURL:     config.BaseURL,
		APIKey:      config.APIKey,
		Dimension:   config.Dimension,
		MaxLength:   config.ModelMaxLength,
		BatchSize:   config.ModelBatchSize,
		LoadTimeout: config.LoadTimeout,

		RequestTimeout: config.RequestTimeout,
	}

	model, err := models.NewModel(ctx, modelConfig)
	if err != nil {
		return nil, &ModelLoadError{Model: config.ModelName, Cause: err}
	}

	return NewEngineWithModel(model, config.MaxConcurrent), nil
}

// NewEngineWithModel creates an engine around an already loaded model
func NewEngineWithModel(model models.EmbeddingModel, maxConcurrent int) *Engine {
	e := &Engine{
		model:    model,
		pipeline: pipeline.NewDefaultPipeline(model),
	}
	if maxConcurrent > 0 {
		e.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	e.initialized.Store(true)
	return e
}

// Encode embeds a single text. Empty text is valid; text that is not valid
// UTF-8 fails with an *EncodeError.
func (e *Engine) Encode(ctx context.Context, text string) (*vector.Vector, error) {
	return e.encodeOne(ctx, text, pipeline.ContentTypeText)
}

// EncodeProfile embeds the joined skills and interests of profile
func (e *Engine) EncodeProfile(ctx context.Context, profile pipeline.Profile) (*vector.Vector, error) {
	return e.encodeOne(ctx, profile, pipeline.ContentTypeProfile)
}

func (e *Engine) encodeOne(ctx context.Context, content interface{}, contentType string) (*vector.Vector, error) {
	if !e.initialized.Load() {
		return nil, ErrEngineClosed
	}

	var values []float32
	err := e.withSlot(ctx, func() error {
		var err error
		values, err = e.pipeline.ProcessAndEmbed(ctx, content, contentType)
		return err
	})
	if err != nil {
		return nil, e.wrapError(err, "failed to embed text")
	}

	return e.toVector(values)
}

// EncodeBatch embeds texts with one model batch call, returning vectors in
// input order
func (e *Engine) EncodeBatch(ctx context.Context, texts []string) ([]*vector.Vector, error) {
	if !e.initialized.Load() {
		return nil, ErrEngineClosed
	}
	if len(texts) == 0 {
		return []*vector.Vector{}, nil
	}

	contents := make([]interface{}, len(texts))
	for i, text := range texts {
		contents[i] = text
	}

	var batch [][]float32
	err := e.withSlot(ctx, func() error {
		var err error
		batch, err = e.pipeline.ProcessAndEmbedBatch(ctx, contents, pipeline.ContentTypeText)
		return err
	})
	if err != nil {
		return nil, e.wrapError(err, "failed to embed batch")
	}
	if len(batch) != len(texts) {
		return nil, fmt.Errorf("model returned %d vectors for %d texts", len(batch), len(texts))
	}

	vectors := make([]*vector.Vector, len(batch))
	for i, values := range batch {
		v, err := e.toVector(values)
		if err != nil {
			return nil, fmt.Errorf("vector at index %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// withSlot runs fn while holding one inference slot. The slot is released
// even if fn panics.
func (e *Engine) withSlot(ctx context.Context, fn func() error) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()
	return fn()
}

// wrapError turns content failures into an *EncodeError and wraps the rest
func (e *Engine) wrapError(err error, msg string) error {
	var contentErr *pipeline.ContentError
	if errors.As(err, &contentErr) {
		return &EncodeError{Index: contentErr.Index, Cause: contentErr.Cause}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (e *Engine) toVector(values []float32) (*vector.Vector, error) {
	if len(values) != e.model.Dimension() {
		return nil, fmt.Errorf("model returned %d dimensions, expected %d: %w",
			len(values), e.model.Dimension(), vector.ErrInvalidDimension)
	}
	return vector.NewVector(values), nil
}

func (e *Engine) acquire(ctx context.Context) error {
	if e.sem == nil {
		return nil
	}
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for embedding slot: %w", err)
	}
	return nil
}

func (e *Engine) release() {
	if e.sem != nil {
		e.sem.Release(1)
	}
}

// ModelDimension returns the dimension of the vectors produced by the model
func (e *Engine) ModelDimension() int {
	return e.model.Dimension()
}

// ModelName returns the name of the embedding model
func (e *Engine) ModelName() string {
	return e.model.Name()
}

// Close releases resources used by the embedding engine
func (e *Engine) Close() error {
	if !e.initialized.CompareAndSwap(true, false) {
		return nil
	}
	if err := e.pipeline.Close(); err != nil {
		return fmt.Errorf("failed to close model: %w", err)
	}
	return nil
}
