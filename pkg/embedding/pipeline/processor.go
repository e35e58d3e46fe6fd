package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ken/internmatch/pkg/embedding/models"
)

// Content types understood by the default processors
const (
	ContentTypeText    = "text"
	ContentTypeProfile = "profile"
)

var (
	// ErrMalformedText is returned for text that is not valid UTF-8
	ErrMalformedText = errors.New("text is not valid UTF-8")

	// ErrNilContent is returned when a processor receives no content
	ErrNilContent = errors.New("content is nil")
)

// ContentError reports content that could not be turned into text. Index is
// the position in a batch, or -1 for single content.
type ContentError struct {
	Index int
	Cause error
}

func (e *ContentError) Error() string {
	if e.Index < 0 {
		return e.Cause.Error()
	}
	return fmt.Sprintf("content at index %d: %v", e.Index, e.Cause)
}

func (e *ContentError) Unwrap() error {
	return e.Cause
}

// Profile is the free-text description of a candidate
type Profile struct {
	Skills    []string
	Interests []string
}

// ContentProcessor defines the interface for processing different content types
type ContentProcessor interface {
	// Process converts content into a format suitable for embedding
	Process(content interface{}) (string, error)

	// Type returns the content type this processor handles
	Type() string
}

// TextProcessor handles plain text content
type TextProcessor struct{}

func NewTextProcessor() *TextProcessor {
	return &TextProcessor{}
}

func (p *TextProcessor) Process(content interface{}) (string, error) {
	var text string
	switch v := content.(type) {
	case nil:
		return "", ErrNilContent
	case string:
		text = v
	case *string:
		if v == nil {
			return "", ErrNilContent
		}
		text = *v
	case []byte:
		text = string(v)
	default:
		return "", fmt.Errorf("unsupported content type for text processor: %T", content)
	}

	if !utf8.ValidString(text) {
		return "", ErrMalformedText
	}
	return text, nil
}

func (p *TextProcessor) Type() string {
	return ContentTypeText
}

// ProfileProcessor joins skills then interests with single spaces
type ProfileProcessor struct {
	text *TextProcessor
}

func NewProfileProcessor() *ProfileProcessor {
	return &ProfileProcessor{text: NewTextProcessor()}
}

func (p *ProfileProcessor) Process(content interface{}) (string, error) {
	var profile Profile
	switch v := content.(type) {
	case nil:
		return "", ErrNilContent
	case Profile:
		profile = v
	case *Profile:
		if v == nil {
			return "", ErrNilContent
		}
		profile = *v
	default:
		return "", fmt.Errorf("unsupported content type for profile processor: %T", content)
	}

	return p.text.Process(JoinProfile(profile))
}

func (p *ProfileProcessor) Type() string {
	return ContentTypeProfile
}

// JoinProfile builds the profile text: skills followed by interests,
// separated by single spaces. An empty profile yields "".
func JoinProfile(profile Profile) string {
	parts := make([]string, 0, len(profile.Skills)+len(profile.Interests))
	parts = append(parts, profile.Skills...)
	parts = append(parts, profile.Interests...)
	return strings.Join(parts, " ")
}

// Pipeline manages content processors and an embedding model
type Pipeline struct {
	processors map[string]ContentProcessor
	model      models.EmbeddingModel
}

// NewPipeline creates a new pipeline with the specified model
func NewPipeline(model models.EmbeddingModel) *Pipeline {
	return &Pipeline{
		processors: make(map[string]ContentProcessor),
		model:      model,
	}
}

// NewDefaultPipeline creates a pipeline with the text and profile processors
func NewDefaultPipeline(model models.EmbeddingModel) *Pipeline {
	p := NewPipeline(model)
	p.AddProcessor(NewTextProcessor())
	p.AddProcessor(NewProfileProcessor())
	return p
}

// AddProcessor adds a content processor to the pipeline
func (p *Pipeline) AddProcessor(processor ContentProcessor) {
	p.processors[processor.Type()] = processor
}

// Process converts content to embeddable text without calling the model
func (p *Pipeline) Process(content interface{}, contentType string) (string, error) {
	processor, ok := p.processors[contentType]
	if !ok {
		return "", fmt.Errorf("no processor found for content type: %s", contentType)
	}

	processed, err := processor.Process(content)
	if err != nil {
		return "", fmt.Errorf("failed to process content: %w", err)
	}
	return processed, nil
}

// ProcessAndEmbed processes content and generates embeddings. Processing
// failures are returned as a *ContentError, model failures as they are.
func (p *Pipeline) ProcessAndEmbed(ctx context.Context, content interface{}, contentType string) ([]float32, error) {
	processed, err := p.Process(content, contentType)
	if err != nil {
		return nil, &ContentError{Index: -1, Cause: err}
	}

	return p.model.Embed(ctx, processed)
}

// ProcessAndEmbedBatch processes multiple contents and generates embeddings
func (p *Pipeline) ProcessAndEmbedBatch(ctx context.Context, contents []interface{}, contentType string) ([][]float32, error) {
	processed := make([]string, len(contents))
	for i, content := range contents {
		result, err := p.Process(content, contentType)
		if err != nil {
			return nil, &ContentError{Index: i, Cause: err}
		}
		processed[i] = result
	}

	return p.model.EmbedBatch(ctx, processed)
}

// Close releases resources used by the pipeline
func (p *Pipeline) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}
