package recommend

import (
	"context"
	"fmt"
	"math"

	"github.com/ken/internmatch/pkg/catalog"
	"github.com/ken/internmatch/pkg/core/vector"
	"github.com/ken/internmatch/pkg/embedding/pipeline"
)

const (
	// DefaultTopK is the number of recommendations returned per request
	DefaultTopK = 3

	// DefaultPrecision is the number of decimals scores are rounded to
	DefaultPrecision = 3
)

// Encoder embeds a candidate profile
type Encoder interface {
	EncodeProfile(ctx context.Context, profile pipeline.Profile) (*vector.Vector, error)
}

// Request holds the free-text skills and interests of a candidate
type Request struct {
	Skills    []string `json:"skills"`
	Interests []string `json:"interests"`
}

// Recommendation is one ranked internship
type Recommendation struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Result is the ordered list of recommendations, best first
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// Service ranks the catalog against candidate profiles. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	encoder   Encoder
	store     *catalog.Store
	topK      int
	precision int
}

// Option configures a Service
type Option func(*Service)

// WithTopK sets how many recommendations are returned
func WithTopK(k int) Option {
	return func(s *Service) {
		s.topK = k
	}
}

// WithPrecision sets how many decimals scores are rounded to
func WithPrecision(decimals int) Option {
	return func(s *Service) {
		if decimals >= 0 {
			s.precision = decimals
		}
	}
}

// NewService creates a recommendation service over a loaded catalog
func NewService(encoder Encoder, store *catalog.Store, opts ...Option) *Service {
	s := &Service{
		encoder:   encoder,
		store:     store,
		topK:      DefaultTopK,
		precision: DefaultPrecision,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend embeds the profile built from req and returns the best
// matching internships. Either every recommendation is returned or an
// error is.
func (s *Service) Recommend(ctx context.Context, req Request) (*Result, error) {
	query, err := s.encoder.EncodeProfile(ctx, pipeline.Profile{
		Skills:    req.Skills,
		Interests: req.Interests,
	})
	if err != nil {
		return nil, err
	}

	results, err := s.store.Search(query, s.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to rank catalog: %w", err)
	}

	recommendations := make([]Recommendation, 0, len(results))
	for _, r := range results {
		record, ok := s.store.Record(r.Index)
		if !ok {
			return nil, fmt.Errorf("ranked index %d outside catalog of %d", r.Index, s.store.Size())
		}
		recommendations = append(recommendations, Recommendation{
			Title:       record.Title,
			Description: record.Description,
			Score:       round(float64(r.Score), s.precision),
		})
	}

	return &Result{Recommendations: recommendations}, nil
}

// Profile returns the text that is embedded for req
func Profile(req Request) string {
	return pipeline.JoinProfile(pipeline.Profile{
		Skills:    req.Skills,
		Interests: req.Interests,
	})
}

// TopK returns the configured number of recommendations
func (s *Service) TopK() int {
	return s.topK
}

func round(score float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(score*p) / p
}
