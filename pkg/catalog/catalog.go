package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ken/internmatch/pkg/core/similarity"
	"github.com/ken/internmatch/pkg/core/vector"
	"github.com/ken/internmatch/pkg/index"
	"github.com/ken/internmatch/pkg/index/flat"
)

const (
	// DefaultBatchSize is the number of descriptions sent in one batch call
	DefaultBatchSize = 32

	// DefaultConcurrency bounds the number of batch calls in flight
	DefaultConcurrency = 4
)

var (
	// ErrLengthMismatch is returned when the encoder returns a different
	// number of vectors than it was given descriptions
	ErrLengthMismatch = errors.New("encoder returned wrong number of vectors")

	// ErrEmptyTitle is returned for a record file entry without a title
	ErrEmptyTitle = errors.New("internship title is empty")
)

// Record is a single internship. Its identity is its position in the catalog.
type Record struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Encoder turns descriptions into embedding vectors, one per text and in
// the same order
type Encoder interface {
	EncodeBatch(ctx context.Context, texts []string) ([]*vector.Vector, error)
}

// Store holds the catalog records and their embedding vectors. It is built
// once by Load and never mutated afterwards, so it can be shared by any
// number of goroutines.
type Store struct {
	records []Record
	vectors []*vector.Vector
	idx     index.Index
}

// LoadOption configures Load
type LoadOption func(*loadOptions)

type loadOptions struct {
	batchSize   int
	concurrency int
}

// WithBatchSize sets how many descriptions go into one batch call
func WithBatchSize(n int) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithConcurrency sets how many batch calls may run at once
func WithConcurrency(n int) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// Load encodes every record description and returns the resulting store.
// Any encoding failure fails the whole load.
func Load(ctx context.Context, encoder Encoder, records []Record, opts ...LoadOption) (*Store, error) {
	o := loadOptions{batchSize: DefaultBatchSize, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	owned := make([]Record, len(records))
	copy(owned, records)

	vectors := make([]*vector.Vector, len(owned))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for start := 0; start < len(owned); start += o.batchSize {
		end := start + o.batchSize
		if end > len(owned) {
			end = len(owned)
		}

		start, end := start, end
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, r := range owned[start:end] {
				texts = append(texts, r.Description)
			}

			batch, err := encoder.EncodeBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("failed to encode records %d-%d: %w", start, end-1, err)
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("records %d-%d: got %d vectors: %w", start, end-1, len(batch), ErrLengthMismatch)
			}

			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	metric, err := similarity.GetMetric(similarity.Cosine)
	if err != nil {
		return nil, err
	}
	idx := flat.NewFlatIndex(metric)
	if err := idx.Build(vectors); err != nil {
		return nil, fmt.Errorf("failed to build catalog index: %w", err)
	}

	return &Store{
		records: owned,
		vectors: vectors,
		idx:     idx,
	}, nil
}

// Records returns a copy of the records in catalog order
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Record returns the record at position i
func (s *Store) Record(i int) (Record, bool) {
	if i < 0 || i >= len(s.records) {
		return Record{}, false
	}
	return s.records[i], true
}

// Vectors returns copies of the description vectors, parallel to Records
func (s *Store) Vectors() []*vector.Vector {
	out := make([]*vector.Vector, len(s.vectors))
	for i, v := range s.vectors {
		out[i] = v.Copy()
	}
	return out
}

// Size returns the number of records
func (s *Store) Size() int {
	return len(s.records)
}

// Search ranks the catalog against query by cosine similarity
func (s *Store) Search(query *vector.Vector, k int) (index.SearchResults, error) {
	return s.idx.Search(query, k)
}

// DefaultRecords returns the built-in sample internships
func DefaultRecords() []Record {
	return []Record{
		{Title: "AI Research Internship", Description: "Work on machine learning models and data-driven AI projects."},
		{Title: "Data Science Internship", Description: "Analyze datasets and build predictive models using Python and ML."},
		{Title: "Web Development Internship", Description: "Frontend and backend development with React and Django."},
		{Title: "Cybersecurity Internship", Description: "Research in ethical hacking, security tools, and network safety."},
		{Title: "IoT & Embedded Systems Internship", Description: "Work on IoT devices, embedded C, and hardware integration."},
	}
}

type recordsFile struct {
	Internships []Record `yaml:"internships"`
}

// LoadRecordsFile reads records from a YAML file of the form
//
//	internships:
//	  - title: ...
//	    description: ...
func LoadRecordsFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file recordsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	for i, r := range file.Internships {
		if r.Title == "" {
			return nil, fmt.Errorf("internship %d: %w", i, ErrEmptyTitle)
		}
	}

	if file.Internships == nil {
		return []Record{}, nil
	}
	return file.Internships, nil
}

// SaveRecordsFile writes records in the format read by LoadRecordsFile
func SaveRecordsFile(records []Record, path string) error {
	data, err := yaml.Marshal(recordsFile{Internships: records})
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}
