package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ken/internmatch/pkg/catalog"
	"github.com/ken/internmatch/pkg/core/vector"
	"github.com/ken/internmatch/pkg/embedding"
	"github.com/ken/internmatch/pkg/embedding/pipeline"
	"github.com/ken/internmatch/pkg/index/flat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, records []catalog.Record, opts ...Option) (*Service, *embedding.Engine) {
	t.Helper()
	ctx := context.Background()

	engine, err := embedding.NewEngine(ctx, embedding.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	store, err := catalog.Load(ctx, engine, records)
	require.NoError(t, err)

	return NewService(engine, store, opts...), engine
}

func TestRecommendScenario(t *testing.T) {
	svc, _ := newService(t, catalog.DefaultRecords(), WithTopK(5))

	result, err := svc.Recommend(context.Background(), Request{
		Skills:    []string{"machine learning", "python"},
		Interests: []string{"AI"},
	})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 5)

	top := result.Recommendations[0]
	assert.Contains(t, []string{"AI Research Internship", "Data Science Internship"}, top.Title)

	var iot *Recommendation
	for i := range result.Recommendations {
		if result.Recommendations[i].Title == "IoT & Embedded Systems Internship" {
			iot = &result.Recommendations[i]
		}
	}
	require.NotNil(t, iot)
	assert.Greater(t, top.Score, iot.Score)

	// The default service returns the same head of the ranking
	defaults, _ := newService(t, catalog.DefaultRecords())
	head, err := defaults.Recommend(context.Background(), Request{
		Skills:    []string{"machine learning", "python"},
		Interests: []string{"AI"},
	})
	require.NoError(t, err)
	assert.Equal(t, result.Recommendations[:3], head.Recommendations)
}

func TestRecommendProperties(t *testing.T) {
	requests := []Request{
		{Skills: []string{"react", "django"}, Interests: []string{"frontend"}},
		{Skills: []string{"hacking"}, Interests: []string{"network", "security"}},
		{Skills: []string{"embedded C"}},
		{},
	}

	for _, k := range []int{0, 1, 3, 5, 10} {
		svc, _ := newService(t, catalog.DefaultRecords(), WithTopK(k))
		for _, req := range requests {
			result, err := svc.Recommend(context.Background(), req)
			require.NoError(t, err)

			expected := k
			if expected > 5 {
				expected = 5
			}
			require.Len(t, result.Recommendations, expected)

			for i := 1; i < len(result.Recommendations); i++ {
				assert.GreaterOrEqual(t, result.Recommendations[i-1].Score, result.Recommendations[i].Score)
			}
			for _, r := range result.Recommendations {
				assert.GreaterOrEqual(t, r.Score, -1.0)
				assert.LessOrEqual(t, r.Score, 1.0)
			}
		}
	}
}

func TestRecommendEmptyRequest(t *testing.T) {
	svc, _ := newService(t, catalog.DefaultRecords())

	result, err := svc.Recommend(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 3)

	// A zero profile vector scores every item 0, so catalog order is kept
	records := catalog.DefaultRecords()
	for i, r := range result.Recommendations {
		assert.Equal(t, records[i].Title, r.Title)
		assert.Equal(t, 0.0, r.Score)
	}
}

func TestRecommendExactDescription(t *testing.T) {
	records := catalog.DefaultRecords()
	svc, _ := newService(t, records)

	for _, r := range records {
		result, err := svc.Recommend(context.Background(), Request{Skills: []string{r.Description}})
		require.NoError(t, err)
		require.NotEmpty(t, result.Recommendations)
		assert.Equal(t, r.Title, result.Recommendations[0].Title)
		assert.InDelta(t, 1.0, result.Recommendations[0].Score, 0.001)
	}
}

func TestRecommendIdempotent(t *testing.T) {
	svc, _ := newService(t, catalog.DefaultRecords())
	req := Request{Skills: []string{"python", "statistics"}, Interests: []string{"data"}}

	first, err := svc.Recommend(context.Background(), req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			again, err := svc.Recommend(context.Background(), req)
			assert.NoError(t, err)
			assert.Equal(t, first, again)
		}()
	}
	wg.Wait()
}

func TestRecommendEmptyCatalog(t *testing.T) {
	svc, _ := newService(t, nil)

	result, err := svc.Recommend(context.Background(), Request{Skills: []string{"go"}})
	require.NoError(t, err)
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)
}

func TestRecommendErrors(t *testing.T) {
	svc, _ := newService(t, catalog.DefaultRecords())

	_, err := svc.Recommend(context.Background(), Request{Skills: []string{"bad \xff"}})
	require.Error(t, err)
	assert.True(t, embedding.IsEncodeError(err))

	negative, _ := newService(t, catalog.DefaultRecords(), WithTopK(-1))
	_, err = negative.Recommend(context.Background(), Request{})
	assert.ErrorIs(t, err, flat.ErrInvalidK)

	boom := errors.New("boom")
	store, err := catalog.Load(context.Background(), stubEncoder{vec: vector.NewVector([]float32{1, 0})}, catalog.DefaultRecords())
	require.NoError(t, err)
	failing := NewService(stubEncoder{err: boom}, store)
	_, err = failing.Recommend(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)

	mismatched := NewService(stubEncoder{vec: vector.NewVector([]float32{1, 0, 0})}, store)
	_, err = mismatched.Recommend(context.Background(), Request{})
	assert.ErrorIs(t, err, vector.ErrInvalidDimension)
}

func TestRounding(t *testing.T) {
	store, err := catalog.Load(context.Background(), stubEncoder{vec: vector.NewVector([]float32{1, 0})}, catalog.DefaultRecords()[:1])
	require.NoError(t, err)

	// (1, 2) against (1, 0) scores 1/sqrt(5)
	svc := NewService(stubEncoder{vec: vector.NewVector([]float32{1, 2})}, store)
	result, err := svc.Recommend(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 0.447, result.Recommendations[0].Score)

	svc = NewService(stubEncoder{vec: vector.NewVector([]float32{1, 2})}, store, WithPrecision(1))
	result, err = svc.Recommend(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 0.4, result.Recommendations[0].Score)
}

func TestProfile(t *testing.T) {
	assert.Equal(t, "machine learning python AI", Profile(Request{
		Skills:    []string{"machine learning", "python"},
		Interests: []string{"AI"},
	}))
	assert.Equal(t, "", Profile(Request{}))
}

type stubEncoder struct {
	vec *vector.Vector
	err error
}

func (e stubEncoder) EncodeProfile(ctx context.Context, profile pipeline.Profile) (*vector.Vector, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vec.Copy(), nil
}

func (e stubEncoder) EncodeBatch(ctx context.Context, texts []string) ([]*vector.Vector, error) {
	out := make([]*vector.Vector, len(texts))
	for i := range texts {
		out[i] = e.vec.Copy()
	}
	return out, nil
}
