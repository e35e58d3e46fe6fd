package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ken/internmatch/internal/config"
	"github.com/ken/internmatch/pkg/catalog"
	"github.com/ken/internmatch/pkg/embedding"
	"github.com/ken/internmatch/pkg/recommend"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", []string{}},
		{"  ", []string{}},
		{"python", []string{"python"}},
		{"machine learning, python", []string{"machine learning", "python"}},
		{"a,,b", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, splitList(tt.input), "input %q", tt.input)
	}
}

func TestBootstrap(t *testing.T) {
	cfg := config.DefaultConfig()

	engine, store, err := bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer engine.Close()
	assert.Equal(t, 5, store.Size())

	path := filepath.Join(t.TempDir(), "internships.yaml")
	require.NoError(t, catalog.SaveRecordsFile(catalog.DefaultRecords()[:2], path))
	cfg.Catalog.Path = path

	engine2, store2, err := bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer engine2.Close()
	assert.Equal(t, 2, store2.Size())
}

func TestBootstrapFailures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "unknown"
	_, _, err := bootstrap(context.Background(), cfg)
	assert.True(t, embedding.IsModelLoadError(err))

	cfg = config.DefaultConfig()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = bootstrap(context.Background(), cfg)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("internships: []\n"), 0644))
	cfg.Catalog.Path = empty
	engine, store, err := bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer engine.Close()
	assert.Equal(t, 0, store.Size())
}

func TestEngineConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.MaxConcurrent = 2
	cfg.Embedding.RequestTimeout = 5 * time.Second
	ec := engineConfig(cfg)
	assert.Equal(t, cfg.Embedding.Provider, ec.Provider)
	assert.Equal(t, 2, ec.MaxConcurrent)
	assert.Equal(t, cfg.Embedding.BatchSize, ec.ModelBatchSize)
	assert.Equal(t, 5*time.Second, ec.RequestTimeout)
}

func TestPrintRecommendations(t *testing.T) {
	engine, store, err := bootstrap(context.Background(), config.DefaultConfig())
	require.NoError(t, err)
	defer engine.Close()

	svc := recommend.NewService(engine, store, recommend.WithTopK(2))
	assert.Equal(t, 2, svc.TopK())

	result, err := svc.Recommend(context.Background(), recommend.Request{
		Skills:    []string{"machine learning", "python"},
		Interests: []string{"AI"},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	printRecommendations(&out, svc, result)
	assert.Contains(t, out.String(), "Found 2 recommendations (top 2 requested):")
	assert.Contains(t, out.String(), "1. "+result.Recommendations[0].Title)
	assert.Contains(t, out.String(), "2. "+result.Recommendations[1].Title)
}
