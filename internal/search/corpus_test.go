package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tansaku/internal/corpus"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/storage"
)

func newCorpusEngine(t *testing.T) *Engine {
	t.Helper()
	b, err := storage.NewBleveBackend("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	require.NoError(t, corpus.Seed(context.Background(), b))
	return newTestEngine(b)
}

func resultIDs(resp *models.SearchResponse) []string {
	ids := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		ids[i] = r.DocumentID
	}
	return ids
}

func TestCorpus_ComprehensiveFindsMachineLearningDocs(t *testing.T) {
	e := newCorpusEngine(t)

	resp, err := e.Search(context.Background(), "機械学習", models.StrategyComprehensive, 10)
	require.NoError(t, err)
	assert.False(t, resp.Rejected)
	assert.Subset(t, resultIDs(resp), []string{"2", "6"})
	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestCorpus_ExpansionNeverLosesHits(t *testing.T) {
	e := newCorpusEngine(t)
	ctx := context.Background()

	for _, q := range corpus.Scenarios {
		basic, err := e.Search(ctx, q, models.StrategyBasic, 10)
		require.NoError(t, err)
		comprehensive, err := e.Search(ctx, q, models.StrategyComprehensive, 10)
		require.NoError(t, err)
		assert.Subset(t, resultIDs(comprehensive), resultIDs(basic), q)
	}
}

func TestCorpus_CompareLengthCases(t *testing.T) {
	e := newCorpusEngine(t)
	for _, c := range corpus.LengthCases {
		report := e.Compare(context.Background(), c.Query)
		assert.Equal(t, c.Query, report.Query)
		assert.GreaterOrEqual(t, report.ExpandedHits, 0)
		assert.Equal(t, report.ExpandedHits-report.OriginalHits, report.Improvement)
	}
}
