package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tansaku/internal/models"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Plan: &models.ExpansionPlan{
			Query:    "機械学習",
			Strategy: models.StrategyComprehensive,
			Terms:    []models.Term{{Text: "機械学習"}},
			Expanded: []string{"機械学習", "AI"},
			Match:    `"機械学習" OR "AI"`,
		},
		Results: []*models.SearchResult{
			{DocumentID: "2", Title: "機械学習入門", Score: -1.5, Highlighted: "<mark>機械学習</mark>入門", Snippet: "[機械学習]の基礎", Rank: 1},
		},
		Total:     1,
		QueryTime: 3,
		Backend:   "bleve",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{" JSON ", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSearchResults(&buf, sampleResponse(), OutputText))

	out := buf.String()
	for _, sub := range []string{"Strategy: comprehensive", `"機械学習" OR "AI"`, "Found 1 results in 3ms (bleve)", "Rank: 1", "ID: 2", "<mark>機械学習</mark>入門", "[機械学習]の基礎"} {
		assert.Contains(t, out, sub)
	}
}

func TestWriteSearchResults_Rejected(t *testing.T) {
	resp := sampleResponse()
	resp.Results = nil
	resp.Total = 0
	resp.Rejected = true
	resp.RejectReason = "timeout"

	var buf bytes.Buffer
	require.NoError(t, WriteSearchResults(&buf, resp, OutputText))
	assert.Contains(t, buf.String(), "Query rejected by bleve backend: timeout")
	assert.NotContains(t, buf.String(), "Found")
}

func TestWriteSearchResults_Compact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSearchResults(&buf, sampleResponse(), OutputCompact))
	assert.Equal(t, "1\t2\t-1.5000\t機械学習入門\n", buf.String())
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSearchResults(&buf, sampleResponse(), OutputJSON))

	var decoded models.SearchResponse
	require.NoError(t, json.NewDecoder(&buf).Decode(&decoded))
	assert.Equal(t, "bleve", decoded.Backend)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, "2", decoded.Results[0].DocumentID)
	assert.Equal(t, models.StrategyComprehensive, decoded.Plan.Strategy)
}

func TestWriteSearchResults_UnknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSearchResults(&buf, sampleResponse(), OutputFormat("unknown")))
	assert.Contains(t, buf.String(), "Found")
}

func TestWriteExpansion(t *testing.T) {
	plan := sampleResponse().Plan

	var buf bytes.Buffer
	require.NoError(t, WriteExpansion(&buf, plan, OutputText))
	assert.Contains(t, buf.String(), "Terms:    機械学習")
	assert.Contains(t, buf.String(), "Expanded: 機械学習, AI")
	assert.NotContains(t, buf.String(), "Fallback")

	buf.Reset()
	require.NoError(t, WriteExpansion(&buf, plan, OutputCompact))
	assert.Equal(t, "\"機械学習\" OR \"AI\"\n", buf.String())

	buf.Reset()
	plan.Fallback = true
	require.NoError(t, WriteExpansion(&buf, plan, OutputText))
	assert.Contains(t, buf.String(), "Fallback")
}

func TestWriteComparison(t *testing.T) {
	report := models.NewComparisonReport("機械学習", `"機械学習" OR "AI"`, 0, 3)

	var buf bytes.Buffer
	require.NoError(t, WriteComparison(&buf, report, OutputText))
	assert.Contains(t, buf.String(), "Original hits: 0")
	assert.Contains(t, buf.String(), "Improvement:   +3 (300.0%)")

	buf.Reset()
	require.NoError(t, WriteComparison(&buf, report, OutputCompact))
	assert.Equal(t, "0\t3\t+3\t300.0%\t機械学習\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteComparison(&buf, report, OutputJSON))
	var decoded models.ComparisonReport
	require.NoError(t, json.NewDecoder(&buf).Decode(&decoded))
	assert.Equal(t, 3.0, decoded.ImprovementRatio)
}

func TestWriteStrategyComparison(t *testing.T) {
	basic := sampleResponse()
	basic.Plan = &models.ExpansionPlan{Strategy: models.StrategyBasic, Match: `"機械学習"`}
	resps := []*models.SearchResponse{basic, sampleResponse()}

	var buf bytes.Buffer
	require.NoError(t, WriteStrategyComparison(&buf, "機械学習", resps, OutputText))
	out := buf.String()
	assert.Contains(t, out, "=== 機械学習 ===")
	assert.Contains(t, out, "[basic] 1 hits")
	assert.Contains(t, out, "[comprehensive] 1 hits")
	assert.Contains(t, out, "1. 機械学習入門 (2)")

	buf.Reset()
	require.NoError(t, WriteStrategyComparison(&buf, "機械学習", resps, OutputCompact))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "basic"))
}
