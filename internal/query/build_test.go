package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tansaku/internal/models"
)

func termsN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%d", i+1)
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	for _, s := range models.Strategies {
		n, ok := Build(nil, s)
		assert.False(t, ok, s.String())
		assert.Nil(t, n, s.String())
	}
}

func TestBuild_Basic(t *testing.T) {
	n, ok := Build([]string{"データベース", "機械学習"}, models.StrategyBasic)
	require.True(t, ok)
	g, isGroup := n.(*Group)
	require.True(t, isGroup)
	assert.Equal(t, Or, g.Op)
	for _, c := range g.Children {
		assert.True(t, c.(*Literal).Phrase)
	}
	assert.Equal(t, `"データベース" OR "機械学習"`, FTS5(n))
}

func TestBuild_Comprehensive(t *testing.T) {
	n, ok := Build([]string{"機械学習", "AI", "Python"}, models.StrategyComprehensive)
	require.True(t, ok)
	g := n.(*Group)
	assert.Equal(t, Or, g.Op)
	for _, c := range g.Children {
		assert.False(t, c.(*Literal).Phrase)
	}
	assert.Equal(t, "機械学習 OR AI OR Python", FTS5(n))
}

func TestBuild_ProgressiveTiers(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "t1"},
		{2, "t1 AND t2"},
		{3, "t1 OR t2 OR t3"},
		{4, "t1 OR t2 OR t3 OR t4"},
		{5, "(t1 AND t2 AND t3) OR (t4 OR t5)"},
		{6, "(t1 AND t2 AND t3) OR (t4 OR t5 OR t6)"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			n, ok := Build(termsN(tt.n), models.StrategyProgressive)
			require.True(t, ok)
			assert.Equal(t, tt.want, FTS5(n))
		})
	}
}

func TestBuild_ProgressiveRootShape(t *testing.T) {
	for _, count := range []int{1, 2} {
		g := mustBuild(t, termsN(count), models.StrategyProgressive)
		assert.Equal(t, And, g.Op, "n=%d", count)
		assert.Len(t, g.Children, count)
	}
	for _, count := range []int{3, 4} {
		g := mustBuild(t, termsN(count), models.StrategyProgressive)
		assert.Equal(t, Or, g.Op, "n=%d", count)
		assert.Len(t, g.Children, count)
	}
	for _, count := range []int{5, 7, 10} {
		g := mustBuild(t, termsN(count), models.StrategyProgressive)
		assert.Equal(t, Or, g.Op)
		require.Len(t, g.Children, 2)
		core := g.Children[0].(*Group)
		rest := g.Children[1].(*Group)
		assert.Equal(t, And, core.Op)
		assert.Equal(t, []string{"t1", "t2", "t3"}, Leaves(core))
		assert.Equal(t, Or, rest.Op)
		assert.Len(t, rest.Children, count-3)
	}
}

func TestBuild_SingleTermProgressive(t *testing.T) {
	g := mustBuild(t, []string{"機械学習"}, models.StrategyProgressive)
	assert.Equal(t, And, g.Op)
	assert.Equal(t, []string{"機械学習"}, Leaves(g))
	assert.Equal(t, "機械学習", FTS5(g))
}

func TestBuild_CoverageAllStrategies(t *testing.T) {
	for _, count := range []int{1, 2, 3, 4, 5, 8} {
		texts := termsN(count)
		for _, s := range models.Strategies {
			n, ok := Build(texts, s)
			require.True(t, ok)
			assert.ElementsMatch(t, texts, Leaves(n), "%s n=%d", s, count)
			Walk(n, func(n Node) {
				if g, isGroup := n.(*Group); isGroup {
					assert.NotEmpty(t, g.Children)
				}
			})
		}
	}
}

func mustBuild(t *testing.T, texts []string, s models.Strategy) *Group {
	t.Helper()
	n, ok := Build(texts, s)
	require.True(t, ok)
	g, isGroup := n.(*Group)
	require.True(t, isGroup)
	return g
}
