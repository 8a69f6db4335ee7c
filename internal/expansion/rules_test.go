package expansion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	table := DefaultRules()
	require.Equal(t, 3, table.Len())
	rules := table.Rules()
	assert.Equal(t, "データ", rules[0].Trigger)
	assert.Equal(t, []string{"AI", "人工知能", "Python"}, rules[1].Related)

	// Rules returns a copy.
	rules[0].Related[0] = "changed"
	assert.Equal(t, "情報", table.Rules()[0].Related[0])
}

func TestRuleTable_RelatedInTableOrder(t *testing.T) {
	table := DefaultRules()
	got := table.Related(nil, "システムのデータ")
	assert.Equal(t, []string{"情報", "統計", "アーキテクチャ", "設計", "開発"}, got)
	assert.Empty(t, table.Related(nil, "ウェブ"))

	var nilTable *RuleTable
	assert.Empty(t, nilTable.Related(nil, "データ"))
}

func TestNewRuleTable_RejectsEmptyTrigger(t *testing.T) {
	_, err := NewRuleTable([]Rule{{Trigger: "  ", Related: []string{"x"}}})
	assert.Error(t, err)
}

func TestParseRules(t *testing.T) {
	data := []byte(`
rules:
  - trigger: クラウド
    related: [AWS, Azure, GCP]
  - trigger: セキュリティ
    related: ["暗号化", " ", "認証"]
`)
	table, err := ParseRules(data)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"暗号化", "認証"}, table.Rules()[1].Related)
}

func TestParseRules_Invalid(t *testing.T) {
	_, err := ParseRules([]byte("rules: [oops"))
	assert.Error(t, err)
}

func TestRuleSet_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - trigger: 検索\n    related: [探索]\n"), 0600))

	rs := NewRuleSet(nil)
	require.NoError(t, rs.Reload(path))
	assert.Equal(t, 1, rs.Table().Len())

	require.NoError(t, os.WriteFile(path, []byte("rules: {"), 0600))
	assert.Error(t, rs.Reload(path))
	assert.Equal(t, 1, rs.Table().Len(), "failed reload keeps the current table")

	assert.Error(t, rs.Reload(filepath.Join(t.TempDir(), "missing.yaml")))
}
