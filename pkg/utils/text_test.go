package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hello...", Truncate("hello world", 5))
	assert.Equal(t, "x", Truncate("x", 0))
	assert.Equal(t, "データ...", Truncate("データベース", 3))
}

func TestStripMarkers(t *testing.T) {
	assert.Equal(t, "機械学習の基礎", StripMarkers("<mark>機械学習</mark>の基礎", "<mark>", "</mark>"))
	assert.Equal(t, "...a b...", StripMarkers("...[a] b...", "[", "]"))
	assert.Equal(t, "plain", StripMarkers("plain"))
	assert.Equal(t, "plain", StripMarkers("plain", ""))
}
