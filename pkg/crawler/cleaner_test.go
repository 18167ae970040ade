package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean_ExtractsArticleBlocks(t *testing.T) {
	content, err := Clean(articleHTML, "https://site.com/a", 1)
	require.NoError(t, err)

	assert.Equal(t, "Best Miles Cards 2024", content.Title)
	doc := content.Document()
	assert.True(t, strings.HasPrefix(doc, "# Best Miles Cards 2024\n\n"))
	assert.Contains(t, doc, "General spending cards earn a flat rate")
	assert.Contains(t, doc, "Card A earns four miles per dollar on online spend.")
	assert.NotContains(t, doc, "should never appear")
}

func TestClean_WordCountThreshold(t *testing.T) {
	content, err := Clean(articleHTML, "https://site.com/a", 10)
	require.NoError(t, err)
	require.NotEmpty(t, content.Blocks)
	for _, b := range content.Blocks {
		assert.GreaterOrEqual(t, len(strings.Fields(b)), 10)
	}
	assert.NotContains(t, content.Blocks, "Ok.")
}

func TestClean_EmptyDocument(t *testing.T) {
	content, err := Clean("<html><body>  </body></html>", "https://site.com/a", 1)
	require.NoError(t, err)
	assert.Empty(t, content.Blocks)
}

func TestKeepBlock(t *testing.T) {
	tests := []struct {
		raw       string
		threshold int
		want      string
		keep      bool
	}{
		{"  hello \n\t world ", 1, "hello world", true},
		{"hello world", 2, "hello world", true},
		{"hello world", 3, "", false},
		{"   ", 0, "", false},
	}
	for _, tt := range tests {
		got, ok := keepBlock(tt.raw, tt.threshold)
		assert.Equal(t, tt.keep, ok, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}
