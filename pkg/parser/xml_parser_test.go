package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestExtractLocs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "urlset",
			doc:  urlset("https://example.com/1", "https://example.com/2", "https://example.com/3"),
			want: []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"},
		},
		{
			name: "sitemap index",
			doc:  sitemapIndex("https://example.com/a.xml", "https://example.com/b.xml"),
			want: []string{"https://example.com/a.xml", "https://example.com/b.xml"},
		},
		{
			name: "whitespace and cdata",
			doc: `<urlset><url><loc>
				https://example.com/spaced
			</loc></url><url><loc><![CDATA[https://example.com/cdata?a=1&b=2]]></loc></url></urlset>`,
			want: []string{"https://example.com/spaced", "https://example.com/cdata?a=1&b=2"},
		},
		{
			name: "no namespace and mixed case",
			doc:  `<urlset><url><LOC>https://example.com/upper</LOC></url></urlset>`,
			want: []string{"https://example.com/upper"},
		},
		{
			name: "empty urlset",
			doc:  `<?xml version="1.0"?><urlset></urlset>`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractLocs(strings.NewReader(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLocs_DeclaredCharset(t *testing.T) {
	doc := `<?xml version="1.0" encoding="ISO-8859-1"?><urlset><url><loc>https://example.com/café</loc></url></urlset>`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(doc)
	require.NoError(t, err)

	got, err := ExtractLocs(bytes.NewReader([]byte(encoded)))

	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/café"}, got)
}

func TestExtractLocs_TruncatedDocumentKeepsPrefix(t *testing.T) {
	doc := `<urlset><url><loc>https://example.com/ok</loc></url><url><loc>https://exa`

	got, err := ExtractLocs(strings.NewReader(doc))

	assert.Error(t, err)
	assert.Equal(t, []string{"https://example.com/ok"}, got)
}

func TestIsNestedSitemap(t *testing.T) {
	tests := []struct {
		loc  string
		want bool
	}{
		{"https://site.com/post-sitemap1.xml", true},
		{"https://site.com/sitemap.xml.gz", true},
		{"https://site.com/sitemap.xml?page=2", true},
		{"https://site.com/2024/01/article/", false},
		{"https://site.com/xml-tips", false},
		{"https://site.com/SITEMAP.XML", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.loc, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNestedSitemap(tt.loc))
		})
	}
}
