package storage

import (
	"net/url"
	"strings"
)

const artifactExt = ".json"

// FilenameFor derives the artifact file name for an article URL: the strip
// prefix is removed, every "/" becomes "_", and ".json" is appended. The
// result depends only on its arguments.
func FilenameFor(articleURL, stripPrefix string) string {
	stem := articleURL
	if stripPrefix != "" {
		stem = strings.ReplaceAll(stem, stripPrefix, "")
	}
	stem = strings.ReplaceAll(stem, "/", "_")
	if stem == "" {
		stem = "index"
	}
	return stem + artifactExt
}

// DefaultStripPrefix returns "scheme://host/" for sitemapURL, the prefix
// shared by every article listed in a same-origin sitemap. It returns an
// empty string when sitemapURL has no scheme or host.
func DefaultStripPrefix(sitemapURL string) string {
	u, err := url.Parse(sitemapURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
