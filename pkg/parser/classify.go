package parser

import "strings"

// IsNestedSitemap reports whether a <loc> value points at another sitemap
// document rather than a page. Any location containing ".xml" qualifies,
// which also covers ".xml.gz" and query-suffixed variants. The match is
// case-sensitive.
//
// Only the root sitemap's entries are classified: locations inside a nested
// sitemap are returned as-is, so expansion stops after one level.
func IsNestedSitemap(loc string) bool {
	return strings.Contains(loc, ".xml")
}
