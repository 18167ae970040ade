package service

import (
	"context"

	"sitemap-extract/pkg/crawler"
)

// ResolverService turns a sitemap URL into the article URLs it lists.
type ResolverService interface {
	Resolve(ctx context.Context, sitemapURL string) []string
}

// CrawlerService crawls pages within an open session.
type CrawlerService interface {
	Open(ctx context.Context) error
	Close() error
	Crawl(ctx context.Context, req crawler.CrawlRequest) *crawler.CrawlResult
}

// ArtifactService persists one extraction payload per URL.
type ArtifactService interface {
	Write(ctx context.Context, url string, payload interface{}) (string, error)
}
