package parser

import (
	"context"
	"fmt"

	"sitemap-extract/pkg/logger"
)

// Resolver turns a sitemap URL into a flat list of page URLs, expanding
// nested sitemap references one level deep.
type Resolver struct {
	client DownloadClient
	log    *logger.Logger
}

func NewResolver(client DownloadClient, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{
		client: client,
		log:    log.WithField("component", "sitemap_resolver"),
	}
}

// Resolve returns page URLs in discovery order. It never fails: an
// unreachable or unparsable root sitemap yields an empty slice, and entries
// that cannot be handled are skipped. URLs are not deduplicated.
func (r *Resolver) Resolve(ctx context.Context, sitemapURL string) []string {
	r.log.WithField("sitemap", sitemapURL).Info("Getting sitemap")

	entries := r.ResolveEntries(ctx, sitemapURL)

	links := make([]string, 0, len(entries))
	skippedCount := 0
	for _, entry := range entries {
		if entry.Skipped {
			skippedCount++
			continue
		}
		links = append(links, entry.URLs...)
	}

	r.log.WithFields(map[string]interface{}{
		"sitemap": sitemapURL,
		"links":   len(links),
		"skipped": skippedCount,
	}).Info(fmt.Sprintf("Found %d links", len(links)))

	return links
}

// ResolveEntries returns one EntryResult per <loc> in the root sitemap.
func (r *Resolver) ResolveEntries(ctx context.Context, sitemapURL string) []EntryResult {
	locs, err := r.fetchLocs(ctx, sitemapURL)
	if err != nil {
		r.log.WithError(err).WithField("sitemap", sitemapURL).Warn("Failed to load sitemap")
		if len(locs) == 0 {
			return nil
		}
	}

	entries := make([]EntryResult, 0, len(locs))
	for _, loc := range locs {
		entries = append(entries, r.resolveEntry(ctx, loc))
	}
	return entries
}

func (r *Resolver) resolveEntry(ctx context.Context, loc string) EntryResult {
	if loc == "" {
		return skipped(loc, "empty loc", false)
	}

	if !IsNestedSitemap(loc) {
		return included(loc, []string{loc}, false)
	}

	children, err := r.fetchLocs(ctx, loc)
	if err != nil && len(children) == 0 {
		r.log.WithError(err).WithField("sitemap", loc).Debug("Skipping nested sitemap")
		return skipped(loc, err.Error(), true)
	}

	urls := make([]string, 0, len(children))
	for _, child := range children {
		if child != "" {
			urls = append(urls, child)
		}
	}
	return included(loc, urls, true)
}

// fetchLocs downloads a document and extracts its <loc> values. A parse error
// is returned alongside whatever locations were read before it.
func (r *Resolver) fetchLocs(ctx context.Context, sitemapURL string) ([]string, error) {
	body, err := r.client.Download(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download sitemap: %w", err)
	}
	defer body.Close()

	return ExtractLocs(body)
}
