package parser

import (
	"context"
	"io"
)

// DownloadClient fetches a document body. Implementations return an error for
// transport failures and non-success statuses alike.
type DownloadClient interface {
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// EntryResult is the outcome of handling a single <loc> entry of the root
// sitemap. A skipped entry contributes no URLs.
type EntryResult struct {
	Loc     string
	URLs    []string
	Nested  bool
	Skipped bool
	Reason  string
}

func included(loc string, urls []string, nested bool) EntryResult {
	return EntryResult{Loc: loc, URLs: urls, Nested: nested}
}

func skipped(loc, reason string, nested bool) EntryResult {
	return EntryResult{Loc: loc, Nested: nested, Skipped: true, Reason: reason}
}
