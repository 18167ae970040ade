// Package crawler fetches article pages, reduces them to their readable
// content and runs LLM extraction over the result.
package crawler

import (
	"context"
	"errors"
	"time"

	"sitemap-extract/pkg/extraction"
	"sitemap-extract/pkg/storage"
)

const (
	EngineBrowser = "chromedp"
	EngineHTTP    = "http"
)

var (
	ErrUnknownEngine = errors.New("unknown crawler engine")
	ErrSessionClosed = errors.New("crawler session is not open")
	ErrNoContent     = errors.New("no content above word count threshold")
)

// Fetcher retrieves the rendered HTML of a page. Open and Close bracket a
// session; Fetch may be called concurrently while the session is open.
type Fetcher interface {
	Open(ctx context.Context) error
	Fetch(ctx context.Context, url string) (*storage.Page, error)
	Close() error
}

// CrawlRequest describes a single page crawl.
type CrawlRequest struct {
	URL string
	// WordCountThreshold drops text blocks with fewer words.
	WordCountThreshold int
	// Spec drives LLM extraction. Without one the cleaned text blocks are
	// returned as-is.
	Spec *extraction.Spec
	// BypassCache forces a fresh fetch. The fetched page is still stored.
	BypassCache bool
}

// NewCrawlRequest returns a request with the defaults used by batch runs.
func NewCrawlRequest(url string, spec *extraction.Spec) CrawlRequest {
	return CrawlRequest{
		URL:                url,
		WordCountThreshold: 1,
		Spec:               spec,
		BypassCache:        true,
	}
}

// CrawlResult is the outcome of one crawl. ExtractedContent holds a JSON
// array when Success is true.
type CrawlResult struct {
	URL              string
	Success          bool
	ExtractedContent string
	ErrorMessage     string
	StatusCode       int
	FromCache        bool
	Duration         time.Duration
}

// Config selects and tunes the fetcher.
type Config struct {
	Engine     string        `mapstructure:"engine"`
	UserAgent  string        `mapstructure:"user_agent"`
	CacheDir   string        `mapstructure:"cache_dir"`
	NavTimeout time.Duration `mapstructure:"nav_timeout"`
	WaitTime   time.Duration `mapstructure:"wait_time"`
	ChromePath string        `mapstructure:"chrome_path"`
	Headless   bool          `mapstructure:"headless"`

	RespectRobots bool `mapstructure:"respect_robots"`
	// BypassCache skips page cache reads. Pages are cached either way when a
	// cache exists.
	BypassCache bool `mapstructure:"bypass_cache"`
}
