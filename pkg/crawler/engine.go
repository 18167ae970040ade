package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"sitemap-extract/pkg/llm"
	"sitemap-extract/pkg/logger"
	"sitemap-extract/pkg/storage"
	"sitemap-extract/pkg/utils"
)

// Engine crawls pages inside one fetcher session and turns them into
// extracted JSON.
type Engine struct {
	fetcher   Fetcher
	extractor llm.Client
	cache     storage.PageCache
	robots    *RobotsChecker
	log       *logger.Logger

	open atomic.Bool
}

// NewEngine wires an engine from its parts. extractor and cache may be nil.
func NewEngine(fetcher Fetcher, extractor llm.Client, cache storage.PageCache) *Engine {
	return &Engine{
		fetcher:   fetcher,
		extractor: extractor,
		cache:     cache,
		log:       logger.GetLogger().WithField("component", "crawler"),
	}
}

// New builds an engine for config.Engine. Pages are cached on disk when
// config.CacheDir is set. Without a cache dir, an in-memory cache is kept
// only when cache reads are enabled; otherwise nothing would read it.
func New(config Config, extractor llm.Client) (*Engine, error) {
	fetcher, err := NewFetcher(config)
	if err != nil {
		return nil, err
	}

	cache, err := newPageCache(config)
	if err != nil {
		return nil, err
	}
	engine := NewEngine(fetcher, extractor, cache)
	if config.RespectRobots {
		engine.SetRobotsChecker(NewRobotsChecker(config.UserAgent, config.NavTimeout))
	}
	return engine, nil
}

func newPageCache(config Config) (storage.PageCache, error) {
	switch {
	case config.CacheDir != "":
		fc, err := storage.NewFileCache(config.CacheDir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case !config.BypassCache:
		return storage.NewMemoryCache(0), nil
	default:
		return nil, nil
	}
}

// SetRobotsChecker makes the engine skip URLs disallowed by robots.txt.
func (e *Engine) SetRobotsChecker(r *RobotsChecker) {
	e.robots = r
}

// NewFetcher returns the fetcher named by config.Engine. An empty name
// selects the browser.
func NewFetcher(config Config) (Fetcher, error) {
	switch config.Engine {
	case "", EngineBrowser:
		return NewBrowserFetcher(config), nil
	case EngineHTTP:
		return NewHTTPFetcher(config), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, config.Engine)
	}
}

// Open starts the crawl session.
func (e *Engine) Open(ctx context.Context) error {
	if e.open.Load() {
		return nil
	}
	if err := e.fetcher.Open(ctx); err != nil {
		return err
	}
	e.open.Store(true)
	return nil
}

// Close ends the session. It is safe to call more than once.
func (e *Engine) Close() error {
	if !e.open.CompareAndSwap(true, false) {
		return nil
	}
	return e.fetcher.Close()
}

// Crawl fetches req.URL and extracts content from it. Failures are reported
// in the result rather than returned.
func (e *Engine) Crawl(ctx context.Context, req CrawlRequest) *CrawlResult {
	start := time.Now()
	result := &CrawlResult{URL: req.URL}
	defer func() {
		result.Duration = time.Since(start)
	}()

	content, err := e.crawl(ctx, req, result)
	if err != nil {
		result.ErrorMessage = err.Error()
		e.log.WithFields(map[string]interface{}{
			"url":      req.URL,
			"url_hash": utils.CalculateURLHashShort(req.URL),
		}).WithError(err).Debug("Crawl failed")
		return result
	}

	result.Success = true
	result.ExtractedContent = content
	return result
}

func (e *Engine) crawl(ctx context.Context, req CrawlRequest, result *CrawlResult) (string, error) {
	if !e.open.Load() {
		return "", ErrSessionClosed
	}
	if err := validateURL(req.URL); err != nil {
		return "", err
	}
	if e.robots != nil {
		allowed, err := e.robots.Allowed(ctx, req.URL)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", ErrDisallowedByRobots
		}
	}

	page, cached, err := e.page(ctx, req)
	if err != nil {
		return "", err
	}
	result.StatusCode = page.StatusCode
	result.FromCache = cached

	content, err := Clean(page.HTML, req.URL, req.WordCountThreshold)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	if len(content.Blocks) == 0 {
		return "", ErrNoContent
	}

	if req.Spec == nil {
		return blocksJSON(content.Blocks)
	}
	if e.extractor == nil {
		return "", errors.New("no LLM client configured")
	}

	return e.extractor.Extract(ctx, req.Spec, llm.Request{
		URL:     req.URL,
		Content: content.Document(),
	})
}

func (e *Engine) page(ctx context.Context, req CrawlRequest) (*storage.Page, bool, error) {
	if e.cache != nil && !req.BypassCache {
		page, ok, err := e.cache.Get(ctx, req.URL)
		if err != nil {
			e.log.WithField("url", req.URL).WithError(err).Warn("Page cache read failed")
		}
		if ok {
			return page, true, nil
		}
	}

	page, err := e.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, false, err
	}

	if e.cache != nil {
		if err := e.cache.Put(ctx, page); err != nil {
			e.log.WithField("url", req.URL).WithError(err).Warn("Page cache write failed")
		}
	}
	return page, false, nil
}

type textBlock struct {
	Index   int      `json:"index"`
	Tags    []string `json:"tags"`
	Content string   `json:"content"`
}

func blocksJSON(blocks []string) (string, error) {
	out := make([]textBlock, len(blocks))
	for i, b := range blocks {
		out[i] = textBlock{Index: i, Tags: []string{}, Content: b}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: expected an absolute http(s) URL", raw)
	}
	return nil
}
