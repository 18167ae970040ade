package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sitemap-extract/internal/service"
	"sitemap-extract/pkg/crawler"
	"sitemap-extract/pkg/extraction"
	"sitemap-extract/pkg/logger"
	"sitemap-extract/pkg/storage"
	"sitemap-extract/pkg/worker"
)

// Controller runs a batch of crawl-and-extract jobs and persists the results.
type Controller struct {
	resolver    service.ResolverService
	crawler     service.CrawlerService
	pool        *worker.Pool
	stripPrefix string
	reuseCache  bool
	newWriter   func(outDir, stripPrefix string) service.ArtifactService
	log         *logger.Logger
}

type ControllerConfig struct {
	Pool        worker.Config
	StripPrefix string
	// ReuseCache lets crawls read pages cached by earlier runs.
	ReuseCache bool
}

type Failure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Report summarises a batch. Files and Failures follow input order.
type Report struct {
	SitemapURL string                 `json:"sitemap_url,omitempty"`
	OutputDir  string                 `json:"output_dir"`
	Total      int                    `json:"total"`
	Succeeded  int                    `json:"succeeded"`
	Failed     int                    `json:"failed"`
	Items      int                    `json:"items"`
	Files      []string               `json:"files"`
	Failures   []Failure              `json:"failures"`
	StartedAt  time.Time              `json:"started_at"`
	Duration   time.Duration          `json:"duration"`
	Pool       worker.MetricsSnapshot `json:"pool"`
}

func NewController(
	resolver service.ResolverService,
	engine service.CrawlerService,
	config ControllerConfig,
) *Controller {
	return &Controller{
		resolver:    resolver,
		crawler:     engine,
		pool:        worker.NewPool(config.Pool),
		stripPrefix: config.StripPrefix,
		reuseCache:  config.ReuseCache,
		newWriter: func(outDir, stripPrefix string) service.ArtifactService {
			return storage.NewFileWriter(outDir, stripPrefix)
		},
		log: logger.GetLogger().WithField("component", "controller"),
	}
}

// Process resolves sitemapURL and runs the batch over every URL it lists.
func (c *Controller) Process(ctx context.Context, sitemapURL string, spec *extraction.Spec, outDir string) (*Report, error) {
	urls := c.resolver.Resolve(ctx, sitemapURL)
	report, err := c.Run(ctx, urls, spec, outDir)
	if report != nil {
		report.SitemapURL = sitemapURL
	}
	return report, err
}

// Run crawls every URL through one crawler session, waits for all of them,
// then writes one artifact per successful extraction in input order.
// Per-URL failures are logged and counted. The error is non-nil only when
// the session cannot be opened or ctx is cancelled; in the latter case the
// report still covers the URLs that finished.
func (c *Controller) Run(ctx context.Context, urls []string, spec *extraction.Spec, outDir string) (*Report, error) {
	report := &Report{
		OutputDir: outDir,
		Total:     len(urls),
		Files:     []string{},
		Failures:  []Failure{},
		StartedAt: time.Now(),
	}
	if len(urls) == 0 {
		c.log.Warn("No URLs to crawl")
		return report, nil
	}

	if err := c.crawler.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open crawler session: %w", err)
	}
	defer func() {
		if err := c.crawler.Close(); err != nil {
			c.log.WithError(err).Warn("Failed to close crawler session")
		}
	}()

	c.log.WithFields(map[string]interface{}{
		"urls":        len(urls),
		"concurrency": c.pool.Limit(len(urls)),
		"output_dir":  outDir,
	}).Info("Starting crawl")

	progress := logger.NewProgressReporter(c.log, len(urls), "Crawling")
	results, runErr := worker.Gather(ctx, c.pool, len(urls), func(ctx context.Context, i int) (*crawler.CrawlResult, error) {
		req := crawler.NewCrawlRequest(urls[i], spec)
		req.BypassCache = !c.reuseCache
		res := c.crawler.Crawl(ctx, req)
		progress.Record(res.Success)
		return res, nil
	})

	// Finished results are persisted even when the run was cancelled.
	writeCtx := context.WithoutCancel(ctx)
	writer := c.newWriter(outDir, c.stripPrefix)

	for i, r := range results {
		res := r.Value
		if r.Err != nil || res == nil {
			msg := "no result"
			if r.Err != nil {
				msg = r.Err.Error()
			}
			res = &crawler.CrawlResult{URL: urls[i], ErrorMessage: msg}
		}

		items, path, err := c.persist(writeCtx, writer, res)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, Failure{URL: res.URL, Error: err.Error()})
			c.log.WithField("url", res.URL).Error(fmt.Sprintf("Failed to extract from %s. Error: %s", res.URL, err.Error()))
			continue
		}

		report.Succeeded++
		report.Items += items
		report.Files = append(report.Files, path)
		c.log.WithFields(map[string]interface{}{
			"url":  res.URL,
			"file": path,
		}).Info(fmt.Sprintf("Extracted %d items from %s", items, res.URL))
	}

	report.Duration = time.Since(report.StartedAt)
	report.Pool = c.pool.Metrics().GetSnapshot()

	c.log.WithFields(map[string]interface{}{
		"total":       report.Total,
		"succeeded":   report.Succeeded,
		"failed":      report.Failed,
		"duration_ms": report.Duration.Milliseconds(),
	}).Info("Crawl finished")

	return report, runErr
}

// persist decodes a successful result and writes it. A failed crawl or
// malformed JSON is returned as an error.
func (c *Controller) persist(ctx context.Context, writer service.ArtifactService, res *crawler.CrawlResult) (int, string, error) {
	if !res.Success {
		msg := res.ErrorMessage
		if msg == "" {
			msg = "unknown error"
		}
		return 0, "", errors.New(msg)
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(res.ExtractedContent), &payload); err != nil {
		return 0, "", fmt.Errorf("invalid extracted JSON: %w", err)
	}

	path, err := writer.Write(ctx, res.URL, json.RawMessage(res.ExtractedContent))
	if err != nil {
		return 0, "", err
	}
	return countItems(payload), path, nil
}

func countItems(payload interface{}) int {
	switch v := payload.(type) {
	case []interface{}:
		return len(v)
	case map[string]interface{}:
		return len(v)
	default:
		return 1
	}
}
