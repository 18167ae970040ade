package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"sitemap-extract/pkg/logger"
	"sitemap-extract/pkg/storage"
)

// BrowserFetcher renders pages in a shared headless Chrome instance, one tab
// per Fetch.
type BrowserFetcher struct {
	config Config
	log    *logger.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewBrowserFetcher(config Config) *BrowserFetcher {
	return &BrowserFetcher{
		config: config,
		log:    logger.GetLogger().WithField("component", "browser_fetcher"),
	}
}

// Open starts the browser. The browser outlives ctx and is released by Close.
func (b *BrowserFetcher) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("headless", b.config.Headless),
	)
	if b.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.config.UserAgent))
	}
	if b.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(b.config.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run on a fresh context launches the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	b.log.WithField("headless", b.config.Headless).Info("Browser started")
	return nil
}

func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*storage.Page, error) {
	b.mu.Lock()
	browserCtx := b.browserCtx
	b.mu.Unlock()
	if browserCtx == nil {
		return nil, ErrSessionClosed
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	// Tie the tab to the caller's context as well as the browser's.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	timeout := b.config.NavTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	timeoutCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	// RunResponse blocks until the main document loads and returns its response.
	resp, err := chromedp.RunResponse(timeoutCtx, chromedp.Navigate(url))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	var status int
	if resp != nil {
		status = int(resp.Status)
	}
	if err := checkStatus(status); err != nil {
		return nil, err
	}

	tasks := []chromedp.Action{chromedp.WaitReady("body")}
	if b.config.WaitTime > 0 {
		tasks = append(tasks, chromedp.Sleep(b.config.WaitTime))
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rendering %s failed: %w", url, err)
	}

	return &storage.Page{
		URL:        url,
		HTML:       html,
		StatusCode: status,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

func (b *BrowserFetcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx == nil {
		return nil
	}
	b.browserCancel()
	b.allocCancel()
	b.browserCtx = nil
	b.log.Info("Browser closed")
	return nil
}
