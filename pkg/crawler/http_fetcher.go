package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/net/html/charset"

	"sitemap-extract/pkg/storage"
)

const maxRedirects = 16

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTPFetcher downloads raw HTML without rendering scripts.
type HTTPFetcher struct {
	client    *fasthttp.Client
	timeout   time.Duration
	userAgent string
}

func NewHTTPFetcher(config Config) *HTTPFetcher {
	timeout := config.NavTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ua := config.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &HTTPFetcher{
		client: &fasthttp.Client{
			ReadTimeout:               timeout,
			WriteTimeout:              timeout,
			MaxIdemponentCallAttempts: 1,
			MaxResponseBodySize:       16 << 20,
		},
		timeout:   timeout,
		userAgent: ua,
	}
}

func (h *HTTPFetcher) Open(ctx context.Context) error { return nil }

func (h *HTTPFetcher) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *HTTPFetcher) Fetch(ctx context.Context, url string) (*storage.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")

	timeout := h.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	req.SetTimeout(timeout)

	if err := h.client.DoRedirects(req, resp, maxRedirects); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	if err := checkStatus(status); err != nil {
		return nil, err
	}

	body := resp.Body()
	if strings.EqualFold(string(resp.Header.ContentEncoding()), "gzip") {
		decoded, err := resp.BodyGunzip()
		if err != nil {
			return nil, fmt.Errorf("failed to gunzip body: %w", err)
		}
		body = decoded
	}

	html, err := decodeBody(body, string(resp.Header.ContentType()))
	if err != nil {
		return nil, err
	}

	return &storage.Page{
		URL:        url,
		HTML:       html,
		StatusCode: status,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// checkStatus rejects responses outside 2xx. Zero means the status is
// unknown, e.g. a page served from the browser cache, and is accepted.
func checkStatus(status int) error {
	if status == 0 || (status >= 200 && status < 300) {
		return nil
	}
	return fmt.Errorf("HTTP %d", status)
}

// decodeBody converts body to UTF-8, honoring the Content-Type charset or a
// <meta charset> declaration.
func decodeBody(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body), nil
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(decoded), nil
}
