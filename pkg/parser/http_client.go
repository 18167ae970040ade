package parser

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const maxRedirects = 10

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// HTTPClient downloads sitemap documents over a shared fasthttp client.
type HTTPClient struct {
	client    *fasthttp.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTPClient creates a client with the given per-request timeout. A zero
// timeout falls back to 30 seconds.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		client: &fasthttp.Client{
			ReadTimeout:               timeout,
			WriteTimeout:              timeout,
			MaxIdemponentCallAttempts: 1,
		},
		timeout:   timeout,
		userAgent: defaultUserAgent,
	}
}

// SetUserAgent overrides the browser-like default User-Agent.
func (h *HTTPClient) SetUserAgent(ua string) {
	if ua != "" {
		h.userAgent = ua
	}
}

// Download fetches targetURL and returns its (decompressed) body.
func (h *HTTPClient) Download(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(targetURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	h.setRequestHeaders(req, targetURL)

	timeout := h.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	req.SetTimeout(timeout)

	// Sitemaps are often moved behind http->https or bare->www redirects.
	if err := h.client.DoRedirects(req, resp, maxRedirects); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode())
	}

	var body []byte
	if strings.EqualFold(string(resp.Header.ContentEncoding()), "gzip") {
		decoded, err := resp.BodyGunzip()
		if err != nil {
			return nil, fmt.Errorf("failed to gunzip body: %w", err)
		}
		body = decoded
	} else {
		// resp is released on return, so the body must be copied out
		body = append([]byte(nil), resp.Body()...)
	}

	if strings.HasSuffix(strings.ToLower(targetURL), ".gz") && isGzipPayload(body) {
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	}

	return io.NopCloser(bytes.NewReader(body)), nil
}

func (h *HTTPClient) setRequestHeaders(req *fasthttp.Request, targetURL string) {
	req.Header.SetUserAgent(h.userAgent)
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,text/html;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")

	if parsedURL, err := url.Parse(targetURL); err == nil && parsedURL.Host != "" {
		req.Header.Set("Referer", fmt.Sprintf("%s://%s/", parsedURL.Scheme, parsedURL.Host))
	}
}

func isGzipPayload(b []byte) bool {
	return len(b) > 2 && b[0] == 0x1f && b[1] == 0x8b
}
