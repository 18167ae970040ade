package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"github.com/valyala/fasthttp"
)

const maxRobotsBodyBytes = 512 * 1024

var ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

// RobotsChecker answers robots.txt queries, fetching each host's file once
// per session. A missing or unreadable robots.txt allows everything.
type RobotsChecker struct {
	client    *fasthttp.Client
	userAgent string
	timeout   time.Duration

	mu    sync.Mutex
	hosts map[string]*robotstxt.RobotsData // nil entry means allow all
}

func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &RobotsChecker{
		client: &fasthttp.Client{
			ReadTimeout:         timeout,
			MaxResponseBodySize: maxRobotsBodyBytes,
		},
		userAgent: userAgent,
		timeout:   timeout,
		hosts:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be crawled.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	host := strings.ToLower(u.Host)

	r.mu.Lock()
	data, ok := r.hosts[host]
	r.mu.Unlock()

	if !ok {
		data = r.fetch(ctx, u.Scheme, host)
		if err := ctx.Err(); err != nil {
			return false, err
		}
		r.mu.Lock()
		r.hosts[host] = data
		r.mu.Unlock()
	}

	if data == nil {
		return true, nil
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.userAgent), nil
}

func (r *RobotsChecker) fetch(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	if ctx.Err() != nil {
		return nil
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(scheme + "://" + host + "/robots.txt")
	req.Header.SetUserAgent(r.userAgent)

	if err := r.client.DoTimeout(req, resp, r.timeout); err != nil {
		return nil
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil
	}

	data, err := robotstxt.FromBytes(resp.Body())
	if err != nil {
		return nil
	}
	return data
}
