// Package transport provides the proxy-aware HTTP executor shared by all
// fetchers. One retry policy covers JSON, text and HEAD requests: client
// errors return empty results immediately, rate-limit responses ban the
// proxy that hit them, everything transient is retried with linear backoff
// and degrades to an empty result once attempts are exhausted.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"sellerscout/internal/logger"
	"sellerscout/internal/proxy"
)

// ErrNotStarted is returned when a request is issued before Start.
var ErrNotStarted = errors.New("transport not started: call Start first")

// maxResponseBodyBytes limits the size of fetched responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// proxyCtxKey carries the per-attempt proxy URL through the http.Transport.
type proxyCtxKey struct{}

// ProxySelector supplies and bans proxies.
type ProxySelector interface {
	Next(last string) (string, error)
	Ban(proxy string)
}

// Config holds transport settings.
type Config struct {
	Timeout      time.Duration
	Retries      int
	Backoff      time.Duration
	ConnLimit    int
	PerHostLimit int

	// UseProxy enables pool selection; FixedProxy bypasses the pool.
	UseProxy   bool
	FixedProxy string
}

// HeadResult is the outcome of a HEAD request.
type HeadResult struct {
	StatusCode int
	Headers    http.Header
}

// Client executes requests with retry, backoff and proxy rotation. It must
// only be used between Start and Close; the connection pool is acquired on
// Start and released on Close.
type Client struct {
	cfg     Config
	pool    ProxySelector
	log     logger.Interface
	headers map[string]string

	httpClient *http.Client

	mu        sync.Mutex
	lastProxy string

	sleep func(ctx context.Context, d time.Duration)
}

// NewClient creates a transport client. Extra headers are attached to every
// request (used for API authorization). Exactly cfg.Retries attempts are
// made per request; zero retries degrades every fetch to the empty result.
func NewClient(cfg Config, pool ProxySelector, log logger.Interface, headers map[string]string) *Client {
	return &Client{
		cfg:     cfg,
		pool:    pool,
		log:     log,
		headers: headers,
		sleep:   sleepCtx,
	}
}

// Start acquires the connection pool.
func (c *Client) Start() {
	t := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if raw, ok := req.Context().Value(proxyCtxKey{}).(string); ok && raw != "" {
				return url.Parse(raw)
			}
			return nil, nil
		},
		MaxConnsPerHost:     c.cfg.PerHostLimit,
		MaxIdleConns:        c.cfg.ConnLimit,
		MaxIdleConnsPerHost: c.cfg.PerHostLimit,
		IdleConnTimeout:     90 * time.Second,
	}
	c.httpClient = &http.Client{
		Timeout:   c.cfg.Timeout,
		Transport: t,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
}

// FetchJSON issues a GET and decodes the JSON payload. Exhausted retries and
// client errors yield an empty map, never an error: callers treat empty as
// "no data".
func (c *Client) FetchJSON(ctx context.Context, rawURL string) (map[string]any, error) {
	if c.httpClient == nil {
		return nil, ErrNotStarted
	}

	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		px := c.pickProxy()

		resp, err := c.do(ctx, http.MethodGet, rawURL, px, true, map[string]string{
			"User-Agent":      RandomUserAgent(),
			"Accept":          "*/*",
			"x-client-name":   "site",
			"accept-encoding": "br, gzip",
		})
		if err != nil {
			if ctx.Err() != nil {
				return map[string]any{}, ctx.Err()
			}
			c.sleep(ctx, c.cfg.Backoff*time.Duration(attempt))
			continue
		}

		body, status, readErr := drain(resp)
		if readErr != nil {
			c.sleep(ctx, c.cfg.Backoff*time.Duration(attempt))
			continue
		}

		switch {
		case status == http.StatusOK:
			var decoded map[string]any
			if unmarshalErr := json.Unmarshal(body, &decoded); unmarshalErr != nil {
				return map[string]any{}, nil
			}
			return decoded, nil
		case isClientError(status):
			return map[string]any{}, nil
		case isRateLimited(status):
			c.banAndWait(ctx, px, status, rawURL, attempt)
		default:
			c.log.Warn("unexpected status", "status", status, "url", rawURL)
			c.sleep(ctx, c.cfg.Backoff*time.Duration(attempt))
		}
	}

	return map[string]any{}, nil
}

// FetchText issues a GET and returns the body as a string. Same degradation
// semantics as FetchJSON, with "" as the empty result.
func (c *Client) FetchText(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	if c.httpClient == nil {
		return "", ErrNotStarted
	}

	if headers == nil {
		headers = map[string]string{
			"User-Agent": RandomUserAgent(),
			"Accept":     "text/html",
		}
	}

	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		px := c.pickProxy()

		resp, err := c.do(ctx, http.MethodGet, rawURL, px, true, headers)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.sleep(ctx, c.cfg.Backoff*time.Duration(attempt))
			continue
		}

		body, status, readErr := drain(resp)
		if readErr != nil {
			c.sleep(ctx, c.cfg.Backoff*time.Duration(attempt))
			continue
		}

		switch {
		case status == http.StatusOK:
			return string(body), nil
		case isClientError(status):
			return "", nil
		case isRateLimited(status):
			c.banAndWait(ctx, px, status, rawURL, attempt)
		default:
			c.log.Warn("unexpected status", "status", status, "url", rawURL)
			c.sleep(ctx, c.cfg.Backoff*time.Duration(attempt))
		}
	}

	return "", nil
}

// Head issues a HEAD request. Redirects are never followed unless
// followRedirects is set; rate-limited attempts ban the proxy and retry.
// The final fallback attempt runs without a proxy.
func (c *Client) Head(ctx context.Context, rawURL string, followRedirects bool) (*HeadResult, error) {
	if c.httpClient == nil {
		return nil, ErrNotStarted
	}
	if c.cfg.Retries < 1 {
		return &HeadResult{}, nil
	}

	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		px := c.pickProxy()

		resp, err := c.do(ctx, http.MethodHead, rawURL, px, followRedirects, map[string]string{
			"User-Agent": RandomUserAgent(),
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.sleep(ctx, c.cfg.Backoff*time.Duration(attempt))
			continue
		}

		_, status, _ := drain(resp)
		if !isRateLimited(status) {
			return &HeadResult{StatusCode: status, Headers: resp.Header}, nil
		}
		c.banAndWait(ctx, px, status, rawURL, attempt)
	}

	resp, err := c.do(ctx, http.MethodHead, rawURL, "", followRedirects, map[string]string{
		"User-Agent": RandomUserAgent(),
	})
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", rawURL, err)
	}
	_, status, _ := drain(resp)
	return &HeadResult{StatusCode: status, Headers: resp.Header}, nil
}

// do executes one attempt.
func (c *Client) do(
	ctx context.Context,
	method, rawURL, proxyURL string,
	followRedirects bool,
	headers map[string]string,
) (*http.Response, error) {
	reqCtx := ctx
	if proxyURL != "" {
		reqCtx = context.WithValue(ctx, proxyCtxKey{}, proxy.WrapScheme(proxyURL))
	}

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := c.httpClient
	if followRedirects {
		redirecting := *client
		redirecting.CheckRedirect = nil
		client = &redirecting
	}

	return client.Do(req)
}

// pickProxy selects the proxy for one attempt: the fixed proxy when
// configured, otherwise the next pool entry distinct from the previous one.
func (c *Client) pickProxy() string {
	if c.cfg.FixedProxy != "" {
		return c.cfg.FixedProxy
	}
	if !c.cfg.UseProxy || c.pool == nil {
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	px, err := c.pool.Next(c.lastProxy)
	if err != nil {
		c.lastProxy = ""
		return ""
	}
	c.lastProxy = proxy.Canonical(px)
	return px
}

// banAndWait records a rate-limited proxy and applies the backoff delay.
func (c *Client) banAndWait(ctx context.Context, px string, status int, rawURL string, attempt int) {
	c.log.Warn("rate limited",
		"status", status,
		"attempt", attempt,
		"retries", c.cfg.Retries,
		"url", rawURL,
		"proxy", proxy.Canonical(px),
	)
	if px != "" && c.pool != nil {
		c.pool.Ban(px)
	}
	c.sleep(ctx, c.cfg.Backoff*time.Duration(attempt))
}

// drain reads and closes the response body.
func drain(resp *http.Response) (body []byte, status int, err error) {
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// isClientError reports statuses treated as "no data", never retried.
func isClientError(status int) bool {
	return status == http.StatusBadRequest ||
		status == http.StatusNotFound ||
		status == http.StatusUnprocessableEntity
}

// isRateLimited reports statuses that ban the serving proxy.
func isRateLimited(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusForbidden
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
