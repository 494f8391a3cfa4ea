package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerscout/internal/logger"
)

// recordingPool tracks Next/Ban calls.
type recordingPool struct {
	proxy string
	bans  []string
}

func (p *recordingPool) Next(last string) (string, error) { return p.proxy, nil }
func (p *recordingPool) Ban(proxy string)                 { p.bans = append(p.bans, proxy) }

func newTestClient(cfg Config, pool ProxySelector) *Client {
	c := NewClient(cfg, pool, logger.NewNoOp(), nil)
	c.sleep = func(ctx context.Context, d time.Duration) {}
	c.Start()
	return c
}

func TestClient_FetchJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"products":[{"supplierId":42}]}}`))
	}))
	defer srv.Close()

	c := newTestClient(Config{Timeout: time.Second, Retries: 3, Backoff: time.Millisecond}, nil)
	defer c.Close()

	out, err := c.FetchJSON(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "data")
}

func TestClient_FetchJSON_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(Config{Timeout: time.Second, Retries: 5, Backoff: time.Millisecond}, nil)
	defer c.Close()

	out, err := c.FetchJSON(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FetchJSON_RateLimitedBansProxyAndBoundsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	// Point the "proxy" at the test server so the attempt is observable.
	pool := &recordingPool{proxy: strings.TrimPrefix(srv.URL, "http://")}

	const retries = 4
	var waited time.Duration
	backoff := 10 * time.Millisecond

	c := NewClient(Config{
		Timeout:  time.Second,
		Retries:  retries,
		Backoff:  backoff,
		UseProxy: true,
	}, pool, logger.NewNoOp(), nil)
	c.sleep = func(ctx context.Context, d time.Duration) { waited += d }
	c.Start()
	defer c.Close()

	out, err := c.FetchJSON(context.Background(), "http://upstream.invalid/items")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(retries), calls.Load())
	assert.Len(t, pool.bans, retries)

	// Linear backoff: at least backoff * (1 + 2 + ... + (retries-1)).
	var minWait time.Duration
	for i := 1; i < retries; i++ {
		minWait += backoff * time.Duration(i)
	}
	assert.GreaterOrEqual(t, waited, minWait)
}

func TestClient_ZeroRetriesIssuesNoRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(Config{Timeout: time.Second, Retries: 0, Backoff: time.Millisecond}, nil)
	defer c.Close()

	out, err := c.FetchJSON(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, out)

	text, err := c.FetchText(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Empty(t, text)

	res, err := c.Head(context.Background(), srv.URL, false)
	require.NoError(t, err)
	assert.Zero(t, res.StatusCode)

	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_FetchText_EmptyOnExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(Config{Timeout: time.Second, Retries: 2, Backoff: time.Millisecond}, nil)
	defer c.Close()

	out, err := c.FetchText(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClient_Head_ReturnsRedirectLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/id/12345")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	c := newTestClient(Config{Timeout: time.Second, Retries: 2, Backoff: time.Millisecond}, nil)
	defer c.Close()

	res, err := c.Head(context.Background(), srv.URL, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/id/12345", res.Headers.Get("Location"))
}

func TestClient_NotStarted(t *testing.T) {
	c := NewClient(Config{Retries: 1}, nil, logger.NewNoOp(), nil)

	_, err := c.FetchJSON(context.Background(), "http://example.com")
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = c.FetchText(context.Background(), "http://example.com", nil)
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = c.Head(context.Background(), "http://example.com", false)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestRandomUserAgent(t *testing.T) {
	ua := RandomUserAgent()
	assert.Contains(t, ua, "Mozilla/5.0")
}
