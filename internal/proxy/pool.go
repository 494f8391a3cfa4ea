// Package proxy provides a process-wide rotating proxy pool with a
// time-boxed ban list. The pool refills itself from an upstream provider
// whose list is cached locally to avoid hammering the provider API.
package proxy

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"sellerscout/internal/logger"
)

// ErrNoProxyAvailable is returned when every pool entry is banned or equal
// to the previously used proxy after a full rotation.
var ErrNoProxyAvailable = errors.New("no proxy available")

// ListProvider supplies the upstream proxy list.
type ListProvider interface {
	List(ctx context.Context) ([]string, error)
}

// Config holds pool settings.
type Config struct {
	BanTTL   time.Duration
	CacheTTL time.Duration
	// CacheFile is the local JSON cache of the provider list.
	CacheFile string
}

// Pool is a rotating proxy queue with a ban list. All mutable state is
// guarded by a single mutex because the pool is shared across concurrent
// fetch operations.
type Pool struct {
	mu       sync.Mutex
	queue    []string
	bans     map[string]time.Time
	provider ListProvider
	cfg      Config
	log      logger.Interface
	now      func() time.Time
}

// NewPool creates a proxy pool backed by the given provider.
func NewPool(cfg Config, provider ListProvider, log logger.Interface) *Pool {
	if cfg.BanTTL <= 0 {
		cfg.BanTTL = 60 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &Pool{
		bans:     make(map[string]time.Time),
		provider: provider,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Next returns the next usable proxy, skipping banned entries and the
// proxy used by the caller's previous request. Expired bans are purged
// lazily on each call. Returns ErrNoProxyAvailable when a full rotation
// finds nothing acceptable.
func (p *Pool) Next(last string) (string, error) {
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		p.refillLocked()
		if len(p.queue) == 0 {
			return "", ErrNoProxyAvailable
		}
	}

	for key, expiry := range p.bans {
		if now.After(expiry) {
			delete(p.bans, key)
		}
	}

	lastKey := Canonical(last)
	for tries := len(p.queue); tries > 0; tries-- {
		px := p.queue[0]
		p.queue = append(p.queue[1:], px)

		key := Canonical(px)
		if _, banned := p.bans[key]; banned || key == lastKey {
			continue
		}
		return px, nil
	}

	return "", ErrNoProxyAvailable
}

// Ban excludes a proxy from selection until the pool's ban TTL elapses.
func (p *Pool) Ban(proxy string) {
	if proxy == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.bans[Canonical(proxy)] = p.now().Add(p.cfg.BanTTL)
}

// Refresh forces an upstream fetch, replacing the queue and the local cache.
func (p *Pool) Refresh(ctx context.Context) error {
	proxies, err := p.provider.List(ctx)
	if err != nil {
		return err
	}
	if len(proxies) > 0 {
		saveCache(p.cfg.CacheFile, proxies, p.now())
	}

	p.mu.Lock()
	p.queue = append(p.queue[:0], proxies...)
	p.mu.Unlock()

	p.log.Info("proxy list refreshed", "count", len(proxies))
	return nil
}

// Size returns the current queue length.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Endpoints returns a copy of the current queue.
func (p *Pool) Endpoints() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.queue))
	copy(out, p.queue)
	return out
}

// refillLocked repopulates the queue from the local cache, falling back to
// the provider API. Caller must hold p.mu.
func (p *Pool) refillLocked() {
	if proxies := loadCache(p.cfg.CacheFile, p.cfg.CacheTTL, p.now()); len(proxies) > 0 {
		p.queue = proxies
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	proxies, err := p.provider.List(ctx)
	if err != nil {
		p.log.Warn("proxy list fetch failed", "error", err.Error())
		return
	}
	if len(proxies) > 0 {
		saveCache(p.cfg.CacheFile, proxies, p.now())
	}
	p.queue = proxies
}

// Canonical normalizes a proxy to user:pass@host:port identity form:
// lower-cased, scheme stripped.
func Canonical(proxy string) string {
	if proxy == "" {
		return ""
	}
	px := strings.ToLower(proxy)
	for _, scheme := range []string{"http://", "https://", "socks5://"} {
		if strings.HasPrefix(px, scheme) {
			return px[len(scheme):]
		}
	}
	return px
}

// WrapScheme prepends http:// when the proxy has no scheme.
func WrapScheme(proxy string) string {
	if proxy == "" || strings.Contains(proxy, "://") {
		return proxy
	}
	return "http://" + proxy
}
