// Package ratelimit provides a per-host token-bucket limiter for
// outbound page fetches, so saving a batch of articles from one site does
// not hammer it.
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// PerHost hands out an independent token bucket per hostname.
type PerHost struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a per-host limiter allowing rps requests per second with
// the given burst per host.
func New(rps float64, burst int) *PerHost {
	return &PerHost{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks until a request to the host of rawURL is allowed or the
// context is canceled. Unparseable URLs share a single bucket.
func (p *PerHost) Wait(ctx context.Context, rawURL string) error {
	return p.limiter(HostKey(rawURL)).Wait(ctx)
}

// Allow reports whether a request to the host of rawURL may proceed
// right now, without blocking.
func (p *PerHost) Allow(rawURL string) bool {
	return p.limiter(HostKey(rawURL)).Allow()
}

// HostKey reduces a URL to its limiter key: the lowercased hostname
// without a www prefix.
func HostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// limiter returns the bucket for a key, creating it on first use.
func (p *PerHost) limiter(key string) *rate.Limiter {
	p.mu.RLock()
	limiter, ok := p.limiters[key]
	p.mu.RUnlock()
	if ok {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if limiter, ok = p.limiters[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(p.limit, p.burst)
	p.limiters[key] = limiter
	return limiter
}
