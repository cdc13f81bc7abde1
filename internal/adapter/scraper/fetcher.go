package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxBodyBytes = 2 << 20

// Page is the outcome of one HTTP fetch.
type Page struct {
	URL        *url.URL
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher downloads pages politely: one token bucket per host and a rotating
// desktop User-Agent.
type Fetcher struct {
	client   *http.Client
	agents   *UserAgentPool
	limiters *HostLimiter
}

// NewFetcher builds a fetcher; a nil client gets a default with the given timeout.
func NewFetcher(client *http.Client, timeout time.Duration, rps float64, agents *UserAgentPool) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if agents == nil {
		agents = NewUserAgentPool(nil)
	}
	return &Fetcher{client: client, agents: agents, limiters: NewHostLimiter(rps)}
}

// Fetch waits for the host's rate limiter, then GETs target. Non-2xx
// responses are returned as pages, not errors.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Page, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if err := f.limiters.Wait(ctx, u.Host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.agents.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,de;q=0.8,fr;q=0.7,es;q=0.6")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}

	final := u
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	return &Page{
		URL:        final,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}

// limiterIdle is how long an unused host limiter is kept. A limiter idle for
// longer has a full bucket again, so dropping it changes nothing.
const limiterIdle = 10 * time.Minute

type hostLimiter struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// HostLimiter hands out one rate.Limiter per host and forgets hosts that
// have been idle for a while.
type HostLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*hostLimiter
	limit     rate.Limit
	now       func() time.Time
	lastSweep time.Time
}

// NewHostLimiter allows rps requests per second per host with a burst of one.
func NewHostLimiter(rps float64) *HostLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &HostLimiter{limiters: make(map[string]*hostLimiter), limit: limit, now: time.Now}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	h.mu.Lock()
	now := h.now()
	if now.Sub(h.lastSweep) >= limiterIdle {
		for key, l := range h.limiters {
			if now.Sub(l.lastUsed) >= limiterIdle {
				delete(h.limiters, key)
			}
		}
		h.lastSweep = now
	}
	l, ok := h.limiters[host]
	if !ok {
		l = &hostLimiter{limiter: rate.NewLimiter(h.limit, 1)}
		h.limiters[host] = l
	}
	l.lastUsed = now
	h.mu.Unlock()
	return l.limiter.Wait(ctx)
}
