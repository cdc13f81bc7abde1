package scraper

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RobotsAgent is the product token matched against robots.txt groups.
const RobotsAgent = "contact-finder"

// DefaultRobotsTTL is how long a fetched robots.txt is trusted.
const DefaultRobotsTTL = time.Hour

type robotsEntry struct {
	data    *robotstxt.RobotsData
	expires time.Time
}

// RobotsAuditor fetches and caches robots.txt per origin. Only definitive
// answers are cached: a parsed 2xx file, or a 4xx meaning no restrictions.
// Transport errors, cancelled contexts and 5xx responses are retried on the
// next lookup.
type RobotsAuditor struct {
	fetcher *Fetcher
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]robotsEntry
	group singleflight.Group
}

// NewRobotsAuditor creates an auditor that downloads robots.txt through
// fetcher. A non-positive ttl uses DefaultRobotsTTL.
func NewRobotsAuditor(fetcher *Fetcher, ttl time.Duration, logger *zap.Logger) *RobotsAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultRobotsTTL
	}
	return &RobotsAuditor{
		fetcher: fetcher,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
		cache:   make(map[string]robotsEntry),
	}
}

// Allowed reports whether target may be fetched. Hosts without a readable
// robots.txt are allowed.
func (r *RobotsAuditor) Allowed(ctx context.Context, target *url.URL) bool {
	data := r.rules(ctx, target.Scheme+"://"+target.Host)
	if data == nil {
		return true
	}
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.FindGroup(RobotsAgent).Test(path)
}

func (r *RobotsAuditor) rules(ctx context.Context, origin string) *robotstxt.RobotsData {
	if data, ok := r.cached(origin); ok {
		return data
	}

	v, err, _ := r.group.Do(origin, func() (any, error) {
		// another caller may have filled the cache while we waited
		if data, ok := r.cached(origin); ok {
			return data, nil
		}
		data, err := r.fetch(ctx, origin)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[origin] = robotsEntry{data: data, expires: r.now().Add(r.ttl)}
		r.mu.Unlock()
		return data, nil
	})
	if err != nil {
		r.logger.Debug("robots.txt unavailable, allowing this lookup", zap.String("origin", origin), zap.Error(err))
		return nil
	}
	return v.(*robotstxt.RobotsData)
}

func (r *RobotsAuditor) cached(origin string) (*robotstxt.RobotsData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[origin]
	if !ok {
		return nil, false
	}
	if !r.now().Before(entry.expires) {
		delete(r.cache, origin)
		return nil, false
	}
	return entry.data, true
}

// fetch returns nil data with a nil error when the origin places no
// restrictions, and an error when the answer is not definitive.
func (r *RobotsAuditor) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	page, err := r.fetcher.Fetch(ctx, origin+"/robots.txt")
	if err != nil {
		return nil, err
	}
	switch {
	case page.StatusCode >= 200 && page.StatusCode < 300:
		data, err := robotstxt.FromStatusAndBytes(page.StatusCode, page.Body)
		if err != nil {
			r.logger.Debug("robots.txt unparsable, allowing host", zap.String("origin", origin), zap.Error(err))
			return nil, nil
		}
		return data, nil
	case page.StatusCode >= 400 && page.StatusCode < 500:
		return nil, nil
	default:
		return nil, fmt.Errorf("robots.txt status %d", page.StatusCode)
	}
}
