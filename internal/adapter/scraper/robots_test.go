package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/contact-finder/internal/adapter/scraper"
)

func robotsServer(t *testing.T, status func(hit int32) int) (*url.URL, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit := hits.Add(1)
		code := status(hit)
		w.WriteHeader(code)
		if code == http.StatusOK {
			fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
		}
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL + "/impressum")
	require.NoError(t, err)
	return target, &hits
}

func newAuditor(ttl time.Duration) *scraper.RobotsAuditor {
	return scraper.NewRobotsAuditor(scraper.NewFetcher(nil, time.Second, 1000, nil), ttl, nil)
}

func TestRobotsCancelledLookupIsNotCached(t *testing.T) {
	t.Parallel()

	target, hits := robotsServer(t, func(int32) int { return http.StatusOK })
	auditor := newAuditor(time.Hour)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, auditor.Allowed(cancelled, target), "unreadable robots.txt allows the page")
	assert.Equal(t, int32(0), hits.Load())

	assert.False(t, auditor.Allowed(context.Background(), target))
	assert.False(t, auditor.Allowed(context.Background(), target))
	assert.Equal(t, int32(1), hits.Load(), "a definitive answer is cached")
}

func TestRobotsServerErrorIsRetried(t *testing.T) {
	t.Parallel()

	target, hits := robotsServer(t, func(hit int32) int {
		if hit == 1 {
			return http.StatusServiceUnavailable
		}
		return http.StatusOK
	})
	auditor := newAuditor(time.Hour)

	assert.True(t, auditor.Allowed(context.Background(), target))
	assert.False(t, auditor.Allowed(context.Background(), target))
	assert.Equal(t, int32(2), hits.Load())
}

func TestRobotsMissingFileAllowsAndIsCached(t *testing.T) {
	t.Parallel()

	target, hits := robotsServer(t, func(int32) int { return http.StatusNotFound })
	auditor := newAuditor(time.Hour)

	assert.True(t, auditor.Allowed(context.Background(), target))
	assert.True(t, auditor.Allowed(context.Background(), target))
	assert.Equal(t, int32(1), hits.Load())
}

func TestRobotsEntriesExpire(t *testing.T) {
	t.Parallel()

	target, hits := robotsServer(t, func(int32) int { return http.StatusOK })
	auditor := newAuditor(time.Millisecond)

	assert.False(t, auditor.Allowed(context.Background(), target))
	time.Sleep(5 * time.Millisecond)
	assert.False(t, auditor.Allowed(context.Background(), target))
	assert.Equal(t, int32(2), hits.Load())
}
