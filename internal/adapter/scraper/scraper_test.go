package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/adapter/scraper"
	"github.com/octobees/contact-finder/internal/entity"
)

const homePage = `<html><body>
<nav><a href="/produkte">Produkte</a> <a href="/rechtliches/impressum.html">Impressum</a></nav>
<p>Willkommen bei Acme</p>
</body></html>`

const impressumPage = `<html><head>
<script type="application/ld+json">{"@type":"Organization","name":"Acme GmbH","contactPoint":{"@type":"ContactPoint","contactType":"customer service","telephone":"+49 30 9876543"}}</script>
</head><body>
<h1>Impressum</h1>
<p>Acme GmbH</p><p>Geschäftsführer: Max Mustermann</p>
<p>E-Mail: <a href="mailto:kontakt@acme.de?subject=Hallo">kontakt@acme.de</a></p>
<p>Vertrieb: vertrieb [at] acme [dot] de</p>
<p>Tel.: <a href="tel:+493012345670">030 1234567-0</a></p>
<script>var x = "tracking@analytics.io";</script>
</body></html>`

func newSite(t *testing.T, pages map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newScraper(respectRobots bool) *scraper.Scraper {
	return scraper.New(scraper.Config{RequestsPerSecond: 1000, RespectRobots: respectRobots})
}

func TestDiscoverFindsImpressumContacts(t *testing.T) {
	t.Parallel()

	srv, _ := newSite(t, map[string]string{
		"/":                           homePage,
		"/rechtliches/impressum.html": impressumPage,
		"/robots.txt":                 "User-agent: *\nDisallow: /intern\n",
	})

	got, err := newScraper(true).Discover(context.Background(), entity.ResearchRequest{
		CompanyName: "Acme GmbH",
		Website:     srv.URL,
		MaxPages:    5,
		SearchDepth: entity.DepthDeep,
		Country:     "Germany",
	})
	require.NoError(t, err)

	byValue := make(map[string]entity.RawContact)
	for _, c := range got {
		assert.Equal(t, entity.MethodWebsiteScraping, c.SourceMethod)
		byValue[c.Value] = c
	}

	kontakt, ok := byValue["kontakt@acme.de"]
	require.True(t, ok, "expected kontakt@acme.de in %v", got)
	assert.Equal(t, entity.KindEmail, kontakt.Kind)
	assert.Equal(t, srv.URL+"/rechtliches/impressum.html", kontakt.SourceURL)
	assert.Equal(t, entity.ConfidenceHigh, kontakt.ConfidenceHint)

	vertrieb, ok := byValue["vertrieb@acme.de"]
	require.True(t, ok, "expected obfuscated address to be decoded")
	assert.Contains(t, vertrieb.RawContext, "Vertrieb")

	phone, ok := byValue["+493012345670"]
	require.True(t, ok, "expected tel: link")
	assert.Equal(t, entity.KindPhone, phone.Kind)

	ld, ok := byValue["+49 30 9876543"]
	require.True(t, ok, "expected JSON-LD telephone")
	assert.Contains(t, ld.RawContext, "customer service")

	_, leaked := byValue["tracking@analytics.io"]
	assert.False(t, leaked, "script contents must not be scanned")
}

func TestDiscoverRespectsPageBudget(t *testing.T) {
	t.Parallel()

	srv, hits := newSite(t, map[string]string{"/": homePage})

	got, err := newScraper(false).Discover(context.Background(), entity.ResearchRequest{
		Website:     srv.URL,
		MaxPages:    5,
		SearchDepth: entity.DepthStandard,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(5), hits.Load())
}

func TestDiscoverReportsBlockedSite(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `<html><title>Attention Required! | Cloudflare</title></html>`)
	}))
	t.Cleanup(srv.Close)

	_, err := newScraper(false).Discover(context.Background(), entity.ResearchRequest{
		Website:  srv.URL,
		MaxPages: 5,
	})
	require.Error(t, err)
	assert.Equal(t, adapter.KindBlocked, adapter.KindOf(err))
}

func TestDiscoverRejectsInvalidWebsite(t *testing.T) {
	t.Parallel()

	_, err := newScraper(false).Discover(context.Background(), entity.ResearchRequest{Website: "https://"})
	require.Error(t, err)
}

func TestCandidateURLsPrefersCountryLanguage(t *testing.T) {
	t.Parallel()

	seed, err := entity.WebsiteURL("acme.fr")
	require.NoError(t, err)

	urls := scraper.CandidateURLs(seed, "France")
	require.NotEmpty(t, urls)
	assert.Equal(t, "https://acme.fr/", urls[0])
	assert.Equal(t, "https://acme.fr/nous-contacter", urls[1])

	seen := make(map[string]bool)
	for _, u := range urls {
		assert.False(t, seen[u], "duplicate candidate %s", u)
		seen[u] = true
	}
	assert.True(t, seen["https://acme.fr/impressum"])
}

func TestDetectBlock(t *testing.T) {
	t.Parallel()

	blocked, vendor := scraper.DetectBlock(&scraper.Page{
		StatusCode: http.StatusForbidden,
		Header:     http.Header{"X-Datadome": []string{"protected"}},
	}, scraper.DefaultDetectors())
	assert.True(t, blocked)
	assert.Equal(t, "DataDome", vendor)

	blocked, _ = scraper.DetectBlock(&scraper.Page{StatusCode: http.StatusOK, Header: http.Header{}}, scraper.DefaultDetectors())
	assert.False(t, blocked)
}
