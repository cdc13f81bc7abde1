// Package websearch implements the web search research method on top of
// keyed search APIs (Tavily, Bing) with DuckDuckGo as a keyless fallback.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/adapter/scraper"
	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/extract"
)

const (
	resultsPerQuery = 5
	snippetRadius   = 60
)

// Config is passed explicitly by the caller.
type Config struct {
	HTTPClient   *http.Client
	TavilyKey    string
	BingKey      string
	FreeFallback bool
	// QueryInterval spaces consecutive queries to the same engine.
	QueryInterval time.Duration
	// Base URLs are overridable for tests.
	TavilyURL     string
	BingURL       string
	DuckDuckGoURL string
	Logger        *zap.Logger
}

// engineSpec pairs an engine with its query pacing.
type engineSpec struct {
	engine  Engine
	limiter *rate.Limiter
}

// Adapter is the web search research method.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

var _ adapter.Adapter = (*Adapter)(nil)

func New(cfg Config) *Adapter {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, client: client, logger: logger.Named("websearch")}
}

func (a *Adapter) Kind() entity.MethodKind { return entity.MethodWebSearch }

// Available fails with missing_api_key when neither a keyed engine nor the
// free fallback can be used.
func (a *Adapter) Available(entity.ResearchRequest) error {
	if a.cfg.TavilyKey == "" && a.cfg.BingKey == "" && !a.cfg.FreeFallback {
		return adapter.MissingKey(a.Kind(), "TAVILY_API_KEY or BING_API_KEY")
	}
	return nil
}

// engines returns the engines used for req. Every engine receives all the
// queries generated for the request depth.
func (a *Adapter) engines(req entity.ResearchRequest) []engineSpec {
	limiter := func() *rate.Limiter {
		if a.cfg.QueryInterval <= 0 {
			return rate.NewLimiter(rate.Inf, 1)
		}
		return rate.NewLimiter(rate.Every(a.cfg.QueryInterval), 1)
	}

	var out []engineSpec
	if a.cfg.TavilyKey != "" {
		advanced := req.SearchDepth != entity.DepthStandard
		out = append(out, engineSpec{
			engine:  NewTavilyEngine(a.client, a.cfg.TavilyKey, a.cfg.TavilyURL, advanced),
			limiter: limiter(),
		})
	}
	if a.cfg.BingKey != "" {
		out = append(out, engineSpec{
			engine:  NewBingEngine(a.client, a.cfg.BingKey, a.cfg.BingURL, bingMarket(req.Country)),
			limiter: limiter(),
		})
	}
	if len(out) == 0 && a.cfg.FreeFallback {
		out = append(out, engineSpec{
			engine:  NewDuckDuckGoEngine(a.client, a.cfg.DuckDuckGoURL),
			limiter: limiter(),
		})
	}
	return out
}

// Discover runs the generated queries against every usable engine and
// extracts contacts from result titles and snippets.
func (a *Adapter) Discover(ctx context.Context, req entity.ResearchRequest) ([]entity.RawContact, error) {
	if err := a.Available(req); err != nil {
		return nil, err
	}
	queries := Queries(req)

	var (
		out      []entity.RawContact
		failures []*adapter.Error
		calls    int
	)
	seen := make(map[string]struct{})

	for _, spec := range a.engines(req) {
		for _, query := range queries {
			if err := spec.limiter.Wait(ctx); err != nil {
				return out, adapter.Classify(a.Kind(), err)
			}
			calls++
			results, err := spec.engine.Search(ctx, query, resultsPerQuery)
			if err != nil {
				classified := adapter.Classify(a.Kind(), err)
				a.logger.Warn("search query failed",
					zap.String("engine", spec.engine.Name()),
					zap.String("query", query),
					zap.String("error_kind", string(classified.Kind)),
					zap.Error(err),
				)
				failures = append(failures, classified)
				if ctx.Err() != nil {
					return out, adapter.Classify(a.Kind(), ctx.Err())
				}
				continue
			}
			for _, r := range results {
				for _, rc := range contactsFrom(r) {
					key := string(rc.Kind) + ":" + rc.Value
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
					out = append(out, rc)
				}
			}
		}
	}

	if calls > 0 && len(failures) == calls {
		return nil, adapter.MostSevere(failures)
	}
	return out, nil
}

func contactsFrom(r Result) []entity.RawContact {
	content := strings.TrimSpace(r.Title + " " + r.Content)
	var out []entity.RawContact
	for _, email := range extract.Emails(content) {
		out = append(out, entity.RawContact{
			Value:        email,
			Kind:         entity.KindEmail,
			SourceMethod: entity.MethodWebSearch,
			SourceURL:    r.URL,
			RawContext:   extract.Snippet(content, email, snippetRadius),
		})
	}
	for _, phone := range extract.Phones(content) {
		out = append(out, entity.RawContact{
			Value:        phone,
			Kind:         entity.KindPhone,
			SourceMethod: entity.MethodWebSearch,
			SourceURL:    r.URL,
			RawContext:   extract.Snippet(content, phone, snippetRadius),
		})
	}
	return out
}

// Queries builds the search queries for req, most useful first. The depth
// decides how many are returned.
func Queries(req entity.ResearchRequest) []string {
	company := strings.TrimSpace(req.CompanyName)
	queries := []string{
		strings.TrimSpace(fmt.Sprintf("%q contact email phone %s", company, req.Country)),
		fmt.Sprintf("%q executives management team", company),
		fmt.Sprintf("%q employee directory staff", company),
	}
	if domain := req.Domain(); domain != "" {
		queries = append(queries, fmt.Sprintf("site:%s contact email", domain))
	}
	queries = append(queries,
		fmt.Sprintf("%q press release contact spokesperson", company),
		fmt.Sprintf("%q business directory listing", company),
	)
	if scraper.LanguageFor(req.Country) == "de" {
		queries = append(queries, fmt.Sprintf("%q impressum kontakt", company))
	}

	switch req.SearchDepth {
	case entity.DepthStandard:
		return queries[:2]
	case entity.DepthComprehensive:
		return queries
	default:
		return queries[:3]
	}
}

func bingMarket(country string) string {
	switch scraper.LanguageFor(country) {
	case "de":
		return "de-DE"
	case "fr":
		return "fr-FR"
	case "es":
		return "es-ES"
	}
	return "en-US"
}
