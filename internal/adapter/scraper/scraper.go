// Package scraper implements the website scraping research method: it walks
// the company site's home page and its contact, Impressum and team pages and
// extracts emails and phone numbers from them.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/metrics"
)

// Config is passed explicitly by the caller; the scraper never reads the environment.
type Config struct {
	HTTPClient        *http.Client
	PageTimeout       time.Duration
	RequestsPerSecond float64
	RespectRobots     bool
	// RobotsTTL bounds how long a fetched robots.txt is reused.
	RobotsTTL         time.Duration
	UserAgents        []string
	Logger            *zap.Logger
}

// Scraper is the website scraping adapter.
type Scraper struct {
	fetcher   *Fetcher
	robots    *RobotsAuditor
	detectors []Detector
	logger    *zap.Logger
}

var _ adapter.Adapter = (*Scraper)(nil)

// New builds a scraper from cfg.
func New(cfg Config) *Scraper {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.PageTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	fetcher := NewFetcher(cfg.HTTPClient, timeout, cfg.RequestsPerSecond, NewUserAgentPool(cfg.UserAgents))
	s := &Scraper{
		fetcher:   fetcher,
		detectors: DefaultDetectors(),
		logger:    logger.Named("scraper"),
	}
	if cfg.RespectRobots {
		s.robots = NewRobotsAuditor(fetcher, cfg.RobotsTTL, s.logger)
	}
	return s
}

// Kind implements adapter.Adapter.
func (s *Scraper) Kind() entity.MethodKind { return entity.MethodWebsiteScraping }

// Available implements adapter.Adapter; scraping needs no credentials.
func (s *Scraper) Available(entity.ResearchRequest) error { return nil }

// Discover crawls up to req.MaxPages pages of the company website.
func (s *Scraper) Discover(ctx context.Context, req entity.ResearchRequest) ([]entity.RawContact, error) {
	seed, err := entity.WebsiteURL(req.Website)
	if err != nil {
		return nil, adapter.NewError(s.Kind(), adapter.KindUnavailable, fmt.Errorf("invalid website: %w", err))
	}

	budget := req.MaxPages
	if budget <= 0 {
		budget = entity.DefaultPages
	}

	queue := CandidateURLs(seed, req.Country)
	visited := make(map[string]struct{})
	var (
		contacts []entity.RawContact
		failures []*adapter.Error
		fetched  int
		attempts int
	)

	for len(queue) > 0 && attempts < budget {
		if ctx.Err() != nil {
			break
		}
		target := queue[0]
		queue = queue[1:]
		if _, done := visited[target]; done {
			continue
		}
		visited[target] = struct{}{}

		u, err := url.Parse(target)
		if err != nil {
			continue
		}
		if s.robots != nil && !s.robots.Allowed(ctx, u) {
			s.logger.Debug("skipping page disallowed by robots.txt", zap.String("url", target))
			continue
		}

		attempts++
		page, err := s.fetcher.Fetch(ctx, target)
		if err != nil {
			failures = append(failures, adapter.Classify(s.Kind(), err))
			metrics.RecordPage(0, "")
			continue
		}

		if blocked, vendor := DetectBlock(page, s.detectors); blocked {
			metrics.RecordPage(page.StatusCode, vendor)
			failures = append(failures, adapter.NewError(s.Kind(), adapter.KindBlocked, fmt.Errorf("%s challenge on %s", vendor, target)))
			continue
		}
		metrics.RecordPage(page.StatusCode, "")
		switch {
		case page.StatusCode == http.StatusTooManyRequests:
			failures = append(failures, adapter.NewError(s.Kind(), adapter.KindRateLimited, &adapter.StatusError{StatusCode: page.StatusCode}))
			continue
		case page.StatusCode == http.StatusForbidden:
			failures = append(failures, adapter.NewError(s.Kind(), adapter.KindBlocked, &adapter.StatusError{StatusCode: page.StatusCode}))
			continue
		case page.StatusCode >= 400:
			continue
		}

		parsed, err := ParsePage(page)
		if err != nil {
			s.logger.Debug("unparsable page", zap.String("url", target), zap.Error(err))
			continue
		}
		fetched++

		hint := entity.ConfidenceMedium
		if IsLegalPage(page.URL) {
			hint = entity.ConfidenceHigh
		}
		for _, f := range parsed.Findings {
			contacts = append(contacts, entity.RawContact{
				Value:          f.Value,
				Kind:           f.Kind,
				SourceMethod:   s.Kind(),
				SourceURL:      page.URL.String(),
				RawContext:     f.Context,
				ConfidenceHint: hint,
			})
		}

		if followLinks(req.SearchDepth, target == seed.String()) {
			var discovered []string
			for _, link := range parsed.Links {
				if _, done := visited[link.String()]; !done {
					discovered = append(discovered, link.String())
				}
			}
			// Links the site itself points to beat guessed paths.
			queue = append(discovered, queue...)
		}
	}

	s.logger.Debug("scrape finished",
		zap.String("website", seed.String()),
		zap.Int("attempts", attempts),
		zap.Int("pages", fetched),
		zap.Int("findings", len(contacts)),
	)

	if fetched == 0 {
		if err := ctx.Err(); err != nil {
			return nil, adapter.Classify(s.Kind(), err)
		}
		if worst := adapter.MostSevere(failures); worst != nil {
			return nil, worst
		}
	}
	if len(contacts) == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, adapter.NewError(s.Kind(), adapter.KindTimeout, ctx.Err())
	}
	return contacts, nil
}

func followLinks(depth entity.SearchDepth, isSeed bool) bool {
	switch depth {
	case entity.DepthComprehensive:
		return true
	case entity.DepthStandard:
		return false
	default:
		return isSeed
	}
}
