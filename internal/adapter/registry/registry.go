// Package registry wires the research method adapters from configuration.
package registry

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/adapter/airesearch"
	"github.com/octobees/contact-finder/internal/adapter/scraper"
	"github.com/octobees/contact-finder/internal/adapter/websearch"
	"github.com/octobees/contact-finder/internal/adapter/whois"
	"github.com/octobees/contact-finder/internal/config"
	"github.com/octobees/contact-finder/internal/entity"
)

// Registry holds one adapter per research method.
type Registry struct {
	adapters map[entity.MethodKind]adapter.Adapter
}

// New returns an empty registry; Register adds adapters to it.
func New() *Registry {
	return &Registry{adapters: make(map[entity.MethodKind]adapter.Adapter)}
}

// Build creates the default adapters from cfg.
func Build(cfg *config.Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: cfg.Research.AdapterTimeout}

	r := New()
	r.Register(scraper.New(scraper.Config{
		PageTimeout:       cfg.Research.PageTimeout,
		RequestsPerSecond: cfg.Research.ScraperRPS,
		RespectRobots:     cfg.Research.RespectRobots,
		Logger:            logger,
	}))
	r.Register(whois.New(whois.Config{
		Timeout: cfg.Research.PageTimeout,
		Logger:  logger,
	}))
	r.Register(websearch.New(websearch.Config{
		HTTPClient:    client,
		TavilyKey:     cfg.Keys.Tavily,
		BingKey:       cfg.Keys.Bing,
		FreeFallback:  cfg.Research.FreeSearchFallback,
		QueryInterval: time.Second,
		Logger:        logger,
	}))
	r.Register(airesearch.New(airesearch.Config{
		Keys: airesearch.Keys{
			OpenRouter: cfg.Keys.OpenRouter,
			OpenAI:     cfg.Keys.OpenAI,
			Anthropic:  cfg.Keys.Anthropic,
			Gemini:     cfg.Keys.Gemini,
		},
		Provider:   cfg.Research.AIProvider,
		Model:      cfg.Research.AIModel,
		HTTPClient: client,
		Logger:     logger,
	}))
	return r
}

// Register adds a, replacing any adapter of the same kind.
func (r *Registry) Register(a adapter.Adapter) {
	r.adapters[a.Kind()] = a
}

// Lookup returns the adapter for kind.
func (r *Registry) Lookup(kind entity.MethodKind) (adapter.Adapter, bool) {
	a, ok := r.adapters[kind]
	return a, ok
}

// All returns the registered adapters in method priority order.
func (r *Registry) All() []adapter.Adapter {
	out := make([]adapter.Adapter, 0, len(r.adapters))
	for _, kind := range entity.AllMethods {
		if a, ok := r.adapters[kind]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Availability reports, per method, the error Available returns for req.
// A nil entry means the method can run.
func (r *Registry) Availability(req entity.ResearchRequest) map[entity.MethodKind]error {
	out := make(map[entity.MethodKind]error, len(r.adapters))
	for _, a := range r.All() {
		out[a.Kind()] = a.Available(req)
	}
	return out
}
