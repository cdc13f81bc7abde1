// Package airesearch implements the AI assisted research method. A single
// prompt is sent to the configured LLM provider and the markdown table in
// the reply is turned into raw contacts.
package airesearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/entity"
)

// Keys holds the provider credentials.
type Keys struct {
	OpenRouter string
	OpenAI     string
	Anthropic  string
	Gemini     string
}

func (k Keys) forProvider(p Provider) string {
	switch p {
	case ProviderOpenRouter:
		return k.OpenRouter
	case ProviderOpenAI:
		return k.OpenAI
	case ProviderAnthropic:
		return k.Anthropic
	case ProviderGemini:
		return k.Gemini
	}
	return ""
}

// Config is passed explicitly by the caller.
type Config struct {
	Keys Keys
	// Provider and Model are defaults; a request may override both.
	Provider   string
	Model      string
	HTTPClient *http.Client
	// BaseURLs overrides provider endpoints, mainly for tests.
	BaseURLs map[Provider]string
	Logger   *zap.Logger
}

// Adapter is the AI research method.
type Adapter struct {
	cfg    Config
	logger *zap.Logger
}

var _ adapter.Adapter = (*Adapter)(nil)

func New(cfg Config) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, logger: logger.Named("airesearch")}
}

func (a *Adapter) Kind() entity.MethodKind { return entity.MethodAIAssistant }

// Available fails with missing_api_key when the selected provider has no key.
func (a *Adapter) Available(req entity.ResearchRequest) error {
	_, _, err := a.Selection(req)
	return err
}

// Selection returns the provider and model that would serve req: the
// requested provider, else the configured one, else the first provider with
// a key.
func (a *Adapter) Selection(req entity.ResearchRequest) (Provider, string, error) {
	requested := req.AIProvider
	if requested == "" {
		requested = a.cfg.Provider
	}
	provider, err := ParseProvider(requested)
	if err != nil {
		return "", "", adapter.NewError(a.Kind(), adapter.KindUnavailable, err)
	}

	if provider == "" {
		for _, p := range Providers {
			if a.cfg.Keys.forProvider(p) != "" {
				provider = p
				break
			}
		}
		if provider == "" {
			return "", "", adapter.MissingKey(a.Kind(), "OPENROUTER_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY")
		}
	} else if a.cfg.Keys.forProvider(provider) == "" {
		return "", "", adapter.MissingKey(a.Kind(), fmt.Sprintf("%s API key", provider))
	}

	model := req.AIModel
	if model == "" && (req.AIProvider == "" || req.AIProvider == a.cfg.Provider) {
		model = a.cfg.Model
	}
	if model == "" {
		model = DefaultModel(provider)
	}
	return provider, model, nil
}

func (a *Adapter) completer(p Provider) Completer {
	key := a.cfg.Keys.forProvider(p)
	base := a.cfg.BaseURLs[p]
	switch p {
	case ProviderOpenRouter:
		if base == "" {
			base = openRouterURL
		}
		return newOpenAICompleter(p, key, base, a.cfg.HTTPClient)
	case ProviderOpenAI:
		return newOpenAICompleter(p, key, base, a.cfg.HTTPClient)
	case ProviderAnthropic:
		return newAnthropicCompleter(key, base, a.cfg.HTTPClient)
	default:
		return newGeminiCompleter(key, base, a.cfg.HTTPClient)
	}
}

// Discover asks the provider for a contact table and parses the reply.
func (a *Adapter) Discover(ctx context.Context, req entity.ResearchRequest) ([]entity.RawContact, error) {
	provider, model, err := a.Selection(req)
	if err != nil {
		return nil, err
	}

	reply, err := a.completer(provider).Complete(ctx, model, BuildPrompt(req))
	if err != nil {
		return nil, adapter.Classify(a.Kind(), err)
	}
	if reply == "" {
		return nil, adapter.NewError(a.Kind(), adapter.KindUnavailable, errors.New("empty reply"))
	}

	contacts := ParseReply(reply, fmt.Sprintf("ai:%s/%s", provider, model))
	a.logger.Debug("ai reply parsed",
		zap.String("provider", string(provider)),
		zap.String("model", model),
		zap.Int("reply_bytes", len(reply)),
		zap.Int("contacts", len(contacts)),
	)
	return contacts, nil
}
