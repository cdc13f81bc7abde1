package airesearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/octobees/contact-finder/internal/adapter"
)

// Provider names an LLM backend.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGemini     Provider = "gemini"
)

// Providers lists the backends in selection order.
var Providers = []Provider{ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic, ProviderGemini}

const (
	openRouterURL = "https://openrouter.ai/api/v1"

	temperature = 0.1
	maxTokens   = 4000
)

var defaultModels = map[Provider]string{
	ProviderOpenRouter: "perplexity/sonar",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-3-5-haiku-latest",
	ProviderGemini:     "gemini-2.5-flash",
}

// ParseProvider accepts provider names case-insensitively; "perplexity"
// is an alias for OpenRouter.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "openrouter", "perplexity":
		return ProviderOpenRouter, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "gemini", "google":
		return ProviderGemini, nil
	}
	return "", fmt.Errorf("unknown ai provider %q", s)
}

// DefaultModel returns the model used when none is requested.
func DefaultModel(p Provider) string { return defaultModels[p] }

// Completer sends a single-turn prompt and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

type openAICompleter struct {
	client *openai.Client
	name   Provider
}

func newOpenAICompleter(name Provider, apiKey, baseURL string, httpClient *http.Client) *openAICompleter {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	return &openAICompleter{client: openai.NewClientWithConfig(config), name: name}
}

func (c *openAICompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", c.name, openAIStatus(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.name)
	}
	return resp.Choices[0].Message.Content, nil
}

// openAIStatus exposes the HTTP status of go-openai errors so Classify can
// map it.
func openAIStatus(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w: %w", &adapter.StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w: %w", &adapter.StatusError{StatusCode: reqErr.HTTPStatusCode}, err)
	}
	return err
}

type anthropicCompleter struct {
	client *anthropic.Client
}

func newAnthropicCompleter(apiKey, baseURL string, httpClient *http.Client) *anthropicCompleter {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, anthropic.WithHTTPClient(httpClient))
	}
	return &anthropicCompleter{client: anthropic.NewClient(apiKey, opts...)}
}

func (c *anthropicCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	temp := float32(temperature)
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(model),
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
		MaxTokens:   maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	return resp.GetFirstContentText(), nil
}

type geminiCompleter struct {
	config *genai.ClientConfig
}

func newGeminiCompleter(apiKey, baseURL string, httpClient *http.Client) *geminiCompleter {
	config := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		config.HTTPOptions.BaseURL = baseURL
	}
	return &geminiCompleter{config: config}
}

func (c *geminiCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, c.config)
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}

	temp := float32(temperature)
	result, err := client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		&genai.GenerateContentConfig{
			Temperature:     &temp,
			MaxOutputTokens: maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if result == nil {
		return "", errors.New("gemini returned nil result")
	}
	return result.Text(), nil
}
