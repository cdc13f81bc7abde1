package airesearch_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/adapter/airesearch"
	"github.com/octobees/contact-finder/internal/entity"
)

var acme = entity.ResearchRequest{CompanyName: "Acme GmbH", Website: "acme.de", Country: "Germany"}

func TestSelection(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg      airesearch.Config
		req      entity.ResearchRequest
		provider airesearch.Provider
		model    string
		kind     adapter.ErrorKind
	}{
		"no keys": {
			cfg:  airesearch.Config{},
			kind: adapter.KindMissingAPIKey,
		},
		"first provider with a key": {
			cfg:      airesearch.Config{Keys: airesearch.Keys{Anthropic: "a", Gemini: "g"}},
			provider: airesearch.ProviderAnthropic,
			model:    airesearch.DefaultModel(airesearch.ProviderAnthropic),
		},
		"configured provider and model": {
			cfg:      airesearch.Config{Keys: airesearch.Keys{OpenAI: "o", OpenRouter: "r"}, Provider: "openai", Model: "gpt-4o"},
			provider: airesearch.ProviderOpenAI,
			model:    "gpt-4o",
		},
		"request overrides provider": {
			cfg:      airesearch.Config{Keys: airesearch.Keys{OpenAI: "o", Gemini: "g"}, Provider: "openai", Model: "gpt-4o"},
			req:      entity.ResearchRequest{AIProvider: "gemini"},
			provider: airesearch.ProviderGemini,
			model:    airesearch.DefaultModel(airesearch.ProviderGemini),
		},
		"requested provider without key": {
			cfg:  airesearch.Config{Keys: airesearch.Keys{OpenAI: "o"}},
			req:  entity.ResearchRequest{AIProvider: "claude"},
			kind: adapter.KindMissingAPIKey,
		},
		"unknown provider": {
			cfg:  airesearch.Config{Keys: airesearch.Keys{OpenAI: "o"}},
			req:  entity.ResearchRequest{AIProvider: "llama"},
			kind: adapter.KindUnavailable,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			provider, model, err := airesearch.New(tc.cfg).Selection(tc.req)
			if tc.kind != "" {
				require.Error(t, err)
				assert.Equal(t, tc.kind, adapter.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.provider, provider)
			assert.Equal(t, tc.model, model)
		})
	}
}

func TestDiscoverOpenAICompatible(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer router-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "perplexity/sonar", body.Model)
		if assert.Len(t, body.Messages, 1) {
			assert.Contains(t, body.Messages[0].Content, "Acme GmbH")
		}

		content, _ := json.Marshal(reply)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"1","object":"chat.completion","model":"perplexity/sonar","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`, content)
	}))
	t.Cleanup(srv.Close)

	a := airesearch.New(airesearch.Config{
		Keys:     airesearch.Keys{OpenRouter: "router-key"},
		BaseURLs: map[airesearch.Provider]string{airesearch.ProviderOpenRouter: srv.URL + "/v1"},
	})
	got, err := a.Discover(context.Background(), acme)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Equal(t, "max.mustermann@acme.de", got[0].Value)
}

func TestDiscoverAnthropic(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "claude-key", r.Header.Get("x-api-key"))

		content, _ := json.Marshal(reply)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[{"type":"text","text":%s}],"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":10}}`, content)
	}))
	t.Cleanup(srv.Close)

	a := airesearch.New(airesearch.Config{
		Keys:     airesearch.Keys{Anthropic: "claude-key"},
		BaseURLs: map[airesearch.Provider]string{airesearch.ProviderAnthropic: srv.URL},
	})
	got, err := a.Discover(context.Background(), acme)
	require.NoError(t, err)

	values := make([]string, 0, len(got))
	for _, c := range got {
		values = append(values, c.Value)
	}
	assert.Contains(t, values, "info@acme.de")
}

func TestDiscoverClassifiesRateLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit_error"}}`)
	}))
	t.Cleanup(srv.Close)

	a := airesearch.New(airesearch.Config{
		Keys:     airesearch.Keys{OpenAI: "k"},
		BaseURLs: map[airesearch.Provider]string{airesearch.ProviderOpenAI: srv.URL + "/v1"},
	})
	_, err := a.Discover(context.Background(), acme)
	require.Error(t, err)
	assert.Equal(t, adapter.KindRateLimited, adapter.KindOf(err))
}
