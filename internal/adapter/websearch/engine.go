package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/octobees/contact-finder/internal/adapter"
)

const (
	DefaultTavilyURL     = "https://api.tavily.com"
	DefaultBingURL       = "https://api.bing.microsoft.com/v7.0/search"
	DefaultDuckDuckGoURL = "https://api.duckduckgo.com/"

	maxErrorBody = 512
)

// Result is a single hit returned by a search engine.
type Result struct {
	Title   string
	URL     string
	Content string
}

// Engine runs one query against a search backend.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// TavilyEngine queries the Tavily search API.
type TavilyEngine struct {
	apiKey  string
	baseURL string
	depth   string
	client  *http.Client
}

func NewTavilyEngine(client *http.Client, apiKey, baseURL string, advanced bool) *TavilyEngine {
	if baseURL == "" {
		baseURL = DefaultTavilyURL
	}
	depth := "basic"
	if advanced {
		depth = "advanced"
	}
	return &TavilyEngine{apiKey: apiKey, baseURL: baseURL, depth: depth, client: client}
}

func (e *TavilyEngine) Name() string { return "tavily" }

func (e *TavilyEngine) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	requestBody := map[string]any{
		"api_key":         e.apiKey,
		"query":           query,
		"search_depth":    e.depth,
		"exclude_domains": []string{"facebook.com", "twitter.com", "instagram.com"},
		"max_results":     limit,
		"include_answer":  false,
	}
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/search", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var apiResponse struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := doJSON(e.client, req, &apiResponse); err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}

	results := make([]Result, 0, len(apiResponse.Results))
	for _, r := range apiResponse.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return results, nil
}

// BingEngine queries the Bing Web Search v7 API.
type BingEngine struct {
	apiKey   string
	endpoint string
	market   string
	client   *http.Client
}

func NewBingEngine(client *http.Client, apiKey, endpoint, market string) *BingEngine {
	if endpoint == "" {
		endpoint = DefaultBingURL
	}
	if market == "" {
		market = "en-US"
	}
	return &BingEngine{apiKey: apiKey, endpoint: endpoint, market: market, client: client}
}

func (e *BingEngine) Name() string { return "bing" }

func (e *BingEngine) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(limit))
	params.Set("offset", "0")
	params.Set("mkt", e.market)
	params.Set("safesearch", "Moderate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)

	var apiResponse struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := doJSON(e.client, req, &apiResponse); err != nil {
		return nil, fmt.Errorf("bing: %w", err)
	}

	results := make([]Result, 0, len(apiResponse.WebPages.Value))
	for _, r := range apiResponse.WebPages.Value {
		results = append(results, Result{Title: r.Name, URL: r.URL, Content: r.Snippet})
	}
	return results, nil
}

// DuckDuckGoEngine uses the keyless instant-answer API. It only returns
// abstract and related-topic text, so it is a weak fallback.
type DuckDuckGoEngine struct {
	endpoint string
	client   *http.Client
}

func NewDuckDuckGoEngine(client *http.Client, endpoint string) *DuckDuckGoEngine {
	if endpoint == "" {
		endpoint = DefaultDuckDuckGoURL
	}
	return &DuckDuckGoEngine{endpoint: endpoint, client: client}
}

func (e *DuckDuckGoEngine) Name() string { return "duckduckgo" }

type ddgTopic struct {
	FirstURL string     `json:"FirstURL"`
	Text     string     `json:"Text"`
	Topics   []ddgTopic `json:"Topics"`
}

func (e *DuckDuckGoEngine) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var apiResponse struct {
		Heading       string     `json:"Heading"`
		AbstractText  string     `json:"AbstractText"`
		AbstractURL   string     `json:"AbstractURL"`
		RelatedTopics []ddgTopic `json:"RelatedTopics"`
	}
	if err := doJSON(e.client, req, &apiResponse); err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}

	var results []Result
	if apiResponse.AbstractText != "" {
		results = append(results, Result{Title: apiResponse.Heading, URL: apiResponse.AbstractURL, Content: apiResponse.AbstractText})
	}
	var walk func(topics []ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, t := range topics {
			if len(results) >= limit {
				return
			}
			if t.FirstURL != "" {
				results = append(results, Result{Title: truncate(t.Text, 100), URL: t.FirstURL, Content: t.Text})
			}
			walk(t.Topics)
		}
	}
	walk(apiResponse.RelatedTopics)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &adapter.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
