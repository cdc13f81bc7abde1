package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// APIKeys holds the credentials of the optional paid services.
type APIKeys struct {
	OpenRouter string
	OpenAI     string
	Anthropic  string
	Gemini     string
	Tavily     string
	Bing       string
}

// ResearchConfig tunes adapter behaviour.
type ResearchConfig struct {
	AdapterTimeout     time.Duration
	PageTimeout        time.Duration
	Retries            int
	RetryBaseDelay     time.Duration
	MaxParallel        int
	ScraperRPS         float64
	RespectRobots      bool
	FreeSearchFallback bool
	VerifyMX           bool
	DefaultPhoneRegion string
	AIProvider         string
	AIModel            string
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL          string
	JWTSecret            string
	Port                 string
	LogLevel             string
	OperatorEmail        string
	OperatorPasswordHash string
	RateLimitResearch    RateLimitConfig
	TokenTTL             time.Duration
	Keys                 APIKeys
	Research             ResearchConfig
}

// AuthEnabled reports whether an operator account guards the research API.
func (c *Config) AuthEnabled() bool {
	return c.OperatorEmail != "" && c.OperatorPasswordHash != ""
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            getEnv("JWT_SECRET", "dev-secret"),
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		OperatorEmail:        strings.ToLower(strings.TrimSpace(os.Getenv("OPERATOR_EMAIL"))),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
		TokenTTL:             parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		Keys: APIKeys{
			OpenRouter: os.Getenv("OPENROUTER_API_KEY"),
			OpenAI:     os.Getenv("OPENAI_API_KEY"),
			Anthropic:  os.Getenv("ANTHROPIC_API_KEY"),
			Gemini:     os.Getenv("GEMINI_API_KEY"),
			Tavily:     os.Getenv("TAVILY_API_KEY"),
			Bing:       os.Getenv("BING_API_KEY"),
		},
		Research: ResearchConfig{
			AdapterTimeout:     parseDuration(getEnv("ADAPTER_TIMEOUT", "2m"), 2*time.Minute),
			PageTimeout:        parseDuration(getEnv("PAGE_TIMEOUT", "15s"), 15*time.Second),
			RetryBaseDelay:     parseDuration(getEnv("RETRY_BASE_DELAY", "1s"), time.Second),
			RespectRobots:      parseBool(getEnv("RESPECT_ROBOTS", "true"), true),
			FreeSearchFallback: parseBool(getEnv("FREE_SEARCH_FALLBACK", "true"), true),
			VerifyMX:           parseBool(getEnv("VERIFY_MX", "false"), false),
			DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "DE")),
			AIProvider:         strings.ToLower(os.Getenv("AI_PROVIDER")),
			AIModel:            os.Getenv("AI_MODEL"),
		},
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_RESEARCH", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RESEARCH value: %w", err)
	}
	cfg.RateLimitResearch = rl

	if cfg.Research.Retries, err = parseNonNegativeInt("ADAPTER_RETRIES", getEnv("ADAPTER_RETRIES", "2")); err != nil {
		return nil, err
	}
	if cfg.Research.MaxParallel, err = parseNonNegativeInt("MAX_PARALLEL_ADAPTERS", getEnv("MAX_PARALLEL_ADAPTERS", "4")); err != nil {
		return nil, err
	}
	if cfg.Research.MaxParallel == 0 {
		cfg.Research.MaxParallel = 1
	}

	rps, err := strconv.ParseFloat(getEnv("SCRAPER_RPS", "0.75"), 64)
	if err != nil || rps <= 0 {
		return nil, fmt.Errorf("invalid SCRAPER_RPS value: %q", os.Getenv("SCRAPER_RPS"))
	}
	cfg.Research.ScraperRPS = rps

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func parseNonNegativeInt(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s value: %q", key, value)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseBool(input string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return fallback
	}
	return b
}
