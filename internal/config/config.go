package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the BrandLens server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Providers ProvidersConfig
	Analyzer  AnalyzerConfig
	Collector CollectorConfig
	Metrics   MetricsConfig
	Cache     CacheConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// ProvidersConfig holds per-provider credentials. A provider is available
// only when its API key is non-blank; unavailable providers are skipped.
type ProvidersConfig struct {
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig
	Perplexity PerplexityConfig
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type PerplexityConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnalyzerConfig configures the AI mention classifier. The classifier shares
// the OpenAI credential unless overridden.
type AnalyzerConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type CollectorConfig struct {
	GlobalBudget  time.Duration
	CallTimeout   time.Duration
	CallAttempts  int
	ThrottleDelay time.Duration
}

type MetricsConfig struct {
	WindowDays    int
	RatePerMinute int
}

type CacheConfig struct {
	ResponseTTL   time.Duration
	SweepInterval time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("BRANDLENS_PORT", 8080),
			Env:  envString("BRANDLENS_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
			Gemini: GeminiConfig{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  envString("GEMINI_MODEL", "gemini-2.0-flash"),
			},
			Perplexity: PerplexityConfig{
				APIKey:  os.Getenv("PERPLEXITY_API_KEY"),
				Model:   envString("PERPLEXITY_MODEL", "sonar"),
				BaseURL: envString("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
			},
		},
		Analyzer: AnalyzerConfig{
			APIKey:  envString("ANALYZER_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:   envString("ANALYZER_MODEL", "gpt-4o-mini"),
			Timeout: envDurationSecs("ANALYZER_TIMEOUT_SECS", 30*time.Second),
		},
		Collector: CollectorConfig{
			GlobalBudget:  envDurationSecs("COLLECTOR_BUDGET_SECS", 120*time.Second),
			CallTimeout:   envDurationSecs("COLLECTOR_CALL_TIMEOUT_SECS", 35*time.Second),
			CallAttempts:  envInt("COLLECTOR_CALL_ATTEMPTS", 2),
			ThrottleDelay: envDuration("COLLECTOR_THROTTLE_DELAY", time.Second),
		},
		Metrics: MetricsConfig{
			WindowDays:    envInt("METRICS_WINDOW_DAYS", 30),
			RatePerMinute: envInt("METRICS_RATE_PER_MINUTE", 10),
		},
		Cache: CacheConfig{
			ResponseTTL:   envDuration("CACHE_RESPONSE_TTL", 7*24*time.Hour),
			SweepInterval: envDuration("CACHE_SWEEP_INTERVAL", time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Metrics.WindowDays <= 0 {
		return fmt.Errorf("METRICS_WINDOW_DAYS must be positive, got %d", c.Metrics.WindowDays)
	}

	if c.Collector.CallAttempts <= 0 {
		return fmt.Errorf("COLLECTOR_CALL_ATTEMPTS must be positive, got %d", c.Collector.CallAttempts)
	}

	return nil
}

// ConfiguredProviders returns the names of providers with non-blank credentials.
func (c *Config) ConfiguredProviders() []string {
	var names []string
	if c.Providers.OpenAI.APIKey != "" {
		names = append(names, "openai")
	}
	if c.Providers.Anthropic.APIKey != "" {
		names = append(names, "anthropic")
	}
	if c.Providers.Gemini.APIKey != "" {
		names = append(names, "gemini")
	}
	if c.Providers.Perplexity.APIKey != "" {
		names = append(names, "perplexity")
	}
	return names
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
