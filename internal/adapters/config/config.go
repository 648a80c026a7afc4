package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"stockagents/pkg/errors"
)

type Config struct {
	App           AppConfig
	AI            AIConfig
	StockData     StockDataConfig
	Agents        AgentsConfig
	Redis         RedisConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"stockagents"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type AIConfig struct {
	Provider    string        `envconfig:"LLM_PROVIDER" default:"openai"`
	OpenAIKey   string        `envconfig:"OPENAI_API_KEY"`
	Model       string        `envconfig:"OPENAI_MODEL" default:"gpt-4"`
	ClaudeKey   string        `envconfig:"ANTHROPIC_API_KEY"`
	GeminiKey   string        `envconfig:"GEMINI_API_KEY"`
	DeepSeekKey string        `envconfig:"DEEPSEEK_API_KEY"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`

	// RequestsPerMinute of 0 falls back to the provider's default limit.
	RequestsPerMinute float64 `envconfig:"LLM_REQUESTS_PER_MINUTE" default:"0"`
}

// APIKey returns the credential for the selected provider.
func (c AIConfig) APIKey() string {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case "anthropic", "claude":
		return c.ClaudeKey
	case "gemini", "google":
		return c.GeminiKey
	case "deepseek":
		return c.DeepSeekKey
	default:
		return c.OpenAIKey
	}
}

// CredentialEnv names the environment variable holding the selected provider's key.
func (c AIConfig) CredentialEnv() string {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	case "gemini", "google":
		return "GEMINI_API_KEY"
	case "deepseek":
		return "DEEPSEEK_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

type StockDataConfig struct {
	AlphaVantageKey string        `envconfig:"ALPHA_VANTAGE_API_KEY"`
	FinnhubKey      string        `envconfig:"FINNHUB_API_KEY"`
	Timeout         time.Duration `envconfig:"STOCK_DATA_TIMEOUT" default:"15s"`
	CacheTTL        time.Duration `envconfig:"STOCK_DATA_CACHE_TTL" default:"1m"`
	Retries         int           `envconfig:"STOCK_DATA_RETRIES" default:"2"`
}

// StockAPIKey returns the preferred stock data credential, Alpha Vantage first.
func (c StockDataConfig) StockAPIKey() string {
	if c.AlphaVantageKey != "" {
		return c.AlphaVantageKey
	}
	return c.FinnhubKey
}

type AgentsConfig struct {
	OrchestratorTemperature float64       `envconfig:"ORCHESTRATOR_AGENT_TEMPERATURE" default:"0.3"`
	JuniorTemperature       float64       `envconfig:"JUNIOR_AGENT_TEMPERATURE" default:"0.5"`
	MasterTemperature       float64       `envconfig:"MASTER_AGENT_TEMPERATURE" default:"0.7"`
	MaxIterations           int           `envconfig:"MAX_ITERATIONS" default:"10"`
	Verbose                 bool          `envconfig:"VERBOSE" default:"true"`
	Classifier              string        `envconfig:"CLASSIFIER" default:"keyword"`
	Timeout                 time.Duration `envconfig:"AGENT_TIMEOUT" default:"2m"`
	ToolTimeout             time.Duration `envconfig:"TOOL_TIMEOUT" default:"15s"`
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ErrorTrackingConfig struct {
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
}

// Enabled reports whether errors are shipped to Sentry.
func (c ErrorTrackingConfig) Enabled() bool {
	return c.SentryDSN != ""
}

type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint; empty disables it.
	Addr string `envconfig:"METRICS_ADDR"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}

// Validate checks the settings the agent system cannot run without.
func (c *Config) Validate() error {
	var merr errors.MultiError

	switch strings.ToLower(strings.TrimSpace(c.AI.Provider)) {
	case "openai", "anthropic", "claude", "gemini", "google", "deepseek":
	default:
		merr.Add(errors.NewValidationError("LLM_PROVIDER", "unsupported provider", c.AI.Provider))
	}

	if c.AI.APIKey() == "" {
		merr.Add(errors.Wrapf(errors.ErrMissingCredential, "%s is required", c.AI.CredentialEnv()))
	}

	if c.Agents.MaxIterations <= 0 {
		merr.Add(errors.NewValidationError("MAX_ITERATIONS", "must be positive", c.Agents.MaxIterations))
	}

	for field, temp := range map[string]float64{
		"ORCHESTRATOR_AGENT_TEMPERATURE": c.Agents.OrchestratorTemperature,
		"JUNIOR_AGENT_TEMPERATURE":       c.Agents.JuniorTemperature,
		"MASTER_AGENT_TEMPERATURE":       c.Agents.MasterTemperature,
	} {
		if temp < 0 || temp > 2 {
			merr.Add(errors.NewValidationError(field, "must be between 0 and 2", temp))
		}
	}

	switch c.Agents.Classifier {
	case "keyword", "llm":
	default:
		merr.Add(errors.NewValidationError("CLASSIFIER", "must be keyword or llm", c.Agents.Classifier))
	}

	return merr.ToError()
}

// Warnings lists degraded-capability conditions that do not block startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.StockData.StockAPIKey() == "" {
		warnings = append(warnings,
			"no stock data API key configured (ALPHA_VANTAGE_API_KEY or FINNHUB_API_KEY), falling back to Yahoo Finance")
	}
	return warnings
}
