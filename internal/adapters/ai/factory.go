package ai

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"stockagents/internal/adapters/config"
	"stockagents/pkg/errors"
)

// NewChatProvider builds the provider selected by LLM_PROVIDER.
// redisClient is optional: when set, rate limits are shared between processes through Redis.
func NewChatProvider(ctx context.Context, cfg config.AIConfig, redisClient *redis.Client, usage *UsageTracker) (ChatProvider, error) {
	name := ParseProviderName(cfg.Provider)
	if !name.IsValid() {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported LLM provider %q", cfg.Provider)
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrMissingCredential, "%s is required", cfg.CredentialEnv())
	}

	limitCfg := DefaultRateLimits()[name]
	if cfg.RequestsPerMinute > 0 {
		limitCfg = RateLimitConfig{Enabled: true, ReqPerMinute: cfg.RequestsPerMinute}
	}

	opts := ProviderOptions{
		APIKey:  apiKey,
		Timeout: cfg.Timeout,
		Limiter: NewRateLimiterFactory(redisClient).Create(name, limitCfg),
		Usage:   usage,
	}

	switch name {
	case ProviderNameAnthropic:
		return NewClaudeProvider(opts), nil
	case ProviderNameGoogle:
		provider, err := NewGeminiProvider(ctx, opts)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case ProviderNameDeepSeek:
		return NewDeepSeekProvider(opts), nil
	default:
		return NewOpenAIProvider(opts), nil
	}
}

// ModelFor returns the model to request from the configured provider.
// OPENAI_MODEL only applies to OpenAI; other providers get their default
// unless the configured name already belongs to them.
func ModelFor(cfg config.AIConfig) string {
	name := ParseProviderName(cfg.Provider)
	model := strings.TrimSpace(cfg.Model)

	if name == ProviderNameOpenAI {
		if model == "" {
			return ModelGPT4
		}
		return model
	}

	if model == "" || strings.HasPrefix(strings.ToLower(model), "gpt-") {
		return DefaultModel(name)
	}
	return model
}
