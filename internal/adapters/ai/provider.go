package ai

import (
	"context"
	"time"

	"stockagents/internal/metrics"
	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
)

// ProviderOptions configures any chat provider.
type ProviderOptions struct {
	APIKey  string
	BaseURL string // Override for OpenAI-compatible endpoints and tests
	Timeout time.Duration
	Limiter RateLimiter
	Usage   *UsageTracker
}

func (o ProviderOptions) withDefaults() ProviderOptions {
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout()
	}
	if o.Limiter == nil {
		o.Limiter = NewNoOpLimiter()
	}
	if o.Usage == nil {
		o.Usage = NewUsageTracker()
	}
	return o
}

// baseProvider carries the metadata, throttling and accounting shared by all providers.
type baseProvider struct {
	name    ProviderName
	models  []ModelInfo
	timeout time.Duration
	limiter RateLimiter
	usage   *UsageTracker
	log     *logger.Logger
}

func newBaseProvider(name ProviderName, models []ModelInfo, opts ProviderOptions) baseProvider {
	opts = opts.withDefaults()
	return baseProvider{
		name:    name,
		models:  models,
		timeout: opts.Timeout,
		limiter: opts.Limiter,
		usage:   opts.Usage,
		log:     logger.Get().With("component", "ai", "provider", name),
	}
}

// Name returns provider name.
func (p *baseProvider) Name() ProviderName { return p.name }

// GetModel returns model info by name.
func (p *baseProvider) GetModel(_ context.Context, model string) (ModelInfo, error) {
	if m, ok := findModel(p.models, model); ok {
		return m, nil
	}
	return ModelInfo{}, errors.Wrapf(errors.ErrNotFound, "%s model %s not found", p.name, model)
}

// ListModels lists known models.
func (p *baseProvider) ListModels(_ context.Context) ([]ModelInfo, error) {
	return p.models, nil
}

// begin waits for the rate limiter and bounds the call by the provider timeout.
func (p *baseProvider) begin(ctx context.Context, model string) (context.Context, context.CancelFunc, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		metrics.RecordLLMRateLimited(p.name.String(), model)
		return nil, nil, &RateLimitError{Provider: p.name, Limit: p.limiter.Limit(), Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	return callCtx, cancel, nil
}

// finish records usage and metrics for a completed round.
func (p *baseProvider) finish(model string, usage Usage, started time.Time, err error) {
	info, ok := findModel(p.models, model)
	if !ok {
		info = ModelInfo{Provider: p.name, Name: model}
	}

	var cost float64
	if err == nil {
		entry := p.usage.Record(info, int64(usage.PromptTokens), int64(usage.CompletionTokens))
		cost = calculateCost(info, int64(usage.PromptTokens), int64(usage.CompletionTokens)).InexactFloat64()
		p.log.Debugw("completion finished",
			"model", model,
			"duration", time.Since(started),
			"input_tokens", usage.PromptTokens,
			"output_tokens", usage.CompletionTokens,
			"session_cost_usd", entry.CostUSD.StringFixed(6),
		)
	}

	metrics.RecordLLMRequest(p.name.String(), model, usage.PromptTokens, usage.CompletionTokens, cost, err)
}

func defaultTimeout() time.Duration {
	return 60 * time.Second
}
