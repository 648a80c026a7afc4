package tools

import (
	"context"
	"regexp"
	"time"

	"stockagents/internal/adapters/stockdata"
	"stockagents/internal/tools/middleware"
	"stockagents/pkg/errors"
)

// symbolPattern accepts tickers like AAPL, BRK.B, RDS-A and index symbols like ^GSPC.
var symbolPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=]{0,9}$`)

// ValidateSymbol normalizes symbol and rejects values no exchange would list.
func ValidateSymbol(symbol string) (string, error) {
	normalized := stockdata.NormalizeSymbol(symbol)
	if normalized == "" {
		return "", errors.Wrap(errors.ErrInvalidSymbol, "symbol is required")
	}
	if !symbolPattern.MatchString(normalized) {
		return "", errors.Wrapf(errors.ErrInvalidSymbol, "%q is not a valid ticker", symbol)
	}
	return normalized, nil
}

// StockToolOptions configures the middleware around each stock tool.
type StockToolOptions struct {
	Timeout  time.Duration
	Retries  int
	Backoff  time.Duration
	Cache    middleware.Cache
	CacheTTL time.Duration
}

// NewStockTools binds the price and company tools to provider.
func NewStockTools(provider stockdata.Provider, opts StockToolOptions) []Tool {
	out := make([]Tool, 0, len(toolDefinitions))
	for _, def := range toolDefinitions {
		var fn HandlerFunc
		switch def.Name {
		case ToolGetStockPrice:
			fn = priceHandler(provider)
		case ToolGetCompanyInfo:
			fn = companyHandler(provider)
		default:
			continue
		}

		factory := NewFactory(def.Name, def.Description, validated(fn)).
			WithTimeout(opts.Timeout).
			WithCache(opts.Cache, opts.CacheTTL).
			WithMetrics()
		if opts.Retries > 0 {
			factory = factory.WithRetry(opts.Retries+1, opts.Backoff)
		}
		out = append(out, factory.Build())
	}
	return out
}

// NewStockRegistry builds the shared registry of stock tools.
func NewStockRegistry(provider stockdata.Provider, opts StockToolOptions) (*Registry, error) {
	return NewRegistry(NewStockTools(provider, opts)...)
}

// validated rejects malformed symbols before fn reaches the provider.
func validated(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, symbol string) (string, error) {
		normalized, err := ValidateSymbol(symbol)
		if err != nil {
			return "", err
		}
		return fn(ctx, normalized)
	}
}

func priceHandler(provider stockdata.Provider) HandlerFunc {
	return func(ctx context.Context, symbol string) (string, error) {
		quote, err := provider.Quote(ctx, symbol)
		if err != nil {
			return "", errors.Wrapf(err, "get price for %s", symbol)
		}
		return FormatQuote(quote), nil
	}
}

func companyHandler(provider stockdata.Provider) HandlerFunc {
	return func(ctx context.Context, symbol string) (string, error) {
		profile, err := provider.Profile(ctx, symbol)
		if err != nil {
			return "", errors.Wrapf(err, "get company info for %s", symbol)
		}
		return FormatProfile(profile), nil
	}
}
