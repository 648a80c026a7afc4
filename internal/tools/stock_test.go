package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockagents/internal/adapters/stockdata"
	"stockagents/internal/tools/middleware"
	"stockagents/pkg/errors"
)

type fakeProvider struct {
	calls    int32
	quoteErr error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Quote(ctx context.Context, symbol string) (*stockdata.Quote, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &stockdata.Quote{
		Symbol:        symbol,
		Price:         decimal.RequireFromString("1234.5"),
		Change:        decimal.RequireFromString("12.3"),
		ChangePercent: decimal.RequireFromString("1.0071"),
		High:          decimal.RequireFromString("1240"),
		Volume:        51234567,
		Currency:      "USD",
		Timestamp:     time.Date(2024, 5, 17, 20, 0, 0, 0, time.UTC),
		Source:        "fake",
	}, nil
}

func (f *fakeProvider) Profile(ctx context.Context, symbol string) (*stockdata.Profile, error) {
	atomic.AddInt32(&f.calls, 1)
	return &stockdata.Profile{
		Symbol:    symbol,
		Name:      "Apple Inc.",
		Exchange:  "NASDAQ",
		Sector:    "Technology",
		MarketCap: decimal.RequireFromString("3100000000000"),
		Employees: 161000,
		Source:    "fake",
	}, nil
}

func stockRegistry(t *testing.T, provider stockdata.Provider, opts StockToolOptions) *Registry {
	t.Helper()
	registry, err := NewStockRegistry(provider, opts)
	require.NoError(t, err)
	return registry
}

func TestValidateSymbol(t *testing.T) {
	valid := map[string]string{"aapl": "AAPL", " BRK.B ": "BRK.B", "^GSPC": "^GSPC", "RDS-A": "RDS-A"}
	for in, want := range valid {
		got, err := ValidateSymbol(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "   ", "INVALID_SYMBOL_12345", "TOOLONGSYMBOL", "$AAPL", "AA PL"} {
		_, err := ValidateSymbol(in)
		assert.ErrorIs(t, err, errors.ErrInvalidSymbol, in)
	}
}

func TestStockPriceTool(t *testing.T) {
	provider := &fakeProvider{}
	registry := stockRegistry(t, provider, StockToolOptions{})

	tool, ok := registry.Get(ToolGetStockPrice)
	require.True(t, ok)

	out, err := tool.Invoke(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL: $1,234.50 USD")
	assert.Contains(t, out, "Change: +12.30 (+1.01%)")
	assert.Contains(t, out, "High: $1,240.00")
	assert.Contains(t, out, "Volume: 51,234,567")
	assert.Contains(t, out, "(source: fake)")
}

func TestCompanyInfoTool(t *testing.T) {
	registry := stockRegistry(t, &fakeProvider{}, StockToolOptions{})

	tool, _ := registry.Get(ToolGetCompanyInfo)
	out, err := tool.Invoke(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Contains(t, out, "Apple Inc. (AAPL)")
	assert.Contains(t, out, "Market cap: $3.10T USD")
	assert.Contains(t, out, "Employees: 161,000")
}

func TestStockToolRejectsInvalidSymbolBeforeProviderCall(t *testing.T) {
	provider := &fakeProvider{}
	registry := stockRegistry(t, provider, StockToolOptions{Retries: 2})

	tool, _ := registry.Get(ToolGetStockPrice)
	_, err := tool.Invoke(context.Background(), "INVALID_SYMBOL_12345")

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidSymbol)
	assert.Equal(t, int32(0), atomic.LoadInt32(&provider.calls))
}

func TestStockToolWrapsProviderErrors(t *testing.T) {
	provider := &fakeProvider{quoteErr: errors.Wrap(errors.ErrRateLimitExceeded, "alphavantage")}
	registry := stockRegistry(t, provider, StockToolOptions{Retries: 1, Backoff: time.Millisecond})

	tool, _ := registry.Get(ToolGetStockPrice)
	_, err := tool.Invoke(context.Background(), "AAPL")

	assert.ErrorIs(t, err, errors.ErrRateLimitExceeded)
	assert.Contains(t, err.Error(), "get price for AAPL")
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestStockToolProviderHitsPerInvoke(t *testing.T) {
	tests := []struct {
		name  string
		write func(w http.ResponseWriter)
		want  error
		hits  int32
	}{
		{
			name:  "server error is retried",
			write: func(w http.ResponseWriter) { w.WriteHeader(http.StatusServiceUnavailable) },
			want:  errors.ErrExternal,
			hits:  3,
		},
		{
			name:  "rate limit status is final",
			write: func(w http.ResponseWriter) { w.WriteHeader(http.StatusTooManyRequests) },
			want:  errors.ErrRateLimitExceeded,
			hits:  1,
		},
		{
			name: "rate limit note is final",
			write: func(w http.ResponseWriter) {
				_, _ = io.WriteString(w, `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`)
			},
			want: errors.ErrRateLimitExceeded,
			hits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.Header().Set("Content-Type", "application/json")
				tt.write(w)
			}))
			defer server.Close()

			provider := stockdata.NewAlphaVantage(stockdata.Options{
				BaseURL: server.URL,
				APIKey:  "test-key",
				Timeout: 2 * time.Second,
			})
			registry := stockRegistry(t, provider, StockToolOptions{Retries: 2, Backoff: time.Millisecond})

			tool, _ := registry.Get(ToolGetStockPrice)
			_, err := tool.Invoke(context.Background(), "AAPL")

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.hits, atomic.LoadInt32(&hits))
		})
	}
}

func TestStockToolUsesCache(t *testing.T) {
	provider := &fakeProvider{}
	registry := stockRegistry(t, provider, StockToolOptions{Cache: middleware.NewMemoryCache(), CacheTTL: time.Minute})

	tool, _ := registry.Get(ToolGetStockPrice)
	first, err := tool.Invoke(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := tool.Invoke(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestMarketCap(t *testing.T) {
	assert.Equal(t, "$2.15T USD", MarketCap(decimal.RequireFromString("2150000500000"), ""))
	assert.Equal(t, "$45.60B EUR", MarketCap(decimal.RequireFromString("45600000000"), "EUR"))
	assert.Equal(t, "$950,000 USD", MarketCap(decimal.NewFromInt(950000), "USD"))
}
