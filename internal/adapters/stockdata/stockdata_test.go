package stockdata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockagents/internal/adapters/config"
	"stockagents/pkg/errors"
)

func testOptions(url string) Options {
	return Options{BaseURL: url, APIKey: "test-key", Timeout: 2 * time.Second}
}

func jsonServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAlphaVantageQuote(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = io.WriteString(w, `{"Global Quote": {
			"01. symbol": "AAPL", "02. open": "189.0000", "03. high": "191.5000", "04. low": "188.2000",
			"05. price": "190.1200", "06. volume": "51234567", "07. latest trading day": "2024-05-17",
			"08. previous close": "189.8700", "09. change": "0.2500", "10. change percent": "0.1317%"}}`)
	})

	quote, err := NewAlphaVantage(testOptions(server.URL)).Quote(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "190.12", quote.Price.String())
	assert.Equal(t, "0.1317", quote.ChangePercent.String())
	assert.Equal(t, int64(51234567), quote.Volume)
	assert.Equal(t, 2024, quote.Timestamp.Year())
	assert.Equal(t, ProviderAlphaVantage, quote.Source)
}

func TestAlphaVantageSoftErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty quote", `{"Global Quote": {}}`, errors.ErrInvalidSymbol},
		{"error message", `{"Error Message": "Invalid API call."}`, errors.ErrInvalidSymbol},
		{"throttled", `{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`, errors.ErrRateLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := NewAlphaVantage(testOptions(server.URL)).Quote(context.Background(), "ZZZZ")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAlphaVantageProfile(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OVERVIEW", r.URL.Query().Get("function"))
		_, _ = io.WriteString(w, `{"Symbol": "MSFT", "Name": "Microsoft Corporation", "Exchange": "NASDAQ",
			"Currency": "USD", "Country": "USA", "Sector": "TECHNOLOGY", "Industry": "SERVICES-PREPACKAGED SOFTWARE",
			"MarketCapitalization": "3100000000000", "Description": "Microsoft develops software."}`)
	})

	profile, err := NewAlphaVantage(testOptions(server.URL)).Profile(context.Background(), "MSFT")
	require.NoError(t, err)

	assert.Equal(t, "Microsoft Corporation", profile.Name)
	assert.Equal(t, "Technology", profile.Sector)
	assert.Equal(t, "Services-prepackaged Software", profile.Industry)
	assert.Equal(t, "3100000000000", profile.MarketCap.String())
}

func TestFinnhubQuoteAndProfile(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Finnhub-Token"))
		switch r.URL.Path {
		case "/quote":
			_, _ = io.WriteString(w, `{"c": 875.28, "d": -12.1, "dp": -1.3636, "h": 890, "l": 870.5, "o": 885, "pc": 887.38, "t": 1715976000}`)
		case "/stock/profile2":
			_, _ = io.WriteString(w, `{"country": "US", "currency": "USD", "exchange": "NASDAQ NMS - GLOBAL MARKET",
				"finnhubIndustry": "Semiconductors", "name": "NVIDIA Corp", "ticker": "NVDA",
				"weburl": "https://www.nvidia.com/", "marketCapitalization": 2150000.5}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	provider := NewFinnhub(testOptions(server.URL))

	quote, err := provider.Quote(context.Background(), "nvda")
	require.NoError(t, err)
	assert.Equal(t, "NVDA", quote.Symbol)
	assert.Equal(t, "875.28", quote.Price.String())
	assert.Equal(t, "-12.1", quote.Change.String())

	profile, err := provider.Profile(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA Corp", profile.Name)
	assert.Equal(t, "2150000500000", profile.MarketCap.String())
}

func TestFinnhubUnknownSymbol(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"c": 0, "d": null, "dp": null, "h": 0, "l": 0, "o": 0, "pc": 0, "t": 0}`)
	})

	_, err := NewFinnhub(testOptions(server.URL)).Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, errors.ErrInvalidSymbol)
}

func TestYahooQuote(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/TSLA", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		_, _ = io.WriteString(w, `{"chart": {"result": [{"meta": {"currency": "USD", "symbol": "TSLA",
			"fullExchangeName": "NasdaqGS", "regularMarketPrice": 180, "chartPreviousClose": 200,
			"regularMarketVolume": 1000, "regularMarketTime": 1715976000, "longName": "Tesla, Inc."}}], "error": null}}`)
	})
	provider := NewYahoo(testOptions(server.URL))

	quote, err := provider.Quote(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "-20", quote.Change.String())
	assert.Equal(t, "-10", quote.ChangePercent.String())

	profile, err := provider.Profile(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "Tesla, Inc.", profile.Name)
	assert.Equal(t, "NasdaqGS", profile.Exchange)
}

func TestYahooNotFound(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`)
	})

	_, err := NewYahoo(testOptions(server.URL)).Quote(context.Background(), "GONE")
	assert.ErrorIs(t, err, errors.ErrInvalidSymbol)
}

func TestClientMakesOneRequestPerCall(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, errors.ErrRateLimitExceeded},
		{"server error", http.StatusServiceUnavailable, errors.ErrExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			})

			_, err := NewFinnhub(testOptions(server.URL)).Quote(context.Background(), "AAPL")

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestClientTimeout(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewFinnhub(testOptions(server.URL)).Quote(ctx, "AAPL")
	assert.ErrorIs(t, err, errors.ErrTimeout)
}

func TestNewProviderSelection(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StockDataConfig
		want string
	}{
		{"alpha vantage preferred", config.StockDataConfig{AlphaVantageKey: "a", FinnhubKey: "f"}, ProviderAlphaVantage},
		{"finnhub alternate", config.StockDataConfig{FinnhubKey: "f"}, ProviderFinnhub},
		{"yahoo fallback", config.StockDataConfig{}, ProviderYahoo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewProvider(tt.cfg).Name())
		})
	}
}
