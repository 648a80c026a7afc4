// Package stockdata fetches quotes and company profiles from public market data APIs.
package stockdata

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockagents/internal/adapters/config"
	"stockagents/pkg/logger"
)

// Provider returns market data for a ticker symbol.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (*Quote, error)
	Profile(ctx context.Context, symbol string) (*Profile, error)
}

// Quote is the latest trading snapshot of a symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Volume        int64           `json:"volume"`
	Currency      string          `json:"currency,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
}

// Profile describes the company behind a symbol.
type Profile struct {
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	Exchange    string          `json:"exchange,omitempty"`
	Sector      string          `json:"sector,omitempty"`
	Industry    string          `json:"industry,omitempty"`
	Country     string          `json:"country,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	Website     string          `json:"website,omitempty"`
	Description string          `json:"description,omitempty"`
	MarketCap   decimal.Decimal `json:"market_cap"` // in Currency units, zero when unknown
	Employees   int64           `json:"employees,omitempty"`
	Source      string          `json:"source"`
}

// Provider names
const (
	ProviderAlphaVantage = "alphavantage"
	ProviderFinnhub      = "finnhub"
	ProviderYahoo        = "yahoo"
)

// NewProvider picks the data source once: Alpha Vantage when its key is set,
// Finnhub as the alternate, and the keyless Yahoo Finance endpoint otherwise.
func NewProvider(cfg config.StockDataConfig) Provider {
	log := logger.Get().With("component", "stockdata")

	opts := Options{Timeout: cfg.Timeout}

	switch {
	case cfg.AlphaVantageKey != "":
		opts.APIKey = cfg.AlphaVantageKey
		log.Infow("Using stock data provider", "provider", ProviderAlphaVantage)
		return NewAlphaVantage(opts)
	case cfg.FinnhubKey != "":
		opts.APIKey = cfg.FinnhubKey
		log.Infow("Using stock data provider", "provider", ProviderFinnhub)
		return NewFinnhub(opts)
	default:
		log.Warnw("No stock data API key configured, using Yahoo Finance fallback",
			"provider", ProviderYahoo)
		return NewYahoo(opts)
	}
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
