package stockdata

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"stockagents/pkg/errors"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub reads /quote and /stock/profile2 from the Finnhub API.
type Finnhub struct {
	http *httpClient
}

// NewFinnhub creates a Finnhub client authenticated with the X-Finnhub-Token header.
func NewFinnhub(opts Options) *Finnhub {
	opts = opts.withDefaults(finnhubBaseURL)
	c := newHTTPClient(ProviderFinnhub, opts)
	c.rc.SetHeader("X-Finnhub-Token", opts.APIKey)
	return &Finnhub{http: c}
}

func (f *Finnhub) Name() string { return ProviderFinnhub }

type finnhubQuote struct {
	Current       decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"d"`
	ChangePercent decimal.Decimal `json:"dp"`
	High          decimal.Decimal `json:"h"`
	Low           decimal.Decimal `json:"l"`
	Open          decimal.Decimal `json:"o"`
	PreviousClose decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}

type finnhubProfile struct {
	Country   string          `json:"country"`
	Currency  string          `json:"currency"`
	Exchange  string          `json:"exchange"`
	Industry  string          `json:"finnhubIndustry"`
	Name      string          `json:"name"`
	Ticker    string          `json:"ticker"`
	WebURL    string          `json:"weburl"`
	MarketCap decimal.Decimal `json:"marketCapitalization"` // millions
}

// Quote returns the real-time quote for symbol. Finnhub answers unknown
// symbols with an all-zero quote.
func (f *Finnhub) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = NormalizeSymbol(symbol)

	var out finnhubQuote
	if err := f.http.get(ctx, "/quote", symbol, withSymbol(symbol), &out); err != nil {
		return nil, err
	}
	if out.Current.IsZero() && out.Timestamp == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "finnhub has no quote for %s", symbol)
	}

	return &Quote{
		Symbol:        symbol,
		Price:         out.Current,
		Change:        out.Change,
		ChangePercent: out.ChangePercent,
		Open:          out.Open,
		High:          out.High,
		Low:           out.Low,
		PreviousClose: out.PreviousClose,
		Currency:      "USD",
		Timestamp:     time.Unix(out.Timestamp, 0).UTC(),
		Source:        ProviderFinnhub,
	}, nil
}

// Profile returns the company profile for symbol.
func (f *Finnhub) Profile(ctx context.Context, symbol string) (*Profile, error) {
	symbol = NormalizeSymbol(symbol)

	var out finnhubProfile
	if err := f.http.get(ctx, "/stock/profile2", symbol, withSymbol(symbol), &out); err != nil {
		return nil, err
	}
	if out.Ticker == "" && out.Name == "" {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "finnhub has no profile for %s", symbol)
	}

	return &Profile{
		Symbol:    symbol,
		Name:      out.Name,
		Exchange:  out.Exchange,
		Industry:  out.Industry,
		Country:   out.Country,
		Currency:  out.Currency,
		Website:   out.WebURL,
		MarketCap: out.MarketCap.Mul(decimal.NewFromInt(1_000_000)),
		Source:    ProviderFinnhub,
	}, nil
}

func withSymbol(symbol string) func(*resty.Request) *resty.Request {
	return func(r *resty.Request) *resty.Request {
		return r.SetQueryParam("symbol", symbol)
	}
}
