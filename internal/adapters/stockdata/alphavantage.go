package stockdata

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"stockagents/pkg/errors"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantage reads GLOBAL_QUOTE and OVERVIEW from the Alpha Vantage API.
type AlphaVantage struct {
	http   *httpClient
	apiKey string
}

// NewAlphaVantage creates an Alpha Vantage client.
func NewAlphaVantage(opts Options) *AlphaVantage {
	opts = opts.withDefaults(alphaVantageBaseURL)
	return &AlphaVantage{
		http:   newHTTPClient(ProviderAlphaVantage, opts),
		apiKey: opts.APIKey,
	}
}

func (a *AlphaVantage) Name() string { return ProviderAlphaVantage }

// alphaVantageStatus carries the soft errors the API returns with HTTP 200.
type alphaVantageStatus struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

func (s alphaVantageStatus) err(symbol string) error {
	switch {
	case s.ErrorMessage != "":
		return errors.Wrapf(errors.ErrInvalidSymbol, "alphavantage: %s", symbol)
	case s.Note != "":
		return errors.Wrapf(errors.ErrRateLimitExceeded, "alphavantage: %s", s.Note)
	case s.Information != "":
		return errors.Wrapf(errors.ErrRateLimitExceeded, "alphavantage: %s", s.Information)
	}
	return nil
}

type alphaVantageQuoteResponse struct {
	alphaVantageStatus
	GlobalQuote struct {
		Symbol           string `json:"01. symbol"`
		Open             string `json:"02. open"`
		High             string `json:"03. high"`
		Low              string `json:"04. low"`
		Price            string `json:"05. price"`
		Volume           string `json:"06. volume"`
		LatestTradingDay string `json:"07. latest trading day"`
		PreviousClose    string `json:"08. previous close"`
		Change           string `json:"09. change"`
		ChangePercent    string `json:"10. change percent"`
	} `json:"Global Quote"`
}

type alphaVantageOverview struct {
	alphaVantageStatus
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	Description          string `json:"Description"`
	Exchange             string `json:"Exchange"`
	Currency             string `json:"Currency"`
	Country              string `json:"Country"`
	Sector               string `json:"Sector"`
	Industry             string `json:"Industry"`
	MarketCapitalization string `json:"MarketCapitalization"`
	FullTimeEmployees    string `json:"FullTimeEmployees"`
	OfficialSite         string `json:"OfficialSite"`
}

// Quote returns the latest GLOBAL_QUOTE for symbol.
func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = NormalizeSymbol(symbol)

	var out alphaVantageQuoteResponse
	err := a.http.get(ctx, "/query", symbol, a.params("GLOBAL_QUOTE", symbol), &out)
	if err != nil {
		return nil, err
	}
	if err := out.err(symbol); err != nil {
		return nil, err
	}

	q := out.GlobalQuote
	if q.Symbol == "" || q.Price == "" {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "alphavantage has no quote for %s", symbol)
	}

	quote := &Quote{
		Symbol:        q.Symbol,
		Price:         parseDecimal(q.Price),
		Change:        parseDecimal(q.Change),
		ChangePercent: parseDecimal(strings.TrimSuffix(q.ChangePercent, "%")),
		Open:          parseDecimal(q.Open),
		High:          parseDecimal(q.High),
		Low:           parseDecimal(q.Low),
		PreviousClose: parseDecimal(q.PreviousClose),
		Volume:        parseInt(q.Volume),
		Currency:      "USD",
		Source:        ProviderAlphaVantage,
	}
	if day, err := time.Parse("2006-01-02", q.LatestTradingDay); err == nil {
		quote.Timestamp = day
	}
	return quote, nil
}

// Profile returns the company OVERVIEW for symbol.
func (a *AlphaVantage) Profile(ctx context.Context, symbol string) (*Profile, error) {
	symbol = NormalizeSymbol(symbol)

	var out alphaVantageOverview
	err := a.http.get(ctx, "/query", symbol, a.params("OVERVIEW", symbol), &out)
	if err != nil {
		return nil, err
	}
	if err := out.err(symbol); err != nil {
		return nil, err
	}
	if out.Symbol == "" {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "alphavantage has no overview for %s", symbol)
	}

	return &Profile{
		Symbol:      out.Symbol,
		Name:        out.Name,
		Exchange:    out.Exchange,
		Sector:      titleCase(out.Sector),
		Industry:    titleCase(out.Industry),
		Country:     out.Country,
		Currency:    out.Currency,
		Website:     out.OfficialSite,
		Description: out.Description,
		MarketCap:   parseDecimal(out.MarketCapitalization),
		Employees:   parseInt(out.FullTimeEmployees),
		Source:      ProviderAlphaVantage,
	}, nil
}

func (a *AlphaVantage) params(function, symbol string) func(*resty.Request) *resty.Request {
	return func(r *resty.Request) *resty.Request {
		return r.SetQueryParams(map[string]string{
			"function": function,
			"symbol":   symbol,
			"apikey":   a.apiKey,
		})
	}
}

// parseDecimal treats blanks and "None" as zero.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// titleCase turns "TECHNOLOGY" or "ELECTRONIC COMPUTERS" into "Technology" / "Electronic Computers".
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
