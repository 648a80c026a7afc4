package stockdata

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"stockagents/pkg/errors"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo reads the public chart endpoint of Yahoo Finance. It needs no API key
// and is used when neither Alpha Vantage nor Finnhub is configured.
type Yahoo struct {
	http *httpClient
}

// NewYahoo creates a Yahoo Finance client. opts.APIKey is ignored.
func NewYahoo(opts Options) *Yahoo {
	opts = opts.withDefaults(yahooBaseURL)
	return &Yahoo{http: newHTTPClient(ProviderYahoo, opts)}
}

func (y *Yahoo) Name() string { return ProviderYahoo }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta yahooMeta `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooMeta struct {
	Currency             string          `json:"currency"`
	Symbol               string          `json:"symbol"`
	ExchangeName         string          `json:"exchangeName"`
	FullExchangeName     string          `json:"fullExchangeName"`
	InstrumentType       string          `json:"instrumentType"`
	RegularMarketPrice   decimal.Decimal `json:"regularMarketPrice"`
	RegularMarketTime    int64           `json:"regularMarketTime"`
	RegularMarketDayHigh decimal.Decimal `json:"regularMarketDayHigh"`
	RegularMarketDayLow  decimal.Decimal `json:"regularMarketDayLow"`
	RegularMarketVolume  int64           `json:"regularMarketVolume"`
	ChartPreviousClose   decimal.Decimal `json:"chartPreviousClose"`
	PreviousClose        decimal.Decimal `json:"previousClose"`
	LongName             string          `json:"longName"`
	ShortName            string          `json:"shortName"`
}

// Quote returns the latest regular-market quote for symbol.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (*Quote, error) {
	meta, err := y.chart(ctx, symbol)
	if err != nil {
		return nil, err
	}

	prev := meta.PreviousClose
	if prev.IsZero() {
		prev = meta.ChartPreviousClose
	}

	quote := &Quote{
		Symbol:        meta.Symbol,
		Price:         meta.RegularMarketPrice,
		High:          meta.RegularMarketDayHigh,
		Low:           meta.RegularMarketDayLow,
		PreviousClose: prev,
		Volume:        meta.RegularMarketVolume,
		Currency:      meta.Currency,
		Timestamp:     time.Unix(meta.RegularMarketTime, 0).UTC(),
		Source:        ProviderYahoo,
	}
	if !prev.IsZero() {
		quote.Change = meta.RegularMarketPrice.Sub(prev)
		quote.ChangePercent = quote.Change.Div(prev).Mul(decimal.NewFromInt(100)).Round(4)
	}
	return quote, nil
}

// Profile returns the identity fields the chart endpoint exposes.
// Sector, industry and market cap are not available without a crumb session.
func (y *Yahoo) Profile(ctx context.Context, symbol string) (*Profile, error) {
	meta, err := y.chart(ctx, symbol)
	if err != nil {
		return nil, err
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	exchange := meta.FullExchangeName
	if exchange == "" {
		exchange = meta.ExchangeName
	}

	return &Profile{
		Symbol:   meta.Symbol,
		Name:     name,
		Exchange: exchange,
		Industry: meta.InstrumentType,
		Currency: meta.Currency,
		Source:   ProviderYahoo,
	}, nil
}

func (y *Yahoo) chart(ctx context.Context, symbol string) (*yahooMeta, error) {
	symbol = NormalizeSymbol(symbol)

	var out yahooChartResponse
	err := y.http.get(ctx, "/v8/finance/chart/{symbol}", symbol, func(r *resty.Request) *resty.Request {
		return r.SetPathParam("symbol", symbol).
			SetQueryParams(map[string]string{"interval": "1d", "range": "1d"})
	}, &out)
	if err != nil {
		return nil, err
	}

	if out.Chart.Error != nil {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "yahoo: %s", out.Chart.Error.Description)
	}
	if len(out.Chart.Result) == 0 || out.Chart.Result[0].Meta.RegularMarketPrice.IsZero() {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "yahoo has no data for %s", symbol)
	}
	return &out.Chart.Result[0].Meta, nil
}
