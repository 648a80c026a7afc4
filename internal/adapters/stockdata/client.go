package stockdata

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"stockagents/internal/metrics"
	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
)

// Options configures an HTTP market data client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func (o Options) withDefaults(baseURL string) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	return o
}

// httpClient holds the resty client shared by the concrete providers.
// It makes exactly one request per call; retries belong to the tool layer.
type httpClient struct {
	name string
	rc   *resty.Client
	log  *logger.Logger
}

func newHTTPClient(name string, opts Options) *httpClient {
	c := &httpClient{
		name: name,
		rc:   resty.New(),
		log:  logger.Get().With("component", "stockdata", "provider", name),
	}

	c.rc.
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; stockagents/1.0)")

	c.rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.log.Debugw("Stock data response",
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
		)
		return nil
	})

	return c
}

// get performs a GET request, decoding the body into result, and records metrics.
func (c *httpClient) get(ctx context.Context, endpoint, symbol string, req func(*resty.Request) *resty.Request, result interface{}) (err error) {
	started := time.Now()
	defer func() {
		metrics.RecordStockAPICall(c.name, endpoint, time.Since(started), err)
	}()

	r := c.rc.R().SetContext(ctx).SetResult(result)
	if req != nil {
		r = req(r)
	}

	resp, err := r.Get(endpoint)
	if err != nil {
		return c.transportError(ctx, symbol, err)
	}
	if resp.IsError() {
		return c.statusError(symbol, resp.StatusCode())
	}
	return nil
}

func (c *httpClient) transportError(ctx context.Context, symbol string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrapf(errors.ErrTimeout, "%s request for %s", c.name, symbol)
	}
	if errors.Is(err, context.Canceled) {
		return errors.Wrapf(err, "%s request for %s", c.name, symbol)
	}
	return errors.Wrapf(errors.ErrUnavailable, "%s request for %s: %v", c.name, symbol, err)
}

func (c *httpClient) statusError(symbol string, status int) error {
	switch status {
	case http.StatusNotFound:
		return errors.Wrapf(errors.ErrInvalidSymbol, "%s has no data for %s", c.name, symbol)
	case http.StatusTooManyRequests:
		return errors.Wrapf(errors.ErrRateLimitExceeded, "%s", c.name)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(errors.ErrExternal, "%s rejected the API key (HTTP %d)", c.name, status)
	default:
		return errors.Wrapf(errors.ErrExternal, "%s returned HTTP %d for %s", c.name, status, symbol)
	}
}
