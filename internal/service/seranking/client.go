package seranking

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"RankPulse/internal/domain/repository"
	"RankPulse/internal/service/ratelimit"
	"RankPulse/pkg/config"
	xhttp "RankPulse/pkg/http"
	xlogger "RankPulse/pkg/logger"
)

// Client implements repository.RankingProvider against the SEranking data
// API. Every outgoing request reserves a slot with the shared rate limiter
// first; 429 rejections retry with exponential backoff.
type Client struct {
	apiKey   string
	baseURL  string
	engineID int

	http    *xhttp.Client
	limiter *ratelimit.Limiter
	backoff ratelimit.Backoff

	maxRetries   int
	pollInterval time.Duration
	pollTimeout  time.Duration

	logger  *xlogger.Logger
	metrics repository.Metrics
}

// New creates a provider client from config.
func New(cfg *config.Config, limiter *ratelimit.Limiter, l *xlogger.Logger, m repository.Metrics) *Client {
	if m == nil {
		m = repository.NopMetrics{}
	}
	return &Client{
		apiKey:   cfg.SERanking.APIKey,
		baseURL:  cfg.SERanking.BaseURL,
		engineID: cfg.SERanking.EngineID,
		http:     xhttp.NewClient(xhttp.WithTimeout(cfg.SERanking.RequestTimeout)),
		limiter:  limiter,
		backoff: ratelimit.Backoff{
			Base: cfg.SERanking.RetryBaseDelay,
			Max:  cfg.SERanking.RetryMaxDelay,
		},
		maxRetries:   cfg.SERanking.MaxRetries,
		pollInterval: cfg.SERanking.PollInterval,
		pollTimeout:  cfg.SERanking.PollTimeout,
		logger:       l,
		metrics:      m,
	}
}

var _ repository.RankingProvider = (*Client)(nil)

// do issues one authenticated request to the provider. It waits on the rate
// limiter before every attempt and retries 429 responses up to maxRetries
// with backoff. Any other non-2xx status surfaces as *ProviderError.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, form url.Values, body interface{}, dest interface{}) error {
	opts := &xhttp.RequestOptions{
		Method: method,
		URL:    c.baseURL + endpoint,
		Headers: map[string]string{
			"Authorization": "Token " + c.apiKey,
		},
		Body: body,
		Form: form,
	}
	if query != nil {
		opts.QueryParams = query
	}

	for attempt := 0; ; attempt++ {
		waited, err := c.limiter.Wait(ctx)
		c.metrics.RecordRateLimitWait(waited.Seconds())
		if err != nil {
			return err
		}

		start := time.Now()
		err = c.http.SendAndParse(ctx, opts, dest)
		elapsed := time.Since(start).Seconds()

		if err == nil {
			c.metrics.RecordProviderRequest(endpoint, "ok", elapsed)
			return nil
		}

		var statusErr *xhttp.StatusError
		if errors.As(err, &statusErr) {
			c.metrics.RecordProviderRequest(endpoint, strconv.Itoa(statusErr.Status), elapsed)
			if statusErr.Status == 429 {
				if attempt+1 >= c.maxRetries {
					return ErrRateLimited
				}
				c.logger.Warn("provider rate limit exceeded, backing off",
					xlogger.String("endpoint", endpoint),
					xlogger.Int("attempt", attempt+1),
				)
				if err := c.backoff.Sleep(ctx, attempt); err != nil {
					return err
				}
				continue
			}
			return &ProviderError{Endpoint: endpoint, Status: statusErr.Status, Body: statusErr.Body}
		}

		c.metrics.RecordProviderRequest(endpoint, "error", elapsed)
		return err
	}
}
