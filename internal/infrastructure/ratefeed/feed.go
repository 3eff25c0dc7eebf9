package ratefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/infrastructure/metrics"
)

// ErrNotConfigured is returned when no feed URL is set.
var ErrNotConfigured = errors.New("rate feed URL not configured")

const maxResponseBytes = 1 << 20

// Cache stores recent feed responses so repeated syncs within the TTL
// do not hit the provider again.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Client fetches exchange rates from an HTTP JSON provider. The provider
// is expected to answer GET <url>?base=USD&symbols=EUR,TRY with a body
// like {"source":"ecb","base":"USD","rates":{"EUR":0.92,"TRY":33.6}}.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    Cache
	cacheTTL time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewClient creates a feed client. cache may be nil to disable caching.
func NewClient(baseURL string, timeout time.Duration, cache Cache, cacheTTL time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "ratefeed").Logger(),
		metrics:  m,
	}
}

type feedResponse struct {
	Source string                 `json:"source"`
	Base   string                 `json:"base"`
	Rates  map[string]json.Number `json:"rates"`
}

// FetchRates fetches rates for base against the given targets. It returns
// the parsed rates keyed by target code and the provider's source
// identifier.
func (c *Client) FetchRates(ctx context.Context, base string, targets []string) (map[string]decimal.Decimal, string, error) {
	if c.baseURL == "" {
		return nil, "", ErrNotConfigured
	}

	cacheKey := "feed:" + base + ":" + strings.Join(targets, ",")
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
			rates, source, err := c.parse([]byte(cached), targets)
			if err == nil {
				c.observe("cached", 0)
				return rates, source, nil
			}
		}
	}

	start := time.Now()
	body, err := c.fetch(ctx, base, targets)
	if err != nil {
		c.observe("error", time.Since(start))
		return nil, "", err
	}

	rates, source, err := c.parse(body, targets)
	if err != nil {
		c.observe("error", time.Since(start))
		return nil, "", err
	}
	c.observe("ok", time.Since(start))

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, string(body), c.cacheTTL); err != nil {
			c.logger.Warn().Err(err).Msg("failed to cache feed response")
		}
	}

	return rates, source, nil
}

func (c *Client) fetch(ctx context.Context, base string, targets []string) ([]byte, error) {
	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed URL: %w", err)
	}
	query := reqURL.Query()
	query.Set("base", base)
	query.Set("symbols", strings.Join(targets, ","))
	reqURL.RawQuery = query.Encode()

	var body []byte
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("feed returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("feed returned status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("failed to read feed response: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = c.http.Timeout

	if err := backoff.Retry(attempt, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	return body, nil
}

func (c *Client) parse(body []byte, targets []string) (map[string]decimal.Decimal, string, error) {
	var parsed feedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, "", fmt.Errorf("failed to decode feed response: %w", err)
	}

	rates := make(map[string]decimal.Decimal, len(targets))
	for _, target := range targets {
		raw, ok := parsed.Rates[target]
		if !ok {
			c.logger.Warn().Str("currency", target).Msg("feed response missing requested currency")
			continue
		}
		rate, err := decimal.NewFromString(raw.String())
		if err != nil {
			return nil, "", fmt.Errorf("invalid rate for %s: %w", target, err)
		}
		if !rate.IsPositive() {
			return nil, "", fmt.Errorf("invalid rate for %s: %s", target, rate)
		}
		rates[target] = rate
	}
	if len(rates) == 0 {
		return nil, "", errors.New("feed response contained no requested rates")
	}

	source := parsed.Source
	if source == "" {
		source = c.baseURL
	}
	return rates, source, nil
}

func (c *Client) observe(status string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.FeedFetches.WithLabelValues(status).Inc()
	if elapsed > 0 {
		c.metrics.FeedDuration.Observe(elapsed.Seconds())
	}
}
