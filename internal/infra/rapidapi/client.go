package rapidapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"watchlist-service/internal/domain"
)

// Client implements domain.MovieAPI over HTTP.
type Client struct {
	name   string
	cfg    Config
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[[]byte]
	logger *zap.Logger
}

// New creates a new movie API client.
// An empty API key is accepted here; every Fetch then fails with AuthConfigError.
func New(cfg Config, logger *zap.Logger) *Client {
	c := &Client{
		name:   "rapidapi",
		cfg:    cfg,
		client: newRestyClient(cfg),
		logger: logger,
	}

	if cfg.CB.Enabled {
		c.cb = newCircuitBreaker[[]byte](c.name, cfg.CB, c.logStateChange)
	}

	return c
}

// Fetch performs a GET request against endpoint and returns the raw body.
//
// Errors:
//   - *domain.AuthConfigError when no API key is configured
//   - *domain.UpstreamError for non-2xx responses (503 while the breaker is open)
//   - *domain.TimeoutError when no response arrives within Timeout
func (c *Client) Fetch(ctx context.Context, endpoint string, query map[string]string) ([]byte, error) {
	headers, err := c.headers()
	if err != nil {
		return nil, err
	}

	// An in-flight upstream call runs to completion or Timeout even if the
	// caller goes away.
	ctx = context.WithoutCancel(ctx)

	if c.cb == nil {
		return c.do(ctx, endpoint, query, headers)
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, query, headers)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("rapidapi request rejected by circuit breaker",
			zap.String("endpoint", endpoint),
			zap.String("state", c.cb.State().String()),
		)

		return nil, &domain.UpstreamError{
			StatusCode: http.StatusServiceUnavailable,
			Body:       err.Error(),
		}
	}

	return body, err
}

func (c *Client) do(ctx context.Context, endpoint string, query map[string]string, headers map[string]string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParams(query).
		Get(endpoint)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("rapidapi request timed out",
				zap.String("endpoint", endpoint),
				zap.Duration("timeout", Timeout),
			)

			return nil, &domain.TimeoutError{Endpoint: endpoint}
		}

		return nil, fmt.Errorf("requesting %s: %w", endpoint, err)
	}

	if !resp.IsSuccess() {
		c.logger.Warn("rapidapi returned error status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode()),
		)

		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	c.logger.Debug("rapidapi request completed",
		zap.String("endpoint", endpoint),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("duration", resp.Time()),
	)

	return resp.Body(), nil
}

// headers builds the authentication headers, checking the key on every call.
func (c *Client) headers() (map[string]string, error) {
	if c.cfg.APIKey == "" {
		return nil, &domain.AuthConfigError{Setting: "rapidapi.key"}
	}

	return map[string]string{
		HeaderAPIKey:   c.cfg.APIKey,
		HeaderAPIHost:  c.cfg.APIHost,
		"Content-Type": "application/json",
	}, nil
}

func (c *Client) logStateChange(name string, from, to gobreaker.State) {
	c.logger.Warn("circuit breaker state changed",
		zap.String("breaker", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// isServerFailure reports whether err should count against the upstream's health.
// Client errors (4xx other than 429) are the caller's fault and do not.
func isServerFailure(err error) bool {
	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode >= 500 || upstreamErr.StatusCode == http.StatusTooManyRequests
	}

	return true
}
