// Package rapidapi implements the client for the third-party movie metadata API.
package rapidapi

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

// Timeout bounds every upstream request.
const Timeout = 10 * time.Second

// Authentication headers required by the API gateway.
const (
	HeaderAPIKey  = "X-RapidAPI-Key"
	HeaderAPIHost = "X-RapidAPI-Host"
)

// Config holds configuration for the movie API client.
type Config struct {
	BaseURL string
	APIKey  string
	APIHost string
	CB      CBConfig
}

// CBConfig holds circuit breaker configuration.
type CBConfig struct {
	Enabled      bool
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// newRestyClient creates a Resty HTTP client with the fixed upstream timeout.
// Retries are left to callers.
func newRestyClient(cfg Config) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
}

// newCircuitBreaker creates the circuit breaker guarding upstream calls.
func newCircuitBreaker[T any](name string, cfg CBConfig, onStateChange func(name string, from, to gobreaker.State)) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Only server-side trouble counts against the upstream.
			return err == nil || !isServerFailure(err)
		},
		OnStateChange: onStateChange,
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
