// Package campus provides HTTP adapters for the campus services the
// collaboration domain depends on: eligibility, student directory and event
// configuration. Each service sits behind its own circuit breaker.
package campus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/eventsync/server/internal/port/outbound"
)

const apiKeyHeader = "X-API-Key"

// BreakerConfig controls when a service is considered down.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Client performs JSON GET requests against one campus service.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a client for the service at baseURL.
func NewClient(name, baseURL, apiKey string, httpClient *http.Client, cfg BreakerConfig) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A missing record is an answer, and a request the caller abandoned says
		// nothing about the service. Neither counts towards tripping.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, outbound.ErrRecordNotFound) ||
				errors.Is(err, context.Canceled)
		},
	}

	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// getJSON fetches path and decodes the body into out.
// A 404 maps to outbound.ErrRecordNotFound.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.name, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, outbound.ErrRecordNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s: unexpected status %d", c.name, resp.StatusCode)
	}
	return body, nil
}
