// Package probe fetches a target data service's /schema, /metrics and
// /health endpoints and classifies the outcome.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TransportError reports a probe that failed before yielding a usable
// JSON body: connection failures, timeouts, and non-2xx responses.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Timeout    bool
	Message    string
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("probe %s timed out", e.Endpoint)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("probe %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("probe %s failed: %s", e.Endpoint, e.Message)
}

// HealthResult is the outcome of a /health probe.
type HealthResult struct {
	Healthy   bool
	LatencyMS float64
	Response  map[string]any
}

// Client probes target data services over HTTP with bounded timeouts.
type Client struct {
	httpClient    *http.Client
	timeout       time.Duration
	healthTimeout time.Duration
}

// NewClient creates a probe client. timeout bounds /schema and /metrics
// requests, healthTimeout bounds /health.
func NewClient(timeout, healthTimeout time.Duration) *Client {
	return &Client{
		httpClient:    &http.Client{},
		timeout:       timeout,
		healthTimeout: healthTimeout,
	}
}

// FetchSchema fetches {endpoint}/schema.
func (c *Client) FetchSchema(ctx context.Context, endpoint string) (map[string]any, error) {
	return c.getJSON(ctx, endpoint+"/schema", c.timeout)
}

// FetchMetrics fetches {endpoint}/metrics.
func (c *Client) FetchMetrics(ctx context.Context, endpoint string) (map[string]any, error) {
	return c.getJSON(ctx, endpoint+"/metrics", c.timeout)
}

// FetchHealth fetches {endpoint}/health. A transport error or timeout is
// returned as an unhealthy result, not an error, so the caller records it
// as a failed availability check.
func (c *Client) FetchHealth(ctx context.Context, endpoint string) HealthResult {
	start := time.Now()
	body, err := c.getJSON(ctx, endpoint+"/health", c.healthTimeout)
	if err != nil {
		var te *TransportError
		resp := map[string]any{"error": err.Error()}
		if errors.As(err, &te) && te.Timeout {
			resp = map[string]any{"error": "Request timed out"}
		}
		return HealthResult{Healthy: false, Response: resp}
	}

	status, _ := body["status"].(string)
	return HealthResult{
		Healthy:   status == "healthy",
		LatencyMS: float64(time.Since(start)) / float64(time.Millisecond),
		Response:  body,
	}
}

func (c *Client) getJSON(ctx context.Context, url string, timeout time.Duration) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Endpoint: url, Message: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "deadline exceeded") {
			return nil, &TransportError{Endpoint: url, Timeout: true, Message: err.Error()}
		}
		return nil, &TransportError{Endpoint: url, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Endpoint: url, StatusCode: resp.StatusCode, Message: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: url, Message: err.Error()}
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &TransportError{Endpoint: url, Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return out, nil
}
