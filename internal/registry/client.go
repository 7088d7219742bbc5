// Package registry is the HTTP client for the Contract Service: fetching
// contract definitions and recording compliance check results.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"datapact/internal/models"
)

// ErrNotFound is returned when the registry has no matching contract.
var ErrNotFound = fmt.Errorf("contract not found")

// Client talks to the Contract Service REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a registry client for the given base URL
// (e.g. "http://contract-service:8000").
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetContract fetches one contract by ID.
func (c *Client) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	var contract models.Contract
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api/v1/contracts/%s", c.baseURL, id), &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetContractByName fetches one contract by its unique name.
func (c *Client) GetContractByName(ctx context.Context, name string) (*models.Contract, error) {
	var contract models.Contract
	u := fmt.Sprintf("%s/api/v1/contracts/name/%s", c.baseURL, url.PathEscape(name))
	if err := c.getJSON(ctx, u, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// ListActiveContracts fetches up to limit active contracts. A single page
// capped at limit per scheduling pass is a known scale limit.
func (c *Client) ListActiveContracts(ctx context.Context, limit int) ([]models.Contract, error) {
	var out struct {
		Contracts []models.Contract `json:"contracts"`
	}
	u := fmt.Sprintf("%s/api/v1/contracts?status=active&limit=%d", c.baseURL, limit)
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out.Contracts, nil
}

// RecordCompliance persists a compliance check result for a contract.
func (c *Client) RecordCompliance(ctx context.Context, result models.ComplianceResult) error {
	payload, err := json.Marshal(map[string]any{
		"check_type":    result.CheckType,
		"status":        result.Status,
		"details":       result.Details,
		"error_message": result.ErrorMessage,
	})
	if err != nil {
		return fmt.Errorf("failed to encode compliance result: %w", err)
	}

	u := fmt.Sprintf("%s/api/v1/contracts/%s/compliance", c.baseURL, result.ContractID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to record compliance check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to record compliance check: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("contract service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("contract service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode contract service response: %w", err)
	}
	return nil
}
