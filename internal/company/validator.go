// Package company implements the carrier/company name review flow:
// an ordered list of candidate names seeded from the extraction result,
// validated one by one (or in bulk) against the backend name-validation
// endpoint.
package company

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ValidationResult is the verdict returned by the validation endpoint.
type ValidationResult struct {
	IsValid    bool     `json:"is_valid"`
	Confidence float64  `json:"confidence"`
	Issues     []string `json:"issues"`
}

// Validator checks a single company name. Implemented by Client; fakes
// implement it in tests.
type Validator interface {
	Validate(ctx context.Context, name string) (*ValidationResult, error)
}

// Client calls the backend company-name validation endpoint.
type Client struct {
	client   *http.Client
	endpoint string
}

// NewClient creates a validation client for the given endpoint URL.
func NewClient(client *http.Client, endpoint string) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{client: client, endpoint: endpoint}
}

// Validate posts the name to the validation endpoint and decodes the
// verdict.
func (c *Client) Validate(ctx context.Context, name string) (*ValidationResult, error) {
	body, err := json.Marshal(map[string]string{"company_name": name})
	if err != nil {
		return nil, fmt.Errorf("encode validation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build validation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validation call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("validation endpoint returned status %d", resp.StatusCode)
	}

	var result ValidationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode validation response: %w", err)
	}
	return &result, nil
}
