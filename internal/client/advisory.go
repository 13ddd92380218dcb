package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sstb-school/student-affairs-api/pkg/config"
)

// AdvisoryRequest describes the incident the guidance text should address.
type AdvisoryRequest struct {
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type advisoryResponse struct {
	Text string `json:"text"`
}

// AdvisoryClient talks to the external guidance-text generator. Callers
// treat it as optional enrichment: a failed call never blocks an alert.
type AdvisoryClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewAdvisoryClient constructs a client from configuration.
func NewAdvisoryClient(cfg config.AdvisoryConfig, logger *zap.Logger) *AdvisoryClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisoryClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// Generate requests guidance text for a raised alert.
func (c *AdvisoryClient) Generate(ctx context.Context, req AdvisoryRequest) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("advisory base URL not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode advisory request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/advice", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build advisory request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call advisory service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisory service returned status %d", resp.StatusCode)
	}

	var parsed advisoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode advisory response: %w", err)
	}
	if parsed.Text == "" {
		return "", fmt.Errorf("advisory service returned empty text")
	}
	return parsed.Text, nil
}
