package peering

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteAgent is one entry in a peer registry's public listing. Peers run the
// same registry software, so the shape mirrors the public listing DTO;
// location_url is the reconciliation key.
type RemoteAgent struct {
	AgentKey        string          `json:"agent_key"`
	PublisherID     string          `json:"publisher_id"`
	Version         string          `json:"version"`
	ProtocolVersion string          `json:"protocol_version"`
	LocationURL     string          `json:"location_url"`
	CardJSON        json.RawMessage `json:"card_json"`
}

type publicListEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Items []RemoteAgent `json:"items"`
		Total int64         `json:"total"`
	} `json:"data"`
}

// Client fetches public agent listings from peer registries.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a peer HTTP client. timeoutSec bounds the whole fetch;
// a timed-out sync is marked failed, never retried within the call.
func NewClient(timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}
}

// FetchPublicAgents performs GET {baseURL}/api/v1/agents/public with an
// optional bearer token. Both the enveloped response of this software and a
// bare JSON array are accepted.
func (c *Client) FetchPublicAgents(ctx context.Context, baseURL, authToken string) ([]RemoteAgent, error) {
	url := strings.TrimRight(baseURL, "/") + "/api/v1/agents/public"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch peer listing: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read peer response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("peer returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var agents []RemoteAgent
		if err := json.Unmarshal(trimmed, &agents); err != nil {
			return nil, fmt.Errorf("failed to parse peer listing: %w", err)
		}
		return agents, nil
	}

	var envelope publicListEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse peer listing: %w", err)
	}
	if envelope.Code != 0 {
		return nil, fmt.Errorf("peer returned error code %d: %s", envelope.Code, envelope.Message)
	}
	return envelope.Data.Items, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
