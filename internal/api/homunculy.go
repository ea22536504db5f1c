// Package api provides the HTTP client for the Homunculy companion service.
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const requestTimeout = 30 * time.Second

// Companion is a voice companion registered on the server.
type Companion struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	VoiceID  string `json:"voice_id"`
	Greeting string `json:"greeting"`
}

// Client is the HTTP client for the companion service REST API.
type Client struct {
	client *resty.Client
}

// NewClient creates a companion service client with sensible defaults.
func NewClient(baseURL string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(requestTimeout),
	}
}

// Health checks that the companion service is reachable.
func (c *Client) Health() error {
	resp, err := c.client.R().Get("/health")
	if err != nil {
		return fmt.Errorf("failed to reach companion service: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("companion service returned status %d: %s", resp.StatusCode(), resp.Status())
	}

	return nil
}

// ListCompanions fetches the companions available on the server.
func (c *Client) ListCompanions() ([]Companion, error) {
	resp, err := c.client.R().Get("/api/v1/companions")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch companions: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("api returned status %d: %s", resp.StatusCode(), resp.Status())
	}

	var response struct {
		Companions []Companion `json:"companions"`
	}

	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse companions response: %w", err)
	}

	return response.Companions, nil
}

// GetCompanion fetches a single companion by ID.
func (c *Client) GetCompanion(id string) (*Companion, error) {
	resp, err := c.client.R().Get(fmt.Sprintf("/api/v1/companions/%s", id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch companion %s: %w", id, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("api returned status %d: %s", resp.StatusCode(), resp.Status())
	}

	var companion Companion
	if err := json.Unmarshal(resp.Body(), &companion); err != nil {
		return nil, fmt.Errorf("failed to parse companion response: %w", err)
	}

	return &companion, nil
}
