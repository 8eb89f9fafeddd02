package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"barberhub/internal/models"
)

// Client calls the LLM augmentation service for contextual actions.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// AugmentRequest is the payload for an augmentation call.
type AugmentRequest struct {
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Actions  []string `json:"actions"`
}

// AugmentResponse is the augmentation service's reply.
type AugmentResponse struct {
	Actions  []string `json:"actions"`
	Provider string   `json:"provider,omitempty"`
}

// NewClient creates a new augmentation service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Augment requests additional contextual actions for an alert.
func (c *Client) Augment(ctx context.Context, category models.AlertCategory, title, message string, actions []string) ([]string, error) {
	reqBody := AugmentRequest{
		Category: string(category),
		Title:    title,
		Message:  message,
		Actions:  actions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/augment", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("augmentation service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result AugmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Actions, nil
}
