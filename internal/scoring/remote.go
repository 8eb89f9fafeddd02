package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"barberhub/internal/models"
)

// RemoteScorer is a client for an external ML scoring service. It is an
// optional strategy: Ready reflects the last health check, and the
// blender ignores it while unhealthy.
type RemoteScorer struct {
	baseURL    string
	httpClient *http.Client
	healthy    atomic.Bool
}

// ScoreRequest is the payload sent to the scoring service.
type ScoreRequest struct {
	Category string             `json:"category"`
	Features map[string]float64 `json:"features"`
}

// ScoreResponse is the scoring service's reply.
type ScoreResponse struct {
	Confidence     float64 `json:"confidence"`
	Severity       float64 `json:"severity"`
	Urgency        float64 `json:"urgency"`
	BusinessImpact float64 `json:"business_impact"`
}

// RemoteHealthResponse is the scoring service's health reply.
type RemoteHealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// NewRemoteScorer creates a new scoring service client.
func NewRemoteScorer(baseURL string) *RemoteScorer {
	return &RemoteScorer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *RemoteScorer) Ready() bool {
	return s.healthy.Load()
}

func (s *RemoteScorer) Score(ctx context.Context, category models.AlertCategory, feats models.FloatMap) (Scores, error) {
	reqBody := ScoreRequest{
		Category: string(category),
		Features: feats,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Scores{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/api/v1/score", bytes.NewBuffer(jsonData))
	if err != nil {
		return Scores{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.healthy.Store(false)
		return Scores{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Scores{}, fmt.Errorf("scoring service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Scores{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return Scores{
		Confidence:     clamp01(result.Confidence),
		Severity:       clamp01(result.Severity),
		Urgency:        clamp01(result.Urgency),
		BusinessImpact: clamp01(result.BusinessImpact),
	}, nil
}

// HealthCheck probes the scoring service and records readiness.
func (s *RemoteScorer) HealthCheck(ctx context.Context) (*RemoteHealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/api/v1/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.healthy.Store(false)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.healthy.Store(false)
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("scoring service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result RemoteHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		s.healthy.Store(false)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	s.healthy.Store(result.ModelLoaded)
	return &result, nil
}
