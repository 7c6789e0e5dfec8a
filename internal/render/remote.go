package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/reelsmith/api/internal/config"
	"github.com/reelsmith/api/internal/model"
)

// RemoteBackend talks to the real rendering service over HTTP.
type RemoteBackend struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type submitRequest struct {
	Phase    Phase               `json:"phase"`
	Timeline *model.Timeline     `json:"timeline"`
	Options  model.RenderOptions `json:"options"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
	State  string `json:"state"`
}

// NewRemoteBackend creates a client for the rendering service.
func NewRemoteBackend(cfg *config.RenderBackendConfig) *RemoteBackend {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &RemoteBackend{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

func (b *RemoteBackend) Name() string { return "remote" }

// Submit starts one render phase and returns the backend's task id.
func (b *RemoteBackend) Submit(ctx context.Context, phase Phase, tl *model.Timeline, opts model.RenderOptions) (string, error) {
	req := submitRequest{Phase: phase, Timeline: tl, Options: opts}
	var result submitResponse
	if err := b.post(ctx, fmt.Sprintf("/v1/render/%s", phase), req, &result); err != nil {
		return "", err
	}
	if result.TaskID == "" {
		return "", fmt.Errorf("%w: backend returned no task id", ErrBackendUnavailable)
	}
	return result.TaskID, nil
}

// Poll retrieves the current status of a render task.
func (b *RemoteBackend) Poll(ctx context.Context, taskID string) (*TaskStatus, error) {
	var result TaskStatus
	if err := b.get(ctx, fmt.Sprintf("/v1/render/tasks/%s", taskID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IsConfigured returns true if the client has valid configuration.
func (b *RemoteBackend) IsConfigured() bool {
	return b.baseURL != ""
}

func (b *RemoteBackend) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return b.doRequest(req, result)
}

func (b *RemoteBackend) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return b.doRequest(req, result)
}

func (b *RemoteBackend) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	log.Printf("[RenderBackend] → %s %s", req.Method, req.URL.String())

	resp, err := b.httpClient.Do(req)
	if err != nil {
		log.Printf("[RenderBackend] ✗ %s %s — request failed: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[RenderBackend] ✗ %s %s — failed to read response: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	log.Printf("[RenderBackend] ← %d %s %s", resp.StatusCode, req.Method, req.URL.String())

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, resp.StatusCode, string(respBody))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("render backend error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
