package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/daniacca/rdmesim/internal/rdme"
)

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// RunInfo is the server's view of a run.
type RunInfo struct {
	ID           string `json:"id"`
	ModelID      string `json:"model_id"`
	Realizations int    `json:"realizations"`
	Seed         int64  `json:"seed"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// Run lifecycle states reported in RunInfo.Status.
const (
	RunPending = "pending"
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// Client talks to an rdmesim server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL
// (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitModel registers a model configuration and returns its ID.
func (c *Client) SubmitModel(ctx context.Context, cfg rdme.ModelConfig) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/models", cfg, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// startRunRequest mirrors the server's POST /runs body.
type startRunRequest struct {
	ModelID      string    `json:"model_id"`
	Realizations int       `json:"realizations"`
	Seed         int64     `json:"seed"`
	Tspan        []float64 `json:"tspan,omitempty"`
}

// StartRun launches an asynchronous run of a registered model. A nil tspan
// uses the model's default output times.
func (c *Client) StartRun(ctx context.Context, modelID string, realizations int, seed int64, tspan []float64) (RunInfo, error) {
	req := startRunRequest{
		ModelID:      modelID,
		Realizations: realizations,
		Seed:         seed,
		Tspan:        tspan,
	}
	var info RunInfo
	if err := c.doJSON(ctx, http.MethodPost, "/runs", req, &info); err != nil {
		return RunInfo{}, err
	}
	return info, nil
}

// GetRun returns the current status of a run.
func (c *Client) GetRun(ctx context.Context, runID string) (RunInfo, error) {
	var info RunInfo
	if err := c.doJSON(ctx, http.MethodGet, "/runs/"+url.PathEscape(runID), nil, &info); err != nil {
		return RunInfo{}, err
	}
	return info, nil
}

// WaitRun polls until the run leaves the pending/running states or the
// context is done. A run that failed on the server side is reported as an
// error carrying the server's reason; the RunInfo is still returned.
func (c *Client) WaitRun(ctx context.Context, runID string, pollEvery time.Duration) (RunInfo, error) {
	if pollEvery <= 0 {
		pollEvery = 100 * time.Millisecond
	}
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	for {
		info, err := c.GetRun(ctx, runID)
		if err != nil {
			return RunInfo{}, err
		}
		switch info.Status {
		case RunDone:
			return info, nil
		case RunFailed:
			return info, fmt.Errorf("run %s failed: %s", runID, info.Error)
		}

		select {
		case <-ctx.Done():
			return info, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetTrajectory fetches one realization's trajectory of a finished run.
func (c *Client) GetTrajectory(ctx context.Context, runID string, realization int) (*rdme.Trajectory, error) {
	path := fmt.Sprintf("/runs/%s/trajectory?realization=%d", url.PathEscape(runID), realization)
	var traj rdme.Trajectory
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &traj); err != nil {
		return nil, err
	}
	if err := rdme.ValidateTrajectory(&traj); err != nil {
		return nil, fmt.Errorf("server returned inconsistent trajectory: %w", err)
	}
	return &traj, nil
}

// doJSON sends a request with an optional JSON body and decodes a JSON
// response into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
