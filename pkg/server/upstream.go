package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elormyevu/nku-gateway/pkg/config"
)

// UpstreamModel calls the inference service over HTTP. It satisfies the
// gateway's model caller and is the only component that talks to the model.
type UpstreamModel struct {
	url    string
	client *http.Client
}

// upstreamRequest is the inference service's request body.
type upstreamRequest struct {
	Prompt string `json:"prompt"`
}

// upstreamResponse is the inference service's response body.
type upstreamResponse struct {
	Output string `json:"output"`
}

// NewUpstreamModel builds an UpstreamModel from configuration.
func NewUpstreamModel(cfg *config.UpstreamConfig) (*UpstreamModel, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("upstream URL is required")
	}
	return &UpstreamModel{
		url: cfg.URL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Call posts the assembled prompt and returns the model output text.
func (u *UpstreamModel) Call(ctx context.Context, promptText string) (string, error) {
	payload, err := json.Marshal(upstreamRequest{Prompt: promptText})
	if err != nil {
		return "", fmt.Errorf("encoding upstream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return "", fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var body upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding upstream response: %w", err)
	}

	return body.Output, nil
}
