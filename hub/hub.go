// Package hub checks whether a remote automation server is ready to accept
// sessions before the external runner is launched.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/e2erun/logger"
)

var (
	// ErrNotReady is returned when the server answers but reports it is not ready.
	ErrNotReady = errors.New("automation server is not ready")

	// ErrUnexpectedResponse is returned for non-2xx answers or undecodable bodies.
	ErrUnexpectedResponse = errors.New("unexpected status response")
)

// maxStatusBody bounds how much of a status response is read.
const maxStatusBody = 1 << 20

// Status is the readiness reported by the server's /status endpoint.
type Status struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message"`
}

type statusResponse struct {
	Value Status `json:"value"`
}

// Client probes automation server status endpoints.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a probe client whose requests time out after timeout.
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// StatusURL returns the status endpoint for a remote endpoint URL.
func StatusURL(endpoint string) string {
	return strings.TrimRight(endpoint, "/") + "/status"
}

// Status fetches the readiness of the server at endpoint. It returns the
// decoded status together with ErrNotReady when the server is up but not
// accepting sessions.
func (c *Client) Status(ctx context.Context, endpoint string) (*Status, error) {
	statusURL := StatusURL(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "automation server unreachable", map[string]interface{}{
			"url":   statusURL,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("failed to reach automation server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrUnexpectedResponse, resp.StatusCode, statusURL)
	}

	var sr statusResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	c.logger.Debug(ctx, "automation server status", map[string]interface{}{
		"url":     statusURL,
		"ready":   sr.Value.Ready,
		"message": sr.Value.Message,
	})

	if !sr.Value.Ready {
		return &sr.Value, fmt.Errorf("%w: %s", ErrNotReady, sr.Value.Message)
	}
	return &sr.Value, nil
}
