package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"launcher/internal/ports"
)

// DefaultClientTimeout bounds a single request. Restart waits for a full
// close and start, so it is generous.
const DefaultClientTimeout = 2 * time.Minute

// Client talks to the status API of a running launcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the status API at addr ("host:port" or a
// full http URL).
func NewClient(addr string) *Client {
	baseURL := addr
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: DefaultClientTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Status fetches GET /status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", &resp)
	return resp, err
}

// Ports fetches GET /ports.
func (c *Client) Ports(ctx context.Context) (ports.Allocation, error) {
	var alloc ports.Allocation
	err := c.do(ctx, http.MethodGet, "/ports", &alloc)
	return alloc, err
}

// Restart calls POST /restart and waits for it to finish.
func (c *Client) Restart(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/restart", nil)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
