// Package control implements the HTTP client for the session control API.
//
// The control API is served by the process-spawning backend that actually
// launches agent executables. This package only consumes it: start, stop,
// resume, list, and log retrieval.
package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahostbr/kuroryuu/internal/models"
)

// DefaultTimeout bounds every control API request.
const DefaultTimeout = 10 * time.Second

// Client talks to the session control API over HTTP/JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a control API client for the given base URL.
// A timeout of 0 uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// startResponse is the wire shape shared by start and resume.
type startResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type stopResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type listResponse struct {
	Sessions []models.Session `json:"sessions"`
}

type logsResponse struct {
	Logs string `json:"logs"`
}

// Start asks the backend to spawn a new session. Returns the tracked session id.
func (c *Client) Start(ctx context.Context, cfg models.SpawnConfig) (string, error) {
	var resp startResponse
	if err := c.do(ctx, http.MethodPost, "/sessions/start", cfg, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("start rejected: %s", resp.Error)
	}
	return resp.SessionID, nil
}

// Stop asks the backend to stop a session. Returns false if the backend
// reported the session as not stoppable (already gone).
func (c *Client) Stop(ctx context.Context, sessionID string) (bool, error) {
	var resp stopResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/stop"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.OK, nil
}

// Resume asks the backend to resume a terminated session with a new prompt.
// The backend may assign a fresh tracked id.
func (c *Client) Resume(ctx context.Context, sessionID, prompt string) (string, error) {
	body := map[string]string{"prompt": prompt}
	var resp startResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/resume"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("resume rejected: %s", resp.Error)
	}
	return resp.SessionID, nil
}

// List fetches the full current session list from the backend.
func (c *Client) List(ctx context.Context) ([]models.Session, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// Logs fetches the rendered log excerpt for a session. Used at archival time.
func (c *Client) Logs(ctx context.Context, sessionID string) (string, error) {
	var resp logsResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/logs"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Logs, nil
}

// do performs one JSON request/response round trip.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
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
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("control API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("control API %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
