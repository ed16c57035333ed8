// Package client provides the HTTP client for the QuantumStore
// classification service, with retry and an online flag.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/quantumstore/quantumstore/pkg/retry"
)

// Client talks to the QuantumStore HTTP API. All fetches go through one
// uniform retry policy: transport errors and 5xx responses are retried with
// exponential backoff, everything else fails fast.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config

	mu       sync.RWMutex
	online   bool
	lastPing time.Time
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryConfig retry.Config
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    100,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
		online:      true,
	}
}

// IsOnline returns true if the last request reached the server.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
	c.lastPing = time.Now()
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setOnline(false)
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	c.setOnline(true)
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// get performs a retried GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return retry.Do(ctx, c.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			c.setOnline(false)
			if resp.StatusCode >= 500 {
				return retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
			}
			var errResp errorResponse
			if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
				return fmt.Errorf("request failed: %s", errResp.Error)
			}
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		c.setOnline(true)
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// FetchGroups fetches the raw groups payload. The body is decoded as
// arbitrary JSON — nested, wrapped, flat, whatever the server produced —
// and handed to the normalizer untouched.
func (c *Client) FetchGroups(ctx context.Context) (any, error) {
	var payload any
	if err := c.get(ctx, "/groups", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchFiles fetches the flat file listing. Both the documented
// {"files": [...], "count": n} envelope and a bare array are accepted.
func (c *Client) FetchFiles(ctx context.Context) ([]map[string]any, error) {
	var payload any
	if err := c.get(ctx, "/files", &payload); err != nil {
		return nil, err
	}

	var raw []any
	switch p := payload.(type) {
	case []any:
		raw = p
	case map[string]any:
		if fs, ok := p["files"].([]any); ok {
			raw = fs
		}
	}

	files := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			files = append(files, m)
		}
	}
	return files, nil
}

// TriggerRebuild asks the server to recompute its grouping. Fire and
// forget: success only means a later FetchGroups should see fresh data.
func (c *Client) TriggerRebuild(ctx context.Context) error {
	return retry.Do(ctx, c.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/groups/rebuild", nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
			c.setOnline(false)
			if resp.StatusCode >= 500 {
				return retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
			}
			var errResp errorResponse
			if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
				return fmt.Errorf("rebuild failed: %s", errResp.Error)
			}
			return fmt.Errorf("rebuild failed: %d", resp.StatusCode)
		}

		c.setOnline(true)
		return nil
	})
}
