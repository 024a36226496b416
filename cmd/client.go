package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
)

// apiClient talks to the daemon's REST surface.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 35 * time.Second},
	}
}

// envelope mirrors models.Message on the decoding side.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (c *apiClient) do(ctx context.Context, method, path string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(env.Data, out)
}

func (c *apiClient) Snapshot(ctx context.Context) (models.WorkspaceInfo, error) {
	var info models.WorkspaceInfo
	err := c.do(ctx, http.MethodGet, "/api/v1/snapshot", nil, &info)
	return info, err
}

func (c *apiClient) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/refresh", nil, nil)
}

func (c *apiClient) WatchPatterns(ctx context.Context) (models.WatchPatterns, error) {
	var p models.WatchPatterns
	err := c.do(ctx, http.MethodGet, "/api/v1/watch-patterns", nil, &p)
	return p, err
}

func (c *apiClient) SetWatchPatterns(ctx context.Context, patterns []string) (models.WatchPatternsUpdated, error) {
	var p models.WatchPatternsUpdated
	err := c.do(ctx, http.MethodPut, "/api/v1/watch-patterns", map[string][]string{"patterns": patterns}, &p)
	return p, err
}
