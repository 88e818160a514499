package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	service "github.com/okian/tourism/internal/app"
	"github.com/okian/tourism/internal/domain/model"
)

// maxBody bounds how much of a response the client reads.
const maxBody = 8 << 20

// DashboardResponse is the body of GET /api/dashboard.
type DashboardResponse struct {
	Data     model.Dashboard `json:"data"`
	Notice   string          `json:"notice"`
	Degraded bool            `json:"degraded"`
}

// Client talks to a running dashboard service.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Dashboard runs a one-off load for f.
func (c *Client) Dashboard(ctx context.Context, f model.Filters, limit int) (DashboardResponse, error) {
	q := url.Values{}
	if f.Year != nil {
		q.Set("year", strconv.Itoa(*f.Year))
	}
	if f.Region != "" {
		q.Set("region", f.Region)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/dashboard"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out DashboardResponse
	err := c.getJSON(ctx, path, http.StatusOK, &out)
	return out, err
}

// State fetches GET /api/state.
func (c *Client) State(ctx context.Context) (service.State, error) {
	var out service.State
	err := c.getJSON(ctx, "/api/state", http.StatusOK, &out)
	return out, err
}

// SetFilters posts f and returns the load token.
func (c *Client) SetFilters(ctx context.Context, f model.Filters) (uint64, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("marshal filters: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/filters", body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var out struct {
		Token uint64 `json:"token"`
	}
	if err := decode(resp, http.StatusAccepted, &out); err != nil {
		return 0, err
	}
	return out.Token, nil
}

func (c *Client) getJSON(ctx context.Context, path string, want int, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, want, v)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decode(resp *http.Response, want int, v any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
