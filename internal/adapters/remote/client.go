// Package remote is the HTTP client for the receipts API.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/tourism/internal/domain/normalize"
	"github.com/okian/tourism/pkg/logger"
	"github.com/okian/tourism/pkg/metrics"
)

// maxErrorBody bounds the body snippet kept in a StatusError.
const maxErrorBody = 512

// RequestIDHeader carries the per-load request id.
const RequestIDHeader = "X-Request-ID"

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error %d", e.Code)
	}
	return fmt.Sprintf("API error %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Query is the filter set sent to GET /dashboard.
type Query struct {
	Year   *int
	Region string
	Limit  int
}

// Values encodes q. Year is sent only when set; region and limit always.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Year != nil {
		v.Set("year", strconv.Itoa(*q.Year))
	}
	v.Set("region", q.Region)
	v.Set("limit", strconv.Itoa(q.Limit))
	return v
}

// Client fetches dashboards from the receipts API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a receipts API client. A zero timeout leaves requests
// bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Dashboard fetches one dashboard payload. The payload is decoded but not
// validated; that is the normalizer's job.
func (c *Client) Dashboard(ctx context.Context, q Query, requestID string) (normalize.WirePayload, error) {
	u := c.baseURL + "/dashboard?" + q.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return normalize.WirePayload{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	took := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordRemoteRequest("error", took)
		return normalize.WirePayload{}, fmt.Errorf("dashboard request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordRemoteRequest(statusClass(resp.StatusCode), took)

	c.log.Debug(ctx, "receipts api response",
		logger.String("request_id", requestID),
		logger.Int("status", resp.StatusCode),
		logger.Float64("latency_ms", took),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return normalize.WirePayload{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return normalize.DecodePayload(resp.Body)
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
