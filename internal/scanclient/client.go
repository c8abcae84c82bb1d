// Package scanclient talks to a running sitescan HTTP service.
package scanclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olegrjumin/sitescan/internal/httpclient"
	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/scanner"
)

const (
	// DefaultBaseURL is where the service listens by default
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout bounds one API call, scan included
	DefaultTimeout = 60 * time.Second
	// DefaultUserAgent identifies the client to the service
	DefaultUserAgent = "sitescan-client/1.0"
)

// Client handles requests to the scan service
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *logging.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger for request/response logging
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// ScanRequest is the body of POST /scan. Zero Depth and Timeout get the service defaults.
type ScanRequest struct {
	URL     string `json:"url"`
	Depth   int    `json:"depth"`
	Timeout int    `json:"timeout"`
}

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// New creates a client for the service at baseURL; empty means DefaultBaseURL
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// Scans hold the response until they finish, so headers may take as long as the scan.
	transport := httpclient.NewTransport()
	transport.ResponseHeaderTimeout = 0

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  DefaultUserAgent,
		logger:     logging.Nop(),
		httpClient: &http.Client{Transport: transport, Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scan asks the service to scan one page
func (c *Client) Scan(ctx context.Context, req ScanRequest) (*scanner.ScanResult, error) {
	if req.Depth == 0 {
		req.Depth = scanner.DefaultDepth
	}
	if req.Timeout == 0 {
		req.Timeout = scanner.DefaultTimeout
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var result scanner.ScanResult
	if err := c.do(ctx, http.MethodPost, "/scan", bytes.NewReader(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches a stored scan result
func (c *Client) Get(ctx context.Context, scanID string) (*scanner.ScanResult, error) {
	var result scanner.ScanResult
	if err := c.do(ctx, http.MethodGet, "/scan/"+url.PathEscape(scanID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health reports the service status
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Healthy is Health reduced to a bool
func (c *Client) Healthy(ctx context.Context) bool {
	status, err := c.Health(ctx)
	if err != nil {
		c.logger.Warn("Scanner service health check failed", "error", err)
		return false
	}
	return status.Status == "healthy"
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Scanner service request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Scanner service response", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&detail); err == nil {
			apiErr.Detail = detail.Detail
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse scanner service response: %w", err)
	}
	return nil
}

// classifyTransportError separates "nobody listening" from slow calls
func classifyTransportError(err error) error {
	if scanner.IsTimeout(err) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("scanner service communication failed: %w", err)
}
