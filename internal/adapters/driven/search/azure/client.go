// Package azure provides a search backend adapter for Azure AI Search
// (and services exposing the same REST API).
package azure

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

	"golang.org/x/time/rate"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.SearchBackend = (*Client)(nil)

// Default configuration values.
const (
	DefaultAPIVersion = "2023-11-01"
	DefaultTimeout    = 30 * time.Second
	DefaultBurst      = 5
)

// Config holds configuration for the search client.
type Config struct {
	// Endpoint is the service URL, e.g. https://<service>.search.windows.net (required).
	Endpoint string

	// APIKey is the admin key (required).
	APIKey string

	// APIVersion is sent as the api-version query parameter (default: 2023-11-01).
	APIVersion string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the search service REST API. It never retries.
type Client struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	apiVersion string
	limiter    *rate.Limiter
}

// errorResponse is the error body returned by the service.
type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a new search client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, &domain.ConfigurationError{Field: "search.endpoint", Reason: "endpoint is required"}
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, &domain.ConfigurationError{Field: "search.endpoint", Reason: "invalid URL: " + err.Error()}
	}
	if cfg.APIKey == "" {
		return nil, &domain.ConfigurationError{Field: "search.api_key", Reason: "API key is required"}
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		client:     httpClient,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), DefaultBurst)
	}
	return c, nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

// do sends one request and reads the whole response body.
// body is JSON-encoded when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.endpoint + path + "?api-version=" + url.QueryEscape(c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// errorDetail returns the service's error.message, or the status text.
func errorDetail(r *response) string {
	var e errorResponse
	if err := json.Unmarshal(r.body, &e); err == nil && e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return http.StatusText(r.status)
}

// statusError builds an error for a non-success response.
func statusError(op string, r *response) error {
	return fmt.Errorf("%s: status %d: %s", op, r.status, errorDetail(r))
}

func indexPath(name string) string {
	return "/indexes/" + url.PathEscape(name)
}
