// Package skillmatch is a Go client for the skill extraction API.
package skillmatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultTimeout outlasts the server's default write timeout for a cold request: 52 catalog
// labels plus 20 segments embedded 5s apart, plus two minutes of headroom.
const DefaultTimeout = 10 * time.Minute

// ClientOptions configures the API client
type ClientOptions struct {
	// BaseURL is the API root, e.g. "http://localhost:8080" (required)
	BaseURL string
	// RetryMax is the number of retries on connection errors and 503 (default: 0)
	RetryMax int
	// Timeout is the HTTP client timeout (default: DefaultTimeout)
	Timeout time.Duration
	// HTTPClient replaces the underlying transport client (optional)
	HTTPClient *http.Client
}

// Skill is one matched catalog skill.
type Skill struct {
	Skill   string  `json:"skill"`
	Score   float64 `json:"score"`
	Example string  `json:"example"`
}

// ExtractResponse is the success body of the extract endpoints.
type ExtractResponse struct {
	Skills          []Skill `json:"skills"`
	SegmentsDropped int     `json:"segmentsDropped,omitempty"` //nolint:tagliatelle // API contract
	ResultsDropped  int     `json:"resultsDropped,omitempty"`  //nolint:tagliatelle // API contract
}

// APIError is returned for non-2xx responses. Message and Details come from the error body.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("skillmatch: %d %s (%s)", e.StatusCode, e.Message, e.Details)
	}

	return fmt.Sprintf("skillmatch: %d %s", e.StatusCode, e.Message)
}

// Client is the skill extraction API client
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// NewClient creates a client with default settings
func NewClient(baseURL string) *Client {
	return NewClientWithOptions(ClientOptions{BaseURL: baseURL})
}

// NewClientWithOptions creates a client with custom options
func NewClientWithOptions(opts ClientOptions) *Client {
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")

	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.CheckRetry = checkRetry
	// Hand the last response back after the final retry so its error body can be decoded.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil // Disable logging by default

	if opts.HTTPClient != nil {
		httpClient := *opts.HTTPClient
		retryClient.HTTPClient = &httpClient
	}

	retryClient.HTTPClient.Timeout = opts.Timeout

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: retryClient,
	}
}

// checkRetry retries connection failures and 503 only. Other errors are deterministic: a 500
// from the provider would be repeated and spend more of its rate limit. A timeout after the
// request was sent is not retried either, since the server may still be embedding it.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}

		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return false, nil
		}

		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return resp.StatusCode == http.StatusServiceUnavailable, nil
}

type extractRequest struct {
	Text      string   `json:"text"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// Extract calls POST /v1/extract. A nil threshold uses the server default.
func (c *Client) Extract(ctx context.Context, text string, threshold *float64) (*ExtractResponse, error) {
	body, err := json.Marshal(extractRequest{Text: text, Threshold: threshold})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// ExtractFile calls POST /v1/extract/file with content uploaded under filename.
func (c *Client) ExtractFile(
	ctx context.Context, filename string, content []byte, threshold *float64,
) (*ExtractResponse, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	if threshold != nil {
		if err := writer.WriteField("threshold", strconv.FormatFloat(*threshold, 'f', -1, 64)); err != nil {
			return nil, fmt.Errorf("failed to write threshold: %w", err)
		}
	}

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}

	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract/file", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

func (c *Client) do(req *retryablehttp.Request) (*ExtractResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}

		return nil, apiErr
	}

	var out ExtractResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &out, nil
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError

	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
