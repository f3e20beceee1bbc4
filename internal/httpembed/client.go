// Package httpembed calls a generic JSON embedding endpoint: the text goes in a single request
// field and the vector is read from a configurable gjson path in the response.
package httpembed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/formbricks/skillmatch/internal/apperrors"
)

// ProviderName identifies this backend in errors, logs, and cache keys.
const ProviderName = "http"

const (
	// DefaultResponsePath matches the Gemini embedContent response shape.
	DefaultResponsePath = "embedding.values"
	// DefaultInputField is the request body field carrying the text.
	DefaultInputField = "text"
	// DefaultAPIKeyHeader carries the API key as a bearer token.
	DefaultAPIKeyHeader = "Authorization"

	defaultTimeout  = 30 * time.Second
	maxResponseBody = 4 << 20
	maxErrorBody    = 8 << 10
)

// ErrEmptyInput is returned when CreateEmbedding is called with empty input.
var ErrEmptyInput = errors.New("httpembed: input text is empty")

// Client posts one text per request to an embedding endpoint.
type Client struct {
	endpoint     string
	apiKey       string
	apiKeyHeader string
	inputField   string
	responsePath string
	httpClient   *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithResponsePath sets the gjson path of the vector in the response body (e.g. data.0.embedding).
func WithResponsePath(path string) ClientOption {
	return func(c *Client) {
		c.responsePath = path
	}
}

// WithInputField sets the request body field that carries the text.
func WithInputField(field string) ClientOption {
	return func(c *Client) {
		c.inputField = field
	}
}

// WithAPIKeyHeader sets the header carrying the API key. "Authorization" sends a bearer token;
// any other header receives the raw key.
func WithAPIKeyHeader(header string) ClientOption {
	return func(c *Client) {
		c.apiKeyHeader = header
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for endpoint. Missing endpoint or apiKey yields a ConfigurationError.
func NewClient(endpoint, apiKey string, opts ...ClientOption) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, apperrors.NewConfigurationError("EMBEDDING_ENDPOINT_URL must be set for provider " + ProviderName)
	}

	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.NewConfigurationError("EMBEDDING_PROVIDER_API_KEY must be set for provider " + ProviderName)
	}

	c := &Client{
		endpoint:     endpoint,
		apiKey:       apiKey,
		apiKeyHeader: DefaultAPIKeyHeader,
		inputField:   DefaultInputField,
		responsePath: DefaultResponsePath,
		httpClient:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.responsePath == "" {
		c.responsePath = DefaultResponsePath
	}

	if c.inputField == "" {
		c.inputField = DefaultInputField
	}

	if c.apiKeyHeader == "" {
		c.apiKeyHeader = DefaultAPIKeyHeader
	}

	return c, nil
}

// CreateEmbedding posts input and returns the vector found at the response path.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	payload, err := json.Marshal(map[string]string{c.inputField: input})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid EMBEDDING_ENDPOINT_URL: " + err.Error())
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewProviderRequestError(ProviderName, 0, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, apperrors.NewProviderRequestError(ProviderName, resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, apperrors.NewProviderRequestError(ProviderName, 0, "", fmt.Errorf("read response: %w", err))
	}

	return ExtractVector(body, c.responsePath)
}

func (c *Client) setAuthHeader(req *http.Request) {
	if strings.EqualFold(c.apiKeyHeader, "Authorization") {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		return
	}

	req.Header.Set(c.apiKeyHeader, c.apiKey)
}

// ExtractVector reads a non-empty array of numbers at path from a JSON body.
func ExtractVector(body []byte, path string) ([]float32, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName, "response is not valid JSON")
	}

	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName, fmt.Sprintf("no value at %q", path))
	}

	if !result.IsArray() {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName, fmt.Sprintf("value at %q is not an array", path))
	}

	items := result.Array()
	if len(items) == 0 {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName, fmt.Sprintf("array at %q is empty", path))
	}

	vector := make([]float32, len(items))
	for i, item := range items {
		if item.Type != gjson.Number {
			return nil, apperrors.NewProviderResponseShapeError(ProviderName,
				fmt.Sprintf("element %d at %q is not a number", i, path))
		}

		vector[i] = float32(item.Float())
	}

	return vector, nil
}
