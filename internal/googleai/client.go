// Package googleai provides a thin wrapper around the Google Gen AI SDK for embeddings (Gemini API).
package googleai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/formbricks/skillmatch/internal/apperrors"
)

// ProviderName identifies this backend in errors, logs, and cache keys.
const ProviderName = "google"

var (
	// ErrEmptyInput is returned when CreateEmbedding is called with empty input.
	ErrEmptyInput = errors.New("googleai: input text is empty")
	// ErrInvalidDims is returned when dimensions is negative or too large.
	ErrInvalidDims = errors.New("googleai: embedding dimensions out of range")
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-embedding-001"
	// DefaultTaskType tunes embeddings for comparing texts against each other.
	DefaultTaskType = "SEMANTIC_SIMILARITY"
)

// Client calls the Gemini embeddings API via the Google Gen AI SDK.
type Client struct {
	client     *genai.Client
	model      string
	taskType   string
	dimensions int
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithDimensions requests a reduced output dimensionality. Zero keeps the model default.
func WithDimensions(dim int) ClientOption {
	return func(c *Client) {
		c.dimensions = dim
	}
}

// WithModel sets the embedding model name (e.g. gemini-embedding-001). Empty uses default.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithTaskType sets the Gemini task type hint. Empty omits it.
func WithTaskType(taskType string) ClientOption {
	return func(c *Client) {
		c.taskType = taskType
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Gemini embeddings client. An empty apiKey yields a ConfigurationError.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.NewConfigurationError("EMBEDDING_PROVIDER_API_KEY must be set for provider " + ProviderName)
	}

	client := &Client{
		model:    DefaultModel,
		taskType: DefaultTaskType,
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.model == "" {
		client.model = DefaultModel
	}

	if client.dimensions < 0 || client.dimensions > math.MaxInt32 {
		return nil, ErrInvalidDims
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: client.httpClient,
	}
	if client.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: client.baseURL}
	}

	genaiClient, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("googleai client: %w", err)
	}

	client.client = genaiClient

	return client, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// CreateEmbedding returns the embedding vector for the given text using the configured model.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	embedCfg := &genai.EmbedContentConfig{TaskType: c.taskType}
	if c.dimensions > 0 {
		//nolint:gosec // G115: c.dimensions is bounded above by math.MaxInt32 in NewClient
		dimInt32 := int32(c.dimensions)
		embedCfg.OutputDimensionality = &dimInt32
	}

	contents := []*genai.Content{genai.NewContentFromText(input, genai.RoleUser)}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, contents, embedCfg)
	if err != nil {
		return nil, mapError(err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName, "no embedding in response")
	}

	emb := resp.Embeddings[0].Values
	if len(emb) == 0 {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName, "embedding has no values")
	}

	if c.dimensions > 0 && len(emb) != c.dimensions {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName,
			fmt.Sprintf("embedding dimension mismatch: got %d, want %d", len(emb), c.dimensions))
	}

	out := make([]float32, len(emb))
	copy(out, emb)

	return out, nil
}

// mapError converts SDK errors into ProviderRequestError, keeping the API message as detail.
func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.NewProviderRequestError(ProviderName, apiErr.Code, apiErr.Message, err)
	}

	return apperrors.NewProviderRequestError(ProviderName, 0, "", err)
}
