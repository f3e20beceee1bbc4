// Package openai provides a thin wrapper around the official OpenAI Go SDK for embeddings.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/formbricks/skillmatch/internal/apperrors"
)

// ProviderName identifies this backend in errors, logs, and cache keys.
const ProviderName = "openai"

// DefaultModel is used when no model is configured.
const DefaultModel = openaisdk.EmbeddingModelTextEmbedding3Small

var (
	// ErrEmptyInput is returned when CreateEmbedding is called with empty input.
	ErrEmptyInput = errors.New("openai: input text is empty")
	// ErrInvalidDims is returned when dimensions is negative.
	ErrInvalidDims = errors.New("openai: embedding dimensions must not be negative")
)

// Client calls the OpenAI embeddings API via the official SDK.
type Client struct {
	sdk        openaisdk.Client
	model      string
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

// WithModel sets the embedding model. Empty uses DefaultModel.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
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

// NewClient creates an OpenAI embeddings client using the official SDK.
// An empty apiKey yields a ConfigurationError. SDK retries are disabled; a failed call fails
// the request.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.NewConfigurationError("EMBEDDING_PROVIDER_API_KEY must be set for provider " + ProviderName)
	}

	client := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(client)
	}

	if client.model == "" {
		client.model = DefaultModel
	}

	if client.dimensions < 0 {
		return nil, ErrInvalidDims
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if client.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(client.baseURL))
	}

	if client.httpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(client.httpClient))
	}

	client.sdk = openaisdk.NewClient(sdkOpts...)

	return client, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// CreateEmbedding returns the embedding vector for the given text.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(input),
		},
		Model: c.model,
	}
	if c.dimensions > 0 {
		params.Dimensions = param.NewOpt(int64(c.dimensions))
	}

	resp, err := c.sdk.Embeddings.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}

	if len(resp.Data) == 0 {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName, "no embedding in response")
	}

	emb := resp.Data[0].Embedding
	if len(emb) == 0 {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName, "embedding has no values")
	}

	if c.dimensions > 0 && len(emb) != c.dimensions {
		return nil, apperrors.NewProviderResponseShapeError(ProviderName,
			fmt.Sprintf("embedding dimension mismatch: got %d, want %d", len(emb), c.dimensions))
	}

	out := make([]float32, len(emb))
	for i := range emb {
		out[i] = float32(emb[i])
	}

	return out, nil
}

// mapError converts SDK errors into ProviderRequestError, keeping the raw API payload as detail.
func mapError(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if body == "" {
			body = apiErr.Message
		}

		return apperrors.NewProviderRequestError(ProviderName, apiErr.StatusCode, body, err)
	}

	return apperrors.NewProviderRequestError(ProviderName, 0, "", err)
}
