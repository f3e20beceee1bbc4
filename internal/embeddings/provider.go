package embeddings

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/formbricks/skillmatch/internal/config"
	"github.com/formbricks/skillmatch/internal/googleai"
	"github.com/formbricks/skillmatch/internal/httpembed"
	"github.com/formbricks/skillmatch/internal/openai"
)

// mockModel names the deterministic offline embedder in cache keys.
const mockModel = "sha256"

var errUnsupportedProvider = errors.New("unsupported embedding provider")

// ProviderClient is a configured Client plus the identity used to key cached vectors.
type ProviderClient struct {
	Client   Client
	Provider string
	Model    string
}

// NewClientFromConfig builds the Client selected by EMBEDDING_PROVIDER. Outbound requests are
// traced through otelhttp and bounded by EMBEDDING_REQUEST_TIMEOUT.
//
// Missing credentials or endpoint yield a *apperrors.ConfigurationError together with a
// ProviderClient whose Client is nil; callers may keep serving and fail each extraction.
func NewClientFromConfig(ctx context.Context, cfg *config.Config) (ProviderClient, error) {
	httpClient := &http.Client{
		Timeout:   cfg.EmbeddingRequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	pc := ProviderClient{Provider: cfg.EmbeddingProvider, Model: cfg.EmbeddingModel}

	switch cfg.EmbeddingProvider {
	case config.ProviderGoogle:
		if pc.Model == "" {
			pc.Model = googleai.DefaultModel
		}

		opts := []googleai.ClientOption{
			googleai.WithModel(pc.Model),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
			googleai.WithHTTPClient(httpClient),
		}
		if cfg.EmbeddingTaskType != "" {
			opts = append(opts, googleai.WithTaskType(cfg.EmbeddingTaskType))
		}

		client, err := googleai.NewClient(ctx, cfg.EmbeddingAPIKey, opts...)
		if err != nil {
			return pc, fmt.Errorf("create google embedding client: %w", err)
		}

		pc.Client = client
	case config.ProviderOpenAI:
		if pc.Model == "" {
			pc.Model = openai.DefaultModel
		}

		client, err := openai.NewClient(cfg.EmbeddingAPIKey,
			openai.WithModel(pc.Model),
			openai.WithDimensions(cfg.EmbeddingDimensions),
			openai.WithHTTPClient(httpClient),
		)
		if err != nil {
			return pc, fmt.Errorf("create openai embedding client: %w", err)
		}

		pc.Client = client
	case config.ProviderHTTP:
		if pc.Model == "" {
			pc.Model = cfg.EmbeddingEndpointURL
		}

		client, err := httpembed.NewClient(cfg.EmbeddingEndpointURL, cfg.EmbeddingAPIKey,
			httpembed.WithResponsePath(cfg.EmbeddingResponsePath),
			httpembed.WithInputField(cfg.EmbeddingInputField),
			httpembed.WithAPIKeyHeader(cfg.EmbeddingAPIKeyHeader),
			httpembed.WithHTTPClient(httpClient),
		)
		if err != nil {
			return pc, fmt.Errorf("create http embedding client: %w", err)
		}

		pc.Client = client
	case config.ProviderMock:
		pc.Model = mockModel
		if cfg.EmbeddingDimensions > 0 {
			pc.Client = NewMockClientWithDimensions(cfg.EmbeddingDimensions)
		} else {
			pc.Client = NewMockClient()
		}
	default:
		return pc, fmt.Errorf("%w: %q", errUnsupportedProvider, cfg.EmbeddingProvider)
	}

	return pc, nil
}
