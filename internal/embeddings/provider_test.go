package embeddings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/skillmatch/internal/apperrors"
	"github.com/formbricks/skillmatch/internal/config"
	"github.com/formbricks/skillmatch/internal/googleai"
	"github.com/formbricks/skillmatch/internal/openai"
)

func TestNewClientFromConfig(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.Config
		expectedModel string
		expectClient  bool
		expectConfig  bool
	}{
		{
			name:          "google with key",
			cfg:           config.Config{EmbeddingProvider: config.ProviderGoogle, EmbeddingAPIKey: "key"},
			expectedModel: googleai.DefaultModel,
			expectClient:  true,
		},
		{
			name:          "google without key",
			cfg:           config.Config{EmbeddingProvider: config.ProviderGoogle},
			expectedModel: googleai.DefaultModel,
			expectConfig:  true,
		},
		{
			name: "openai with explicit model",
			cfg: config.Config{
				EmbeddingProvider: config.ProviderOpenAI,
				EmbeddingAPIKey:   "key",
				EmbeddingModel:    "text-embedding-3-large",
			},
			expectedModel: "text-embedding-3-large",
			expectClient:  true,
		},
		{
			name:          "openai without key",
			cfg:           config.Config{EmbeddingProvider: config.ProviderOpenAI},
			expectedModel: openai.DefaultModel,
			expectConfig:  true,
		},
		{
			name: "http keys cache by endpoint",
			cfg: config.Config{
				EmbeddingProvider:    config.ProviderHTTP,
				EmbeddingAPIKey:      "key",
				EmbeddingEndpointURL: "https://embed.internal/v1/embed",
			},
			expectedModel: "https://embed.internal/v1/embed",
			expectClient:  true,
		},
		{
			name:          "http without endpoint",
			cfg:           config.Config{EmbeddingProvider: config.ProviderHTTP, EmbeddingAPIKey: "key"},
			expectConfig:  true,
			expectedModel: "",
		},
		{
			name:          "mock needs no credentials",
			cfg:           config.Config{EmbeddingProvider: config.ProviderMock},
			expectedModel: mockModel,
			expectClient:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.EmbeddingRequestTimeout = time.Second

			pc, err := NewClientFromConfig(context.Background(), &tt.cfg)

			if tt.expectConfig {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrConfiguration)
				assert.Nil(t, pc.Client)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.expectClient, pc.Client != nil)
			assert.Equal(t, tt.cfg.EmbeddingProvider, pc.Provider)
			assert.Equal(t, tt.expectedModel, pc.Model)
		})
	}
}

func TestNewClientFromConfig_UnsupportedProvider(t *testing.T) {
	_, err := NewClientFromConfig(context.Background(), &config.Config{EmbeddingProvider: "cohere"})

	require.Error(t, err)
	assert.ErrorIs(t, err, errUnsupportedProvider)
	assert.NotErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestNewClientFromConfig_MockDimensions(t *testing.T) {
	pc, err := NewClientFromConfig(context.Background(), &config.Config{
		EmbeddingProvider:   config.ProviderMock,
		EmbeddingDimensions: 16,
	})
	require.NoError(t, err)

	vec, err := pc.Client.CreateEmbedding(context.Background(), "Go")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
}
