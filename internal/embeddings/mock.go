package embeddings

import (
	"context"
	"crypto/sha256"
	"errors"

	"github.com/formbricks/skillmatch/pkg/embeddings"
)

// ErrEmptyInput is returned by MockClient for blank input.
var ErrEmptyInput = errors.New("embeddings: input text is empty")

// MockClient implements the Client interface for testing and offline runs.
// It generates deterministic unit vectors based on the input text hash.
type MockClient struct {
	dimensions int
}

// NewMockClient creates a new mock embedding client with 768 dimensions.
func NewMockClient() *MockClient {
	return &MockClient{dimensions: 768}
}

// NewMockClientWithDimensions creates a mock client with custom dimensions.
func NewMockClientWithDimensions(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// CreateEmbedding generates a deterministic embedding based on the text hash.
// Equal texts always map to equal vectors.
func (c *MockClient) CreateEmbedding(_ context.Context, input string) ([]float32, error) {
	if input == "" {
		return nil, ErrEmptyInput
	}

	hash := sha256.Sum256([]byte(input))
	vector := make([]float32, c.dimensions)

	for i := range vector {
		// Map hash bytes cyclically into [-1, 1].
		vector[i] = (float32(hash[i%len(hash)]) / 127.5) - 1.0
	}

	embeddings.NormalizeL2(vector)

	return vector, nil
}

var _ Client = (*MockClient)(nil)
