package googleai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/skillmatch/internal/apperrors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]ClientOption{WithBaseURL(server.URL), WithHTTPClient(server.Client())}, opts...)

	client, err := NewClient(context.Background(), "test-key", opts...)
	require.NoError(t, err)

	return client
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestNewClient_InvalidDimensions(t *testing.T) {
	_, err := NewClient(context.Background(), "key", WithDimensions(-1))
	assert.ErrorIs(t, err, ErrInvalidDims)
}

func TestNewClient_EmptyModelUsesDefault(t *testing.T) {
	client, err := NewClient(context.Background(), "key", WithModel(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, client.Model())
}

func TestClient_CreateEmbedding_Success(t *testing.T) {
	var gotPath, gotKey string

	var gotBody map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.1,0.2,0.3]}]}`))
	}, WithDimensions(3))

	vec, err := client.CreateEmbedding(context.Background(), "  Built REST APIs in Go.  ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	assert.True(t, strings.HasSuffix(gotPath, DefaultModel+":batchEmbedContents"), gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, mustJSON(t, gotBody), "Built REST APIs in Go.")
	assert.Contains(t, mustJSON(t, gotBody), DefaultTaskType)
}

func TestClient_CreateEmbedding_TaskType(t *testing.T) {
	var gotBody map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[1,0]}]}`))
	}, WithTaskType("CLUSTERING"))

	_, err := client.CreateEmbedding(context.Background(), "Led a team of five.")
	require.NoError(t, err)

	body := mustJSON(t, gotBody)
	assert.Contains(t, body, "CLUSTERING")
	assert.NotContains(t, body, DefaultTaskType)
}

func TestClient_CreateEmbedding_EmptyInput(t *testing.T) {
	client, err := NewClient(context.Background(), "key")
	require.NoError(t, err)

	_, err = client.CreateEmbedding(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestClient_CreateEmbedding_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := client.CreateEmbedding(context.Background(), "Led a team of engineers.")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrProviderRequest)

	var reqErr *apperrors.ProviderRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "API key not valid", apperrors.Details(err))
}

func TestClient_CreateEmbedding_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		opts []ClientOption
	}{
		{name: "no embeddings", body: `{"embeddings":[]}`},
		{name: "empty values", body: `{"embeddings":[{"values":[]}]}`},
		{name: "dimension mismatch", body: `{"embeddings":[{"values":[1,2]}]}`, opts: []ClientOption{WithDimensions(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}, tt.opts...)

			_, err := client.CreateEmbedding(context.Background(), "Managed cloud infrastructure.")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrProviderResponseShape)
		})
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return string(b)
}
