package httpembed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/skillmatch/internal/apperrors"
)

func TestNewClient_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		apiKey   string
	}{
		{name: "missing endpoint", endpoint: "", apiKey: "key"},
		{name: "missing key", endpoint: "http://localhost", apiKey: " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.endpoint, tt.apiKey)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}
}

func TestClient_CreateEmbedding_Success(t *testing.T) {
	var gotBody map[string]string

	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_, _ = w.Write([]byte(`{"embedding":{"values":[1,0.5,-0.25]}}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "secret", WithHTTPClient(server.Client()))
	require.NoError(t, err)

	vec, err := client.CreateEmbedding(context.Background(), "Designed PostgreSQL schemas.")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0.5, -0.25}, vec)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, map[string]string{"text": "Designed PostgreSQL schemas."}, gotBody)
}

func TestClient_CreateEmbedding_CustomFieldAndHeader(t *testing.T) {
	var gotBody map[string]string

	var gotKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2]}]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "secret",
		WithInputField("input"),
		WithResponsePath("data.0.embedding"),
		WithAPIKeyHeader("X-Api-Key"),
	)
	require.NoError(t, err)

	vec, err := client.CreateEmbedding(context.Background(), "Scrum")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "Scrum", gotBody["input"])
}

func TestClient_CreateEmbedding_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Resource has been exhausted"}}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "secret")
	require.NoError(t, err)

	_, err = client.CreateEmbedding(context.Background(), "Terraform")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrProviderRequest)

	var reqErr *apperrors.ProviderRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusTooManyRequests, reqErr.StatusCode)
	assert.Equal(t, `{"error":{"message":"Resource has been exhausted"}}`, apperrors.Details(err))
}

func TestClient_CreateEmbedding_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(url, "secret")
	require.NoError(t, err)

	_, err = client.CreateEmbedding(context.Background(), "Terraform")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrProviderRequest)
}

func TestClient_CreateEmbedding_EmptyInput(t *testing.T) {
	client, err := NewClient("http://localhost", "secret")
	require.NoError(t, err)

	_, err = client.CreateEmbedding(context.Background(), "\n\t")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestExtractVector(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		path    string
		want    []float32
		wantErr bool
	}{
		{name: "nested path", body: `{"embedding":{"values":[1,2]}}`, path: "embedding.values", want: []float32{1, 2}},
		{name: "array index", body: `[[0.5,0.5]]`, path: "0", want: []float32{0.5, 0.5}},
		{name: "missing path", body: `{"other":[1]}`, path: "embedding.values", wantErr: true},
		{name: "not an array", body: `{"embedding":{"values":"x"}}`, path: "embedding.values", wantErr: true},
		{name: "empty array", body: `{"embedding":{"values":[]}}`, path: "embedding.values", wantErr: true},
		{name: "non-numeric element", body: `{"embedding":{"values":[1,"2"]}}`, path: "embedding.values", wantErr: true},
		{name: "invalid json", body: `{"embedding":`, path: "embedding.values", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVector([]byte(tt.body), tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrProviderResponseShape)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
