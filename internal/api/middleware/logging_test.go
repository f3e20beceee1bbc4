package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel string
	}{
		{"success logs at info", http.StatusOK, "INFO"},
		{"client error logs at info", http.StatusBadRequest, "INFO"},
		{"server error logs at error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			handler := Logging(LoggingConfig{Logger: newJSONLogger(&buf)})(
				http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte("body"))
				}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/extract", nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.expectedLevel, entry["level"])
			assert.Equal(t, "http request", entry["msg"])
			assert.Equal(t, "/v1/extract", entry["path"])
			assert.InDelta(t, float64(tt.status), entry["status"], 0)
			assert.InDelta(t, 4, entry["bytes"], 0)
		})
	}
}

func TestLogging_SlowRequestWarns(t *testing.T) {
	var buf bytes.Buffer

	handler := Logging(LoggingConfig{Logger: newJSONLogger(&buf), SlowRequestThreshold: 1})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/extract", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
}

func TestLogging_Skip(t *testing.T) {
	var buf bytes.Buffer

	handler := Logging(LoggingConfig{Logger: newJSONLogger(&buf), Skip: SkipPaths("/health", "/metrics")})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, buf.String())
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	rw := newStatusRecorder(httptest.NewRecorder())
	_, err := rw.Write([]byte("hi"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rw.status)
	assert.Equal(t, int64(2), rw.bytes)
}
