package config

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		shouldSet    bool
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			shouldSet:    true,
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    false,
			want:         "default",
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_VAR_EMPTY",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    true,
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		shouldSet    bool
		want         int
	}{
		{
			name:         "returns environment variable as int when set with valid integer",
			key:          "TEST_INT_VAR",
			defaultValue: 100,
			envValue:     "200",
			shouldSet:    true,
			want:         200,
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_INT_VAR_MISSING",
			defaultValue: 100,
			envValue:     "",
			shouldSet:    false,
			want:         100,
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_INT_VAR_EMPTY",
			defaultValue: 100,
			envValue:     "",
			shouldSet:    true,
			want:         100,
		},
		{
			name:         "returns default when environment variable is not a valid integer",
			key:          "TEST_INT_VAR_INVALID",
			defaultValue: 100,
			envValue:     "not_a_number",
			shouldSet:    true,
			want:         100,
		},
		{
			name:         "handles negative integers",
			key:          "TEST_INT_VAR_NEGATIVE",
			defaultValue: 100,
			envValue:     "-50",
			shouldSet:    true,
			want:         -50,
		},
		{
			name:         "handles zero",
			key:          "TEST_INT_VAR_ZERO",
			defaultValue: 100,
			envValue:     "0",
			shouldSet:    true,
			want:         0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		shouldSet bool
		want      float64
	}{
		{name: "parses decimal", envValue: "0.75", shouldSet: true, want: 0.75},
		{name: "default when unset", shouldSet: false, want: 0.5},
		{name: "default when invalid", envValue: "high", shouldSet: true, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv("TEST_FLOAT_VAR", tt.envValue)
			}

			got := getEnvAsFloat("TEST_FLOAT_VAR", 0.5)
			if got != tt.want {
				t.Errorf("getEnvAsFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		shouldSet bool
		want      time.Duration
	}{
		{name: "parses go duration", envValue: "250ms", shouldSet: true, want: 250 * time.Millisecond},
		{name: "bare integer is seconds", envValue: "3", shouldSet: true, want: 3 * time.Second},
		{name: "zero disables", envValue: "0", shouldSet: true, want: 0},
		{name: "default when unset", shouldSet: false, want: 5 * time.Second},
		{name: "default when invalid", envValue: "soon", shouldSet: true, want: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv("TEST_DURATION_VAR", tt.envValue)
			}

			got := getEnvAsDuration("TEST_DURATION_VAR", 5*time.Second)
			if got != tt.want {
				t.Errorf("getEnvAsDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL_VAR", "true")

	if !getEnvAsBool("TEST_BOOL_VAR", false) {
		t.Error("getEnvAsBool() = false, want true")
	}

	t.Setenv("TEST_BOOL_VAR", "maybe")

	if !getEnvAsBool("TEST_BOOL_VAR", true) {
		t.Error("getEnvAsBool() should fall back to default on invalid value")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}

	if cfg.EmbeddingProvider != ProviderGoogle {
		t.Errorf("EmbeddingProvider = %q, want %q", cfg.EmbeddingProvider, ProviderGoogle)
	}

	if cfg.EmbeddingCallDelay != 5*time.Second {
		t.Errorf("EmbeddingCallDelay = %v, want 5s", cfg.EmbeddingCallDelay)
	}

	if cfg.EmbeddingMaxRequestsPerMin != 12 {
		t.Errorf("EmbeddingMaxRequestsPerMin = %d, want 12", cfg.EmbeddingMaxRequestsPerMin)
	}

	if cfg.MaxSegments != 20 || cfg.MinSegmentLength != 10 || cfg.MaxResults != 50 {
		t.Errorf("segment/result limits = %d/%d/%d, want 20/10/50", cfg.MaxSegments, cfg.MinSegmentLength, cfg.MaxResults)
	}

	if cfg.DefaultThreshold != 0.5 {
		t.Errorf("DefaultThreshold = %v, want 0.5", cfg.DefaultThreshold)
	}

	if cfg.EmbeddingResponsePath != "embedding.values" {
		t.Errorf("EmbeddingResponsePath = %q", cfg.EmbeddingResponsePath)
	}

	if cfg.HTTPWriteTimeout != 0 || cfg.ShutdownTimeout != 0 {
		t.Errorf("HTTPWriteTimeout/ShutdownTimeout = %v/%v, want derived (0)", cfg.HTTPWriteTimeout, cfg.ShutdownTimeout)
	}

	if !cfg.SkillCacheWarmup {
		t.Error("SkillCacheWarmup = false, want true by default")
	}

	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false by default")
	}
}

// TestLoad_MissingAPIKeyIsNotFatal cannot use t.Parallel() because it uses t.Setenv (Go restriction).
func TestLoad_MissingAPIKeyIsNotFatal(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}

	if cfg == nil {
		t.Fatal("Load() config = nil, want non-nil config")
	}

	if cfg.EmbeddingAPIKey != "" {
		t.Errorf("EmbeddingAPIKey = %q, want empty", cfg.EmbeddingAPIKey)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "OpenAI")
	t.Setenv("EMBEDDING_CALL_DELAY", "0")
	t.Setenv("MAX_SEGMENTS", "5")
	t.Setenv("DEFAULT_THRESHOLD", "0.3")
	t.Setenv("EMBEDDING_TASK_TYPE", "retrieval_document")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.EmbeddingProvider != ProviderOpenAI {
		t.Errorf("EmbeddingProvider = %q, want openai", cfg.EmbeddingProvider)
	}

	if cfg.EmbeddingCallDelay != 0 {
		t.Errorf("EmbeddingCallDelay = %v, want 0", cfg.EmbeddingCallDelay)
	}

	if cfg.MaxSegments != 5 {
		t.Errorf("MaxSegments = %d, want 5", cfg.MaxSegments)
	}

	if cfg.DefaultThreshold != 0.3 {
		t.Errorf("DefaultThreshold = %v, want 0.3", cfg.DefaultThreshold)
	}

	if cfg.EmbeddingTaskType != "RETRIEVAL_DOCUMENT" {
		t.Errorf("EmbeddingTaskType = %q, want RETRIEVAL_DOCUMENT", cfg.EmbeddingTaskType)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown provider", key: "EMBEDDING_PROVIDER", value: "cohere"},
		{name: "zero max segments", key: "MAX_SEGMENTS", value: "0"},
		{name: "negative min segment length", key: "MIN_SEGMENT_LENGTH", value: "-1"},
		{name: "zero max results", key: "MAX_RESULTS", value: "0"},
		{name: "threshold above one", key: "DEFAULT_THRESHOLD", value: "1.5"},
		{name: "negative threshold", key: "DEFAULT_THRESHOLD", value: "-0.1"},
		{name: "negative dimensions", key: "EMBEDDING_DIMENSIONS", value: "-8"},
		{name: "negative delay", key: "EMBEDDING_CALL_DELAY", value: "-1s"},
		{name: "zero body limit", key: "MAX_REQUEST_BODY_BYTES", value: "0"},
		{name: "negative write timeout", key: "HTTP_WRITE_TIMEOUT", value: "-1m"},
		{name: "negative shutdown timeout", key: "SHUTDOWN_TIMEOUT", value: "-5s"},
		{name: "unknown metrics exporter", key: "OTEL_METRICS_EXPORTER", value: "statsd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() error = nil, want error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestConfig_ExtractionBudget(t *testing.T) {
	const catalogSize = 52

	tests := []struct {
		name      string
		delay     time.Duration
		rpm       int
		segments  int
		wantPace  time.Duration
		wantTotal time.Duration
	}{
		{"defaults", 5 * time.Second, 12, 20, 5 * time.Second, 72*5*time.Second + extractionHeadroom},
		{"limiter slower than delay", time.Second, 6, 20, 10 * time.Second, 72*10*time.Second + extractionHeadroom},
		{"no limiter", 2 * time.Second, 0, 8, 2 * time.Second, 60*2*time.Second + extractionHeadroom},
		{"no pacing", 0, 0, 20, 0, extractionHeadroom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingCallDelay:         tt.delay,
				EmbeddingMaxRequestsPerMin: tt.rpm,
				MaxSegments:                tt.segments,
			}

			if got := cfg.CallPace(); got != tt.wantPace {
				t.Errorf("CallPace() = %v, want %v", got, tt.wantPace)
			}

			if got := cfg.ExtractionBudget(catalogSize); got != tt.wantTotal {
				t.Errorf("ExtractionBudget() = %v, want %v", got, tt.wantTotal)
			}
		})
	}
}

// TestConfig_DefaultTimeoutsCoverColdRequest cannot use t.Parallel() because it uses t.Setenv.
func TestConfig_DefaultTimeoutsCoverColdRequest(t *testing.T) {
	t.Setenv("HTTP_WRITE_TIMEOUT", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	const catalogSize = 52

	coldRequest := time.Duration(catalogSize+cfg.MaxSegments) * cfg.EmbeddingCallDelay

	if got := cfg.ResolvedWriteTimeout(catalogSize); got <= coldRequest {
		t.Errorf("ResolvedWriteTimeout() = %v, want more than %v", got, coldRequest)
	}

	if got := cfg.ResolvedShutdownTimeout(catalogSize); got <= coldRequest {
		t.Errorf("ResolvedShutdownTimeout() = %v, want more than %v", got, coldRequest)
	}
}

// TestConfig_ExplicitTimeoutsWin cannot use t.Parallel() because it uses t.Setenv.
func TestConfig_ExplicitTimeoutsWin(t *testing.T) {
	t.Setenv("HTTP_WRITE_TIMEOUT", "90s")
	t.Setenv("SHUTDOWN_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.ResolvedWriteTimeout(52); got != 90*time.Second {
		t.Errorf("ResolvedWriteTimeout() = %v, want 90s", got)
	}

	if got := cfg.ResolvedShutdownTimeout(52); got != 45*time.Second {
		t.Errorf("ResolvedShutdownTimeout() = %v, want 45s", got)
	}
}
