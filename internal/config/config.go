// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Embedding provider names accepted in EMBEDDING_PROVIDER.
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
	ProviderMock   = "mock"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	LogLevel string
	// LogFormat is "text" or "json".
	LogFormat string

	// Embedding provider
	EmbeddingProvider          string
	EmbeddingModel             string
	EmbeddingAPIKey            string
	EmbeddingEndpointURL       string
	EmbeddingResponsePath      string
	EmbeddingInputField        string
	EmbeddingAPIKeyHeader      string
	EmbeddingTaskType          string
	EmbeddingDimensions        int
	EmbeddingCallDelay         time.Duration
	EmbeddingMaxRequestsPerMin int
	EmbeddingRequestTimeout    time.Duration

	// Extraction pipeline
	MaxSegments      int
	MinSegmentLength int
	MaxResults       int
	DefaultThreshold float64
	MinTextLength    int
	SkillCatalogPath string

	// SkillCacheWarmup embeds the catalog in the background at startup.
	SkillCacheWarmup bool

	// HTTP server
	MaxRequestBodyBytes int64
	HTTPReadTimeout     time.Duration
	// HTTPWriteTimeout and ShutdownTimeout of zero are derived from ExtractionBudget.
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration

	// Observability
	MetricsEnabled      bool
	OtelMetricsExporter string
	OtelTracesExporter  string
	// OtelTracesSampler and OtelTracesSamplerArg follow the standard OTEL_TRACES_SAMPLER values.
	OtelTracesSampler    string
	OtelTracesSamplerArg string
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool retrieves an environment variable as a bool or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration parses a Go duration ("5s", "250ms"). A bare integer is read as seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// Load reads configuration from environment variables and returns a Config struct.
// It automatically loads .env file if it exists.
// Returns default values for any missing environment variables. Provider credentials are not
// required here; a missing key surfaces as a configuration error on the first extraction.
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets/parameter store).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		EmbeddingProvider:          strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderGoogle)),
		EmbeddingModel:             os.Getenv("EMBEDDING_MODEL"),
		EmbeddingAPIKey:            os.Getenv("EMBEDDING_PROVIDER_API_KEY"),
		EmbeddingEndpointURL:       os.Getenv("EMBEDDING_ENDPOINT_URL"),
		EmbeddingResponsePath:      getEnv("EMBEDDING_RESPONSE_PATH", "embedding.values"),
		EmbeddingInputField:        getEnv("EMBEDDING_INPUT_FIELD", "text"),
		EmbeddingAPIKeyHeader:      getEnv("EMBEDDING_API_KEY_HEADER", "Authorization"),
		EmbeddingTaskType:          strings.ToUpper(os.Getenv("EMBEDDING_TASK_TYPE")),
		EmbeddingDimensions:        getEnvAsInt("EMBEDDING_DIMENSIONS", 0),
		EmbeddingCallDelay:         getEnvAsDuration("EMBEDDING_CALL_DELAY", 5*time.Second),
		EmbeddingMaxRequestsPerMin: getEnvAsInt("EMBEDDING_MAX_REQUESTS_PER_MINUTE", 12),
		EmbeddingRequestTimeout:    getEnvAsDuration("EMBEDDING_REQUEST_TIMEOUT", 30*time.Second),

		MaxSegments:      getEnvAsInt("MAX_SEGMENTS", 20),
		MinSegmentLength: getEnvAsInt("MIN_SEGMENT_LENGTH", 10),
		MaxResults:       getEnvAsInt("MAX_RESULTS", 50),
		DefaultThreshold: getEnvAsFloat("DEFAULT_THRESHOLD", 0.5),
		MinTextLength:    getEnvAsInt("MIN_TEXT_LENGTH", 10),
		SkillCatalogPath: os.Getenv("SKILL_CATALOG_PATH"),
		SkillCacheWarmup: getEnvAsBool("SKILL_CACHE_WARMUP", true),

		MaxRequestBodyBytes: int64(getEnvAsInt("MAX_REQUEST_BODY_BYTES", 10<<20)),
		HTTPReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 0),
		ShutdownTimeout:     getEnvAsDuration("SHUTDOWN_TIMEOUT", 0),

		MetricsEnabled:      getEnvAsBool("METRICS_ENABLED", false),
		OtelMetricsExporter: strings.ToLower(getEnv("OTEL_METRICS_EXPORTER", "prometheus")),
		OtelTracesExporter:  strings.ToLower(os.Getenv("OTEL_TRACES_EXPORTER")),

		OtelTracesSampler:    os.Getenv("OTEL_TRACES_SAMPLER"),
		OtelTracesSamplerArg: os.Getenv("OTEL_TRACES_SAMPLER_ARG"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractionHeadroom covers provider latency and response encoding on top of call pacing.
const extractionHeadroom = 2 * time.Minute

// CallPace is the minimum spacing between consecutive provider calls: the larger of
// EMBEDDING_CALL_DELAY and the interval implied by EMBEDDING_MAX_REQUESTS_PER_MINUTE.
func (c *Config) CallPace() time.Duration {
	pace := c.EmbeddingCallDelay

	if c.EmbeddingMaxRequestsPerMin > 0 {
		pace = max(pace, time.Minute/time.Duration(c.EmbeddingMaxRequestsPerMin))
	}

	return pace
}

// ExtractionBudget is how long one request may take on a cold cache: every catalog label
// plus MaxSegments segments embedded at CallPace, plus headroom.
func (c *Config) ExtractionBudget(catalogSize int) time.Duration {
	calls := catalogSize + c.MaxSegments

	return time.Duration(calls)*c.CallPace() + extractionHeadroom
}

// ResolvedWriteTimeout returns HTTPWriteTimeout, or ExtractionBudget when it is unset.
func (c *Config) ResolvedWriteTimeout(catalogSize int) time.Duration {
	if c.HTTPWriteTimeout > 0 {
		return c.HTTPWriteTimeout
	}

	return c.ExtractionBudget(catalogSize)
}

// ResolvedShutdownTimeout returns ShutdownTimeout, or ExtractionBudget when it is unset, so
// in-flight extractions can finish on SIGTERM.
func (c *Config) ResolvedShutdownTimeout(catalogSize int) time.Duration {
	if c.ShutdownTimeout > 0 {
		return c.ShutdownTimeout
	}

	return c.ExtractionBudget(catalogSize)
}

func (c *Config) validate() error {
	switch c.EmbeddingProvider {
	case ProviderGoogle, ProviderOpenAI, ProviderHTTP, ProviderMock:
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be one of google, openai, http, mock; got %q", c.EmbeddingProvider)
	}

	if c.MaxSegments <= 0 {
		return errors.New("MAX_SEGMENTS must be a positive integer")
	}

	if c.MinSegmentLength < 0 {
		return errors.New("MIN_SEGMENT_LENGTH must not be negative")
	}

	if c.MaxResults <= 0 {
		return errors.New("MAX_RESULTS must be a positive integer")
	}

	if c.DefaultThreshold < 0 || c.DefaultThreshold > 1 {
		return errors.New("DEFAULT_THRESHOLD must be between 0 and 1")
	}

	if c.EmbeddingDimensions < 0 {
		return errors.New("EMBEDDING_DIMENSIONS must not be negative")
	}

	if c.EmbeddingCallDelay < 0 {
		return errors.New("EMBEDDING_CALL_DELAY must not be negative")
	}

	if c.HTTPWriteTimeout < 0 || c.ShutdownTimeout < 0 {
		return errors.New("HTTP_WRITE_TIMEOUT and SHUTDOWN_TIMEOUT must not be negative")
	}

	if c.MaxRequestBodyBytes <= 0 {
		return errors.New("MAX_REQUEST_BODY_BYTES must be a positive integer")
	}

	switch c.OtelMetricsExporter {
	case "prometheus", "otlp":
	default:
		return fmt.Errorf("OTEL_METRICS_EXPORTER must be prometheus or otlp; got %q", c.OtelMetricsExporter)
	}

	return nil
}
