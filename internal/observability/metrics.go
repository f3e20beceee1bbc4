package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	prometheusexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	meterScope           = "github.com/formbricks/skillmatch/internal/observability"
	cardinalityLimit     = 2000
	metricExportInterval = 60 * time.Second

	// ExporterPrometheus serves metrics for scraping at /metrics.
	ExporterPrometheus = "prometheus"
	// ExporterOTLP pushes metrics to OTEL_EXPORTER_OTLP_ENDPOINT.
	ExporterOTLP = "otlp"
)

// latencyHistogramBoundaries are request-scale buckets (seconds).
var latencyHistogramBoundaries = []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5}

// extractionHistogramBoundaries cover batches paced seconds apart (up to 20 calls at 5s).
var extractionHistogramBoundaries = []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300}

// Metrics is the single metrics interface for the API (HTTP, provider, cache, extraction).
// Call sites accept nil when metrics are disabled.
type Metrics interface {
	RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration)
	RecordProviderCall(ctx context.Context, provider, outcome string, duration time.Duration)
	RecordCacheLookup(ctx context.Context, cacheName string, hit bool)
	RecordExtraction(ctx context.Context, outcome string, skills int, duration time.Duration)
	RecordTruncation(ctx context.Context, kind string, dropped int)
}

// MeterProviderShutdown is the subset of the SDK MeterProvider needed for shutdown.
type MeterProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// MeterProviderConfig holds configuration for creating the MeterProvider and metrics.
type MeterProviderConfig struct {
	// ServiceName is used in the resource (default: skillmatch-api).
	ServiceName string
	// Exporter is "prometheus" (default) or "otlp".
	Exporter string
}

// NewMeterProvider creates a MeterProvider and the Metrics recorded through it.
// With the Prometheus exporter the returned handler serves /metrics; with OTLP it is nil.
// Caller must call provider.Shutdown on exit.
func NewMeterProvider(
	ctx context.Context, cfg MeterProviderConfig,
) (provider MeterProviderShutdown, metricsHandler http.Handler, metrics Metrics, err error) {
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, nil, nil, err
	}

	var reader sdkmetric.Reader

	switch cfg.Exporter {
	case "", ExporterPrometheus:
		reg := prometheus.NewRegistry()

		exporter, expErr := prometheusexporter.New(prometheusexporter.WithRegisterer(reg))
		if expErr != nil {
			return nil, nil, nil, fmt.Errorf("create prometheus exporter: %w", expErr)
		}

		reader = exporter
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	case ExporterOTLP:
		// SDK reads OTEL_EXPORTER_OTLP_ENDPOINT (and scheme/insecure) from env.
		exp, expErr := otlpmetrichttp.New(ctx)
		if expErr != nil {
			return nil, nil, nil, fmt.Errorf("create OTLP metric exporter: %w", expErr)
		}

		reader = sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(metricExportInterval))
	default:
		return nil, nil, nil, fmt.Errorf("unsupported metrics exporter %q", cfg.Exporter)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithCardinalityLimit(cardinalityLimit),
		sdkmetric.WithView(
			histogramView(MetricNameRequestDuration, latencyHistogramBoundaries),
			histogramView(MetricNameProviderCallDuration, latencyHistogramBoundaries),
			histogramView(MetricNameExtractionDuration, extractionHistogramBoundaries),
		),
	)

	m, err := newMetricsFromMeter(mp.Meter(meterScope))
	if err != nil {
		_ = mp.Shutdown(ctx)

		return nil, nil, nil, fmt.Errorf("create metrics instruments: %w", err)
	}

	return mp, metricsHandler, m, nil
}

// ShutdownMeterProvider flushes and shuts down the MeterProvider. Safe to call with nil.
func ShutdownMeterProvider(ctx context.Context, provider MeterProviderShutdown) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}

	return nil
}

func histogramView(name string, boundaries []float64) sdkmetric.View {
	return sdkmetric.NewView(
		sdkmetric.Instrument{Name: name},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: boundaries}},
	)
}

func newMetricsFromMeter(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}

	var err error

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&m.requestCount, MetricNameRequestCount, "Total HTTP requests"},
		{&m.providerCalls, MetricNameProviderCalls, "Embedding provider calls by provider and outcome"},
		{&m.cacheHits, MetricNameCacheHits, "Cache lookups that returned a cached value"},
		{&m.cacheMisses, MetricNameCacheMisses, "Cache lookups that triggered a load"},
		{&m.extractions, MetricNameExtractions, "Skill extraction requests by outcome"},
		{&m.truncated, MetricNameTruncated, "Segments or results dropped by caps"},
	}
	for _, c := range counters {
		*c.target, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
	}

	histograms := []struct {
		target *metric.Float64Histogram
		name   string
		desc   string
	}{
		{&m.requestDuration, MetricNameRequestDuration, "HTTP request duration in seconds"},
		{&m.providerCallDur, MetricNameProviderCallDuration, "Embedding provider call duration in seconds"},
		{&m.extractionDur, MetricNameExtractionDuration, "End-to-end extraction duration in seconds"},
	}
	for _, h := range histograms {
		*h.target, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", h.name, err)
		}
	}

	m.skillsMatched, err = meter.Int64Histogram(
		MetricNameSkillsMatched,
		metric.WithDescription("Skills returned per successful extraction"),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", MetricNameSkillsMatched, err)
	}

	return m, nil
}

type metricsImpl struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	providerCalls   metric.Int64Counter
	providerCallDur metric.Float64Histogram
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	extractions     metric.Int64Counter
	extractionDur   metric.Float64Histogram
	skillsMatched   metric.Int64Histogram
	truncated       metric.Int64Counter
}

func (m *metricsImpl) RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration) {
	attrs := attribute.NewSet(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status_class", statusClass),
	)
	m.requestCount.Add(ctx, 1, metric.WithAttributeSet(attrs))

	durAttrs := attribute.NewSet(
		attribute.String("method", method),
		attribute.String("route", route),
	)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributeSet(durAttrs))
}

func (m *metricsImpl) RecordProviderCall(ctx context.Context, provider, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrProvider, NormalizeProvider(provider)),
		attribute.String(AttrOutcome, NormalizeOutcome(outcome)),
	)
	m.providerCalls.Add(ctx, 1, attrs)
	m.providerCallDur.Record(ctx, duration.Seconds(), attrs)
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, cacheName string, hit bool) {
	attrs := metric.WithAttributes(attribute.String(AttrCache, NormalizeCacheName(cacheName)))
	if hit {
		m.cacheHits.Add(ctx, 1, attrs)

		return
	}

	m.cacheMisses.Add(ctx, 1, attrs)
}

func (m *metricsImpl) RecordExtraction(ctx context.Context, outcome string, skills int, duration time.Duration) {
	outcome = NormalizeOutcome(outcome)
	attrs := metric.WithAttributes(attribute.String(AttrOutcome, outcome))
	m.extractions.Add(ctx, 1, attrs)
	m.extractionDur.Record(ctx, duration.Seconds(), attrs)

	if outcome == OutcomeSuccess {
		m.skillsMatched.Record(ctx, int64(skills))
	}
}

func (m *metricsImpl) RecordTruncation(ctx context.Context, kind string, dropped int) {
	if dropped <= 0 {
		return
	}

	m.truncated.Add(ctx, int64(dropped), metric.WithAttributes(attribute.String(AttrKind, NormalizeTruncationKind(kind))))
}
