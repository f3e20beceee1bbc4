package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/formbricks/skillmatch/internal/api/handlers"
	"github.com/formbricks/skillmatch/internal/api/middleware"
	"github.com/formbricks/skillmatch/internal/config"
	"github.com/formbricks/skillmatch/internal/observability"
	"github.com/formbricks/skillmatch/internal/service"
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg             *config.Config
	server          *http.Server
	extraction      *service.ExtractionService
	shutdownTimeout time.Duration
	meterProvider   observability.MeterProviderShutdown
	tracerProvider  *sdktrace.TracerProvider
}

// NewApp builds and wires all components. It does not start the HTTP server;
// call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	var (
		err            error
		meterProvider  observability.MeterProviderShutdown
		metricsHandler http.Handler
		metrics        observability.Metrics
	)

	if cfg.MetricsEnabled {
		meterProvider, metricsHandler, metrics, err = observability.NewMeterProvider(ctx, observability.MeterProviderConfig{
			ServiceName: observability.DefaultServiceName,
			Exporter:    cfg.OtelMetricsExporter,
		})
		if err != nil {
			return nil, fmt.Errorf("create meter provider: %w", err)
		}
	} else {
		slog.Warn("metrics not enabled (METRICS_ENABLED=false)")
	}

	tracerProvider, err := observability.NewTracerProvider(ctx, cfg)
	if err != nil {
		_ = shutdownObservability(context.Background(), nil, meterProvider)

		return nil, fmt.Errorf("create tracer provider: %w", err)
	}

	if tracerProvider == nil {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		otel.SetTracerProvider(tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		))
	}

	extractionService, err := service.NewExtractionServiceFromConfig(ctx, cfg, metrics, slog.Default())
	if err != nil {
		_ = shutdownObservability(context.Background(), tracerProvider, meterProvider)

		return nil, fmt.Errorf("create extraction service: %w", err)
	}

	// A cold request embeds the whole catalog before its segments, so unset timeouts are
	// sized from the catalog and the call pacing.
	catalogSize := extractionService.Catalog().Len()
	resolved := *cfg
	resolved.HTTPWriteTimeout = cfg.ResolvedWriteTimeout(catalogSize)
	resolved.ShutdownTimeout = cfg.ResolvedShutdownTimeout(catalogSize)

	slog.Info("extraction timeouts",
		"write_timeout", resolved.HTTPWriteTimeout,
		"shutdown_timeout", resolved.ShutdownTimeout,
		"call_pace", cfg.CallPace(),
	)

	server := newHTTPServer(&resolved, extractionService, metrics, metricsHandler)

	return &App{
		cfg:             &resolved,
		server:          server,
		extraction:      extractionService,
		shutdownTimeout: resolved.ShutdownTimeout,
		meterProvider:   meterProvider,
		tracerProvider:  tracerProvider,
	}, nil
}

// ShutdownTimeout is how long Shutdown should be given to drain in-flight extractions.
func (a *App) ShutdownTimeout() time.Duration {
	return a.shutdownTimeout
}

// newHTTPServer builds the HTTP server and routes.
// Handler chain: RequestID -> otelhttp(Logging(Metrics(MaxBody(mux)))) so access logs get
// request_id and trace_id/span_id from context and metrics see the matched route pattern.
func newHTTPServer(
	cfg *config.Config,
	extraction handlers.SkillExtractor,
	metrics observability.Metrics,
	metricsHandler http.Handler,
) *http.Server {
	extractHandler := handlers.NewExtractHandler(extraction, cfg.DefaultThreshold)
	readiness, _ := extraction.(handlers.ReadinessChecker)
	healthHandler := handlers.NewHealthHandler(readiness)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Check)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("POST /v1/extract", extractHandler.Extract)
	mux.HandleFunc("POST /extract", extractHandler.Extract)
	mux.HandleFunc("POST /v1/extract/file", extractHandler.ExtractFile)

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	var recorder middleware.RequestRecorder
	if metrics != nil {
		recorder = metrics
	}

	// Skip tracing for health checks and scrapes to reduce noise.
	otelOpts := []otelhttp.Option{
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/ready" && r.URL.Path != "/metrics"
		}),
	}

	var handler http.Handler = mux
	handler = middleware.MaxBody(cfg.MaxRequestBodyBytes)(handler)
	handler = middleware.Metrics(recorder)(handler)
	// Logging runs inside otelhttp so r.Context() has the span when we log.
	handler = middleware.Logging(middleware.LoggingConfig{
		Logger: slog.Default(),
		Skip:   middleware.SkipPaths("/health", "/ready", "/metrics"),
	})(handler)
	handler = otelhttp.NewHandler(handler, "skillmatch-api", otelOpts...)
	handler = middleware.RequestID(handler)

	const idleTimeout = 60 * time.Second

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		// Resolved by NewApp from the extraction budget unless set explicitly.
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server and, when enabled, the skill vector warm-up, then blocks until
// ctx is cancelled (e.g. signal) or the server fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	if a.cfg.SkillCacheWarmup && a.extraction != nil {
		go func() {
			_ = a.extraction.WarmUp(ctx)
		}()
	}

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port, "provider", a.cfg.EmbeddingProvider)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr <- fmt.Errorf("server: %w", err)
		}
	}()

	select {
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(
	ctx context.Context, tracer *sdktrace.TracerProvider, meter observability.MeterProviderShutdown,
) error {
	var first error

	if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
		first = err
	}

	if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
		if first == nil {
			first = err
		} else {
			slog.Error("shutdown meter provider", "error", err)
		}
	}

	return first
}

// Shutdown stops the server, waiting for in-flight extractions until ctx ends. Extractions
// still running at the deadline are cut off; give ctx at least ShutdownTimeout.
// Observability is shut down once via defer; its error is returned only when the server shut down successfully.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
