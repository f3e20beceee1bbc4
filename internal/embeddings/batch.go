package embeddings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/formbricks/skillmatch/internal/apperrors"
	"github.com/formbricks/skillmatch/internal/observability"
)

const (
	// DefaultCallDelay is the pause between consecutive provider calls in one batch.
	DefaultCallDelay = 5 * time.Second
	// DefaultRequestsPerMinute keeps a safety margin below the 15 RPM free-tier quota.
	DefaultRequestsPerMinute = 12

	tracerName = "github.com/formbricks/skillmatch/internal/embeddings"
)

// CallRecorder records provider call outcomes. Satisfied by observability.Metrics; may be nil.
type CallRecorder interface {
	RecordProviderCall(ctx context.Context, provider, outcome string, duration time.Duration)
}

// BatchEmbedder embeds a list of texts by calling a Client once per text, sequentially.
// A fixed delay separates consecutive calls within a batch; an optional limiter shared across
// batches caps the process-wide request rate.
type BatchEmbedder struct {
	client   Client
	provider string
	delay    time.Duration
	limiter  *rate.Limiter
	metrics  CallRecorder
	tracer   trace.Tracer
	sleep    func(ctx context.Context, d time.Duration) error

	// unconfigured is returned by every batch when client is nil.
	unconfigured error
}

// BatchOption configures a BatchEmbedder.
type BatchOption func(*BatchEmbedder)

// WithCallDelay sets the delay inserted before every call after the first. Zero disables it.
func WithCallDelay(d time.Duration) BatchOption {
	return func(b *BatchEmbedder) {
		b.delay = d
	}
}

// WithLimiter shares a rate limiter across batches. Nil disables process-wide limiting.
func WithLimiter(l *rate.Limiter) BatchOption {
	return func(b *BatchEmbedder) {
		b.limiter = l
	}
}

// WithCallRecorder records one metric sample per provider call.
func WithCallRecorder(m CallRecorder) BatchOption {
	return func(b *BatchEmbedder) {
		b.metrics = m
	}
}

// WithConfigurationError sets the error returned by every batch when the client is nil,
// typically the one returned while constructing the client.
func WithConfigurationError(err error) BatchOption {
	return func(b *BatchEmbedder) {
		b.unconfigured = err
	}
}

// NewRequestsPerMinuteLimiter returns a limiter allowing rpm calls per minute with no bursts.
// Non-positive rpm returns nil (no limit).
func NewRequestsPerMinuteLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// NewBatchEmbedder creates a BatchEmbedder over client. provider names the backend in logs,
// spans, and errors. A nil client makes every batch fail with a ConfigurationError.
func NewBatchEmbedder(client Client, provider string, opts ...BatchOption) *BatchEmbedder {
	b := &BatchEmbedder{
		client:   client,
		provider: provider,
		delay:    DefaultCallDelay,
		tracer:   otel.Tracer(tracerName),
		sleep:    sleepContext,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Provider returns the backend name.
func (b *BatchEmbedder) Provider() string {
	return b.provider
}

// EmbedBatch returns one vector per text, in input order. Calls are issued one at a time;
// the first failure aborts the batch and no partial result is returned. Provider errors are
// returned unwrapped so their message reaches the caller intact.
func (b *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if b.client == nil {
		if b.unconfigured != nil {
			return nil, b.unconfigured
		}

		return nil, apperrors.NewConfigurationError("embedding provider " + b.provider + " is not configured")
	}

	vectors := make([][]float32, 0, len(texts))

	for i, text := range texts {
		if i > 0 && b.delay > 0 {
			if err := b.sleep(ctx, b.delay); err != nil {
				return nil, err
			}
		}

		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		vector, err := b.embedOne(ctx, i, text)
		if err != nil {
			slog.ErrorContext(ctx, "embedding: batch aborted",
				"provider", b.provider,
				"index", i,
				"batch_size", len(texts),
				"error", err,
			)

			return nil, err
		}

		vectors = append(vectors, vector)
	}

	return vectors, nil
}

func (b *BatchEmbedder) embedOne(ctx context.Context, index int, text string) ([]float32, error) {
	ctx, span := b.tracer.Start(ctx, "embeddings.create", trace.WithAttributes(
		attribute.String("embedding.provider", b.provider),
		attribute.Int("embedding.index", index),
		attribute.Int("embedding.input_length", len(text)),
	))
	defer span.End()

	start := time.Now()
	vector, err := b.client.CreateEmbedding(ctx, text)

	if err == nil && len(vector) == 0 {
		err = apperrors.NewProviderResponseShapeError(b.provider, "empty embedding vector")
	}

	if b.metrics != nil {
		b.metrics.RecordProviderCall(ctx, b.provider, callOutcome(err), time.Since(start))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")

		return nil, err
	}

	span.SetAttributes(attribute.Int("embedding.dimensions", len(vector)))

	return vector, nil
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return observability.OutcomeCanceled
	case errors.Is(err, apperrors.ErrProviderResponseShape):
		return observability.OutcomeShapeError
	case errors.Is(err, apperrors.ErrProviderRequest):
		return observability.OutcomeRequestError
	default:
		return observability.OutcomeOther
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
