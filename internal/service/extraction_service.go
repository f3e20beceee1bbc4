package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbricks/skillmatch/internal/apperrors"
	"github.com/formbricks/skillmatch/internal/catalog"
	"github.com/formbricks/skillmatch/internal/matching"
	"github.com/formbricks/skillmatch/internal/observability"
	"github.com/formbricks/skillmatch/internal/segment"
	"github.com/formbricks/skillmatch/pkg/cache"
)

const (
	// DefaultMinTextLength is the trimmed rune count below which text yields no skills.
	DefaultMinTextLength = 10

	skillCacheSize = 8
	tracerName     = "github.com/formbricks/skillmatch/internal/service"
)

// Embedder embeds an ordered batch of texts. Implemented by embeddings.BatchEmbedder.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Provider() string
}

// ExtractionMetrics is the subset of observability.Metrics used by ExtractionService.
type ExtractionMetrics interface {
	RecordCacheLookup(ctx context.Context, cacheName string, hit bool)
	RecordExtraction(ctx context.Context, outcome string, skills int, duration time.Duration)
	RecordTruncation(ctx context.Context, kind string, dropped int)
}

// SkillCacheKey identifies one set of skill vectors. Vectors from different providers, models
// or catalog revisions are never mixed.
type SkillCacheKey struct {
	Provider       string
	Model          string
	CatalogVersion string
}

func (k SkillCacheKey) String() string {
	return k.Provider + "/" + k.Model + "@" + k.CatalogVersion
}

// Extraction is the outcome of one extraction request.
type Extraction struct {
	Skills          []matching.Result
	SegmentsDropped int
	ResultsDropped  int
}

// ExtractionService turns resume text into ranked catalog skills by embedding similarity.
type ExtractionService struct {
	embedder      Embedder
	model         string
	catalog       *catalog.Catalog
	segmenter     *segment.Segmenter
	maxResults    int
	minTextLength int
	skillCache    *cache.LoaderCache[SkillCacheKey, [][]float32]
	metrics       ExtractionMetrics
	tracer        trace.Tracer
	logger        *slog.Logger
}

// ExtractionServiceParams configures ExtractionService. Catalog, Segmenter, Metrics and Logger
// may be nil (defaults are used; metrics are skipped).
type ExtractionServiceParams struct {
	Embedder      Embedder
	Model         string
	Catalog       *catalog.Catalog
	Segmenter     *segment.Segmenter
	MaxResults    int
	MinTextLength int
	Metrics       ExtractionMetrics
	Logger        *slog.Logger
}

// NewExtractionService creates an ExtractionService with an empty skill vector cache.
func NewExtractionService(p ExtractionServiceParams) (*ExtractionService, error) {
	if p.Embedder == nil {
		return nil, errors.New("extraction service: embedder is required")
	}

	skillCache, err := cache.NewLoaderCache[SkillCacheKey, [][]float32](skillCacheSize, SkillCacheKey.String)
	if err != nil {
		return nil, fmt.Errorf("create skill vector cache: %w", err)
	}

	s := &ExtractionService{
		embedder:      p.Embedder,
		model:         p.Model,
		catalog:       p.Catalog,
		segmenter:     p.Segmenter,
		maxResults:    p.MaxResults,
		minTextLength: p.MinTextLength,
		skillCache:    skillCache,
		metrics:       p.Metrics,
		tracer:        otel.Tracer(tracerName),
		logger:        p.Logger,
	}

	if s.catalog == nil {
		s.catalog = catalog.Default()
	}

	if s.segmenter == nil {
		s.segmenter = segment.New(segment.DefaultMinLength, segment.DefaultMaxSegments)
	}

	if s.maxResults <= 0 {
		s.maxResults = matching.DefaultMaxResults
	}

	if s.minTextLength <= 0 {
		s.minTextLength = DefaultMinTextLength
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Catalog returns the skill catalog used for matching.
func (s *ExtractionService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Extract returns the catalog skills whose best similarity to any segment of text reaches
// threshold, best first. Text shorter than the minimum length yields no skills and makes no
// provider calls, whatever the threshold. Skill vectors are resolved before any segment is embedded, so a
// misconfigured provider fails without spending segment calls.
func (s *ExtractionService) Extract(ctx context.Context, text string, threshold float64) (Extraction, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "extraction.extract", trace.WithAttributes(
		attribute.String("embedding.provider", s.embedder.Provider()),
		attribute.Float64("extraction.threshold", threshold),
	))
	defer span.End()

	out, skipped, err := s.extract(ctx, text, threshold)

	outcome := outcomeFor(err)
	if skipped {
		outcome = observability.OutcomeEmptyInput
	}

	if s.metrics != nil {
		s.metrics.RecordExtraction(ctx, outcome, len(out.Skills), time.Since(start))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.ErrorContext(ctx, "extraction failed",
			"provider", s.embedder.Provider(),
			"outcome", outcome,
			"error", err,
		)

		return Extraction{}, err
	}

	span.SetAttributes(attribute.Int("extraction.skills", len(out.Skills)))

	return out, nil
}

// extract runs the pipeline. skipped reports input too short to process.
func (s *ExtractionService) extract(
	ctx context.Context, text string, threshold float64,
) (out Extraction, skipped bool, err error) {
	empty := Extraction{Skills: []matching.Result{}}

	trimmed := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(trimmed); n < s.minTextLength {
		s.logger.DebugContext(ctx, "extraction skipped: text too short", "length", n)

		return empty, true, nil
	}

	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return Extraction{}, false, apperrors.NewValidationError("threshold", "threshold must be a number between 0 and 1")
	}

	skillVectors, err := s.skillVectors(ctx)
	if err != nil {
		return Extraction{}, false, err
	}

	segments, err := s.segmenter.Split(trimmed)
	if err != nil {
		return Extraction{}, false, fmt.Errorf("segment text: %w", err)
	}

	if len(segments.Segments) == 0 {
		return empty, true, nil
	}

	if segments.Dropped > 0 {
		s.logger.InfoContext(ctx, "segments truncated",
			"kept", len(segments.Segments),
			"dropped", segments.Dropped,
		)

		if s.metrics != nil {
			s.metrics.RecordTruncation(ctx, observability.TruncatedSegments, segments.Dropped)
		}
	}

	segmentVectors, err := s.embedder.EmbedBatch(ctx, segments.Segments)
	if err != nil {
		return Extraction{}, false, err
	}

	matched, err := matching.Match(matching.Input{
		Segments:       segments.Segments,
		SegmentVectors: segmentVectors,
		Skills:         s.catalog.Labels(),
		SkillVectors:   skillVectors,
	}, matching.Options{Threshold: threshold, MaxResults: s.maxResults})
	if err != nil {
		return Extraction{}, false, err
	}

	if matched.Dropped > 0 && s.metrics != nil {
		s.metrics.RecordTruncation(ctx, observability.TruncatedResults, matched.Dropped)
	}

	s.logger.InfoContext(ctx, "extraction completed",
		"provider", s.embedder.Provider(),
		"segments", len(segments.Segments),
		"skills", len(matched.Results),
		"threshold", threshold,
	)

	return Extraction{
		Skills:          matched.Results,
		SegmentsDropped: segments.Dropped,
		ResultsDropped:  matched.Dropped,
	}, false, nil
}

// skillVectors returns the catalog embeddings, computing them once per cache key. Concurrent
// first requests share one computation; a failed computation is not cached.
func (s *ExtractionService) skillVectors(ctx context.Context) ([][]float32, error) {
	vectors, hit, err := s.skillCache.GetWithStats(ctx, s.skillCacheKey(), s.loadSkillVectors)
	if s.metrics != nil && err == nil {
		s.metrics.RecordCacheLookup(ctx, observability.CacheSkillVectors, hit)
	}

	if err != nil {
		return nil, err
	}

	return vectors, nil
}

func (s *ExtractionService) skillCacheKey() SkillCacheKey {
	return SkillCacheKey{
		Provider:       s.embedder.Provider(),
		Model:          s.model,
		CatalogVersion: s.catalog.Version(),
	}
}

func (s *ExtractionService) loadSkillVectors(ctx context.Context, key SkillCacheKey) ([][]float32, error) {
	labels := s.catalog.Labels()

	s.logger.InfoContext(ctx, "computing skill vectors", "cache_key", key.String(), "skills", len(labels))

	vectors, err := s.embedder.EmbedBatch(ctx, labels)
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(labels) {
		return nil, apperrors.NewProviderResponseShapeError(key.Provider,
			fmt.Sprintf("got %d skill vectors for %d skills", len(vectors), len(labels)))
	}

	return vectors, nil
}

// WarmUp computes the skill vectors ahead of the first request. Requests arriving meanwhile
// join the same computation. A failure is logged and left for the next request to retry.
func (s *ExtractionService) WarmUp(ctx context.Context) error {
	start := time.Now()

	if _, err := s.skillVectors(ctx); err != nil {
		s.logger.WarnContext(ctx, "skill vector warm-up failed", "error", err)

		return err
	}

	s.logger.InfoContext(ctx, "skill vectors ready",
		"skills", s.catalog.Len(),
		"duration", time.Since(start),
	)

	return nil
}

// SkillVectorsReady reports whether skill vectors for the current provider, model and
// catalog are cached. It never triggers a computation.
func (s *ExtractionService) SkillVectorsReady() bool {
	_, ok := s.skillCache.Peek(s.skillCacheKey())

	return ok
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, apperrors.ErrValidation):
		return observability.OutcomeValidationError
	case errors.Is(err, apperrors.ErrConfiguration):
		return observability.OutcomeConfigurationError
	case errors.Is(err, apperrors.ErrProviderResponseShape):
		return observability.OutcomeShapeError
	case errors.Is(err, apperrors.ErrProviderRequest):
		return observability.OutcomeRequestError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return observability.OutcomeCanceled
	default:
		return observability.OutcomeOther
	}
}
