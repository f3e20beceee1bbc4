package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/formbricks/skillmatch/internal/apperrors"
	"github.com/formbricks/skillmatch/internal/catalog"
	"github.com/formbricks/skillmatch/internal/config"
	"github.com/formbricks/skillmatch/internal/embeddings"
	"github.com/formbricks/skillmatch/internal/observability"
	"github.com/formbricks/skillmatch/internal/segment"
)

// NewExtractionServiceFromConfig wires the provider client, pacing, catalog and segmenter
// described by cfg. metrics may be nil.
//
// Missing provider credentials do not fail construction: the warning is logged and every
// extraction then fails with a ConfigurationError before any network call.
func NewExtractionServiceFromConfig(
	ctx context.Context, cfg *config.Config, metrics observability.Metrics, logger *slog.Logger,
) (*ExtractionService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []embeddings.BatchOption{
		embeddings.WithCallDelay(cfg.EmbeddingCallDelay),
		embeddings.WithLimiter(embeddings.NewRequestsPerMinuteLimiter(cfg.EmbeddingMaxRequestsPerMin)),
	}

	pc, err := embeddings.NewClientFromConfig(ctx, cfg)
	if err != nil {
		if !errors.Is(err, apperrors.ErrConfiguration) {
			return nil, err
		}

		var cfgErr *apperrors.ConfigurationError
		if errors.As(err, &cfgErr) {
			opts = append(opts, embeddings.WithConfigurationError(cfgErr))
		}

		logger.Warn("embedding provider not configured; extraction requests will fail",
			"provider", pc.Provider,
			"error", err,
		)
	}

	if metrics != nil {
		opts = append(opts, embeddings.WithCallRecorder(metrics))
	}

	embedder := embeddings.NewBatchEmbedder(pc.Client, pc.Provider, opts...)

	cat, err := catalog.Load(cfg.SkillCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load skill catalog: %w", err)
	}

	logger.Info("skill catalog loaded",
		"skills", cat.Len(),
		"version", cat.Version(),
		"path", cfg.SkillCatalogPath,
	)

	params := ExtractionServiceParams{
		Embedder:      embedder,
		Model:         pc.Model,
		Catalog:       cat,
		Segmenter:     segment.New(cfg.MinSegmentLength, cfg.MaxSegments),
		MaxResults:    cfg.MaxResults,
		MinTextLength: cfg.MinTextLength,
		Logger:        logger,
	}
	if metrics != nil {
		params.Metrics = metrics
	}

	svc, err := NewExtractionService(params)
	if err != nil {
		return nil, err
	}

	logger.Info("extraction service ready",
		"provider", pc.Provider,
		"model", pc.Model,
		"call_delay", cfg.EmbeddingCallDelay,
		"max_requests_per_minute", cfg.EmbeddingMaxRequestsPerMin,
	)

	return svc, nil
}
