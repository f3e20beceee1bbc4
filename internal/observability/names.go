// Package observability provides OpenTelemetry metrics and tracing plus structured logging
// helpers for the skill matching API.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameRequestCount         = "http.server.request_count"
	MetricNameRequestDuration      = "http.server.duration"
	MetricNameProviderCalls        = "skillmatch_embedding_provider_calls_total"
	MetricNameProviderCallDuration = "skillmatch_embedding_provider_call_duration_seconds"
	MetricNameCacheHits            = "skillmatch_cache_hits_total"
	MetricNameCacheMisses          = "skillmatch_cache_misses_total"
	MetricNameExtractions          = "skillmatch_extractions_total"
	MetricNameExtractionDuration   = "skillmatch_extraction_duration_seconds"
	MetricNameSkillsMatched        = "skillmatch_skills_matched"
	MetricNameTruncated            = "skillmatch_truncated_items_total"
)

// Attribute keys.
const (
	AttrProvider = "provider"
	AttrOutcome  = "outcome"
	AttrCache    = "cache"
	AttrKind     = "kind"
)

// Outcomes shared by provider call and extraction metrics.
const (
	OutcomeSuccess            = "success"
	OutcomeEmptyInput         = "empty_input"
	OutcomeConfigurationError = "configuration_error"
	OutcomeRequestError       = "request_error"
	OutcomeShapeError         = "shape_error"
	OutcomeValidationError    = "validation_error"
	OutcomeCanceled           = "canceled"
	OutcomeOther              = "other"
)

// Cache names.
const (
	CacheSkillVectors = "skill_vectors"
)

// Truncation kinds.
const (
	TruncatedSegments = "segments"
	TruncatedResults  = "results"
)

var allowedOutcomes = map[string]bool{
	OutcomeSuccess:            true,
	OutcomeEmptyInput:         true,
	OutcomeConfigurationError: true,
	OutcomeRequestError:       true,
	OutcomeShapeError:         true,
	OutcomeValidationError:    true,
	OutcomeCanceled:           true,
}

var allowedProviders = map[string]bool{
	"google": true,
	"openai": true,
	"http":   true,
	"mock":   true,
}

// NormalizeOutcome returns outcome if known, otherwise "other".
func NormalizeOutcome(outcome string) string {
	if allowedOutcomes[outcome] {
		return outcome
	}

	return OutcomeOther
}

// NormalizeProvider returns provider if known, otherwise "other".
func NormalizeProvider(provider string) string {
	if allowedProviders[provider] {
		return provider
	}

	return OutcomeOther
}

// NormalizeCacheName returns name if known, otherwise "other".
func NormalizeCacheName(name string) string {
	if name == CacheSkillVectors {
		return name
	}

	return OutcomeOther
}

// NormalizeTruncationKind returns kind if known, otherwise "other".
func NormalizeTruncationKind(kind string) string {
	switch kind {
	case TruncatedSegments, TruncatedResults:
		return kind
	default:
		return OutcomeOther
	}
}
