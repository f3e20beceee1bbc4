package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// unmatchedRoute labels requests no route pattern matched, keeping cardinality bounded.
const unmatchedRoute = "unmatched"

// RequestRecorder records one finished HTTP request. Implemented by observability.Metrics.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration)
}

// Metrics returns middleware that records HTTP request count and duration.
// When recorder is nil, recording is skipped. The route label is the ServeMux pattern that
// matched, so Metrics must wrap the mux without replacing the *http.Request in between.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newStatusRecorder(w)

			next.ServeHTTP(rw, r)

			recorder.RecordRequest(r.Context(), r.Method, routeLabel(r.Pattern), statusToClass(rw.status), time.Since(start))
		})
	}
}

// routeLabel strips the method and host from a ServeMux pattern ("POST /v1/extract" -> "/v1/extract").
func routeLabel(pattern string) string {
	if pattern == "" {
		return unmatchedRoute
	}

	if _, path, ok := strings.Cut(pattern, " "); ok {
		pattern = path
	}

	if i := strings.Index(pattern, "/"); i > 0 {
		pattern = pattern[i:]
	}

	return pattern
}

// statusToClass maps HTTP status code to 1xx, 2xx, 4xx, 5xx.
func statusToClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status >= 100:
		return "1xx"
	default:
		return "unknown"
	}
}
