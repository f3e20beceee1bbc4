package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultSlowRequestThreshold marks requests logged at warn level. An extraction of a full
// resume spends most of its time in paced provider calls, so the bar is high.
const DefaultSlowRequestThreshold = 2 * time.Minute

// LoggingConfig configures the access log middleware.
type LoggingConfig struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// SlowRequestThreshold defaults to DefaultSlowRequestThreshold.
	SlowRequestThreshold time.Duration
	// Skip reports requests that are not logged (health checks, scrapes).
	Skip func(r *http.Request) bool
}

// Logging returns middleware that writes one structured log line per request. Server errors
// and slow requests are logged at warn level or above. The request context carries the
// request ID so TraceContextHandler attaches it.
func Logging(cfg LoggingConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = DefaultSlowRequestThreshold
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)

				return
			}

			start := time.Now()
			rw := newStatusRecorder(w)

			next.ServeHTTP(rw, r)

			duration := time.Since(start)

			level := slog.LevelInfo

			switch {
			case rw.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case duration >= cfg.SlowRequestThreshold:
				level = slog.LevelWarn
			}

			cfg.Logger.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.status),
				slog.Int64("bytes", rw.bytes),
				slog.Duration("duration", duration),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// SkipPaths returns a Skip func matching exact URL paths.
func SkipPaths(paths ...string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}

	return func(r *http.Request) bool {
		_, ok := set[r.URL.Path]

		return ok
	}
}

// statusRecorder captures the status code and body size written by the next handler.
type statusRecorder struct {
	http.ResponseWriter

	status      int
	bytes       int64
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}

	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(p []byte) (int, error) {
	rw.wroteHeader = true

	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += int64(n)

	return n, err //nolint:wrapcheck // pass-through writer
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
