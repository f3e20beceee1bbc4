// extract-skills runs one skill extraction and prints the result as JSON. It reads the resume
// from -file (PDF, DOCX or text) or stdin. By default it embeds in-process with the same
// environment configuration as the API server; with -server it calls a running API instead.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/formbricks/skillmatch/internal/apperrors"
	"github.com/formbricks/skillmatch/internal/config"
	"github.com/formbricks/skillmatch/internal/matching"
	"github.com/formbricks/skillmatch/internal/observability"
	"github.com/formbricks/skillmatch/internal/resumetext"
	"github.com/formbricks/skillmatch/internal/service"
	"github.com/formbricks/skillmatch/pkg/skillmatch"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

// output mirrors the API success body.
type output struct {
	Skills          []matching.Result `json:"skills"`
	SegmentsDropped int               `json:"segmentsDropped,omitempty"` //nolint:tagliatelle // API contract
	ResultsDropped  int               `json:"resultsDropped,omitempty"`  //nolint:tagliatelle // API contract
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("extract-skills", flag.ContinueOnError)
	flags.SetOutput(stderr)

	file := flags.String("file", "", "resume file (PDF, DOCX or text); stdin when empty")
	threshold := flags.Float64("threshold", -1, "minimum similarity in [0,1] (default DEFAULT_THRESHOLD)")
	server := flags.String("server", "", "API base URL, e.g. http://localhost:8080; extract in-process when empty")

	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "load configuration:", err)

		return exitFailure
	}

	logger := observability.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if *server != "" {
		return runRemote(ctx, logger, *server, *file, *threshold, stdin, stdout)
	}

	text, err := readResume(*file, stdin)
	if err != nil {
		logger.Error("Failed to read resume", "error", err)

		return exitFailure
	}

	if *threshold < 0 {
		*threshold = cfg.DefaultThreshold
	}

	svc, err := service.NewExtractionServiceFromConfig(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error("Failed to create extraction service", "error", err)

		return exitFailure
	}

	out, err := svc.Extract(ctx, text, *threshold)
	if err != nil {
		attrs := []any{"error", err}
		if details := apperrors.Details(err); details != "" {
			attrs = append(attrs, "details", details)
		}

		logger.Error("Extraction failed", attrs...)

		if errors.Is(err, apperrors.ErrValidation) {
			return exitUsage
		}

		return exitFailure
	}

	return writeJSON(logger, stdout, output{
		Skills:          out.Skills,
		SegmentsDropped: out.SegmentsDropped,
		ResultsDropped:  out.ResultsDropped,
	})
}

// runRemote sends the resume to a running API. Files are uploaded as is so the server
// extracts their text.
func runRemote(
	ctx context.Context, logger *slog.Logger, baseURL, path string, threshold float64,
	stdin io.Reader, stdout io.Writer,
) int {
	client := skillmatch.NewClientWithOptions(skillmatch.ClientOptions{BaseURL: baseURL, RetryMax: 2})

	var thresholdPtr *float64
	if threshold >= 0 {
		thresholdPtr = &threshold
	}

	var (
		out *skillmatch.ExtractResponse
		err error
	)

	if path != "" {
		data, readErr := os.ReadFile(filepath.Clean(path))
		if readErr != nil {
			logger.Error("Failed to read resume", "error", readErr)

			return exitFailure
		}

		out, err = client.ExtractFile(ctx, path, data, thresholdPtr)
	} else {
		data, readErr := io.ReadAll(stdin)
		if readErr != nil {
			logger.Error("Failed to read resume", "error", readErr)

			return exitFailure
		}

		out, err = client.Extract(ctx, string(data), thresholdPtr)
	}

	if err != nil {
		logger.Error("Extraction failed", "server", baseURL, "error", err)

		if skillmatch.IsStatus(err, http.StatusBadRequest) {
			return exitUsage
		}

		return exitFailure
	}

	return writeJSON(logger, stdout, out)
}

func writeJSON(logger *slog.Logger, w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		logger.Error("Failed to write result", "error", err)

		return exitFailure
	}

	return exitSuccess
}

func readResume(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)

	if path == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}

	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	return resumetext.Extract(resumetext.DetectType(path, "", data), data)
}
