package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/formbricks/skillmatch/internal/api/response"
	"github.com/formbricks/skillmatch/internal/api/validation"
	"github.com/formbricks/skillmatch/internal/apperrors"
	"github.com/formbricks/skillmatch/internal/matching"
	"github.com/formbricks/skillmatch/internal/resumetext"
	"github.com/formbricks/skillmatch/internal/service"
)

// multipartMemory is the part of an upload kept in memory; the rest spills to temp files.
const multipartMemory = 8 << 20

// SkillExtractor defines the interface for extracting skills from resume text.
type SkillExtractor interface {
	Extract(ctx context.Context, text string, threshold float64) (service.Extraction, error)
}

// ExtractHandler handles HTTP requests for skill extraction.
type ExtractHandler struct {
	service          SkillExtractor
	defaultThreshold float64
}

// NewExtractHandler creates a new extract handler. defaultThreshold applies when a request
// omits threshold.
func NewExtractHandler(service SkillExtractor, defaultThreshold float64) *ExtractHandler {
	return &ExtractHandler{service: service, defaultThreshold: defaultThreshold}
}

// ExtractRequest is the body for POST /v1/extract.
type ExtractRequest struct {
	Text      string   `json:"text"`
	Threshold *float64 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// ExtractFileForm holds the non-file fields of POST /v1/extract/file.
type ExtractFileForm struct {
	Threshold *float64 `form:"threshold" validate:"omitempty,gte=0,lte=1"`
}

// ExtractResponse lists matched skills, best first. The dropped counts are present only when
// segments or results were cut by the configured caps.
type ExtractResponse struct {
	Skills          []matching.Result `json:"skills"`
	SegmentsDropped int               `json:"segmentsDropped,omitempty"` //nolint:tagliatelle // API contract
	ResultsDropped  int               `json:"resultsDropped,omitempty"`  //nolint:tagliatelle // API contract
}

// Extract handles POST /v1/extract.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.RespondRequestEntityTooLarge(w)

			return
		}

		response.RespondBadRequest(w, "invalid JSON body")

		return
	}

	if err := validation.ValidateStruct(req); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	threshold := h.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	h.run(w, r, req.Text, threshold)
}

// ExtractFile handles POST /v1/extract/file. The resume is the multipart field "file"
// (PDF, DOCX or plain text); the optional form field "threshold" overrides the default.
func (h *ExtractHandler) ExtractFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.RespondRequestEntityTooLarge(w)

			return
		}

		response.RespondBadRequest(w, "invalid multipart form")

		return
	}

	var fields ExtractFileForm
	if err := validation.ValidateAndDecodeForm(url.Values(r.MultipartForm.Value), &fields); err != nil {
		response.RespondBadRequest(w, "threshold must be a number between 0 and 1")

		return
	}

	threshold := h.defaultThreshold
	if fields.Threshold != nil {
		threshold = *fields.Threshold
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.RespondBadRequest(w, "file is required")

		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.RespondBadRequest(w, "could not read uploaded file")

		return
	}

	mediaType := resumetext.DetectType(header.Filename, header.Header.Get("Content-Type"), data)

	text, err := resumetext.Extract(mediaType, data)
	if err != nil {
		slog.WarnContext(r.Context(), "resume text extraction failed",
			"filename", header.Filename,
			"media_type", mediaType,
			"error", err,
		)

		if errors.Is(err, resumetext.ErrUnsupportedType) {
			response.RespondBadRequest(w, "unsupported file type: upload a PDF, DOCX or plain text file")

			return
		}

		response.RespondBadRequest(w, "could not extract text from file: "+err.Error())

		return
	}

	h.run(w, r, text, threshold)
}

func (h *ExtractHandler) run(w http.ResponseWriter, r *http.Request, text string, threshold float64) {
	out, err := h.service.Extract(r.Context(), text, threshold)
	if err != nil {
		respondExtractionError(w, err)

		return
	}

	skills := out.Skills
	if skills == nil {
		skills = []matching.Result{}
	}

	response.RespondJSON(w, http.StatusOK, ExtractResponse{
		Skills:          skills,
		SegmentsDropped: out.SegmentsDropped,
		ResultsDropped:  out.ResultsDropped,
	})
}

// respondExtractionError maps the error taxonomy to HTTP: validation failures are the
// caller's fault (400); everything else is a server or upstream failure (500).
func respondExtractionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		response.RespondBadRequest(w, err.Error())
	case errors.Is(err, apperrors.ErrConfiguration),
		errors.Is(err, apperrors.ErrProviderRequest),
		errors.Is(err, apperrors.ErrProviderResponseShape):
		response.RespondInternalServerError(w, err.Error(), apperrors.Details(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.RespondError(w, http.StatusServiceUnavailable, "skill extraction was interrupted", err.Error())
	default:
		response.RespondInternalServerError(w, "skill extraction failed", err.Error())
	}
}
