package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every error response. Details carries provider diagnostics
// (for example the upstream error body) when available.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RespondError writes an ErrorResponse with the given status.
func RespondError(w http.ResponseWriter, statusCode int, message, details string) {
	RespondJSON(w, statusCode, ErrorResponse{Error: message, Details: details})
}

// RespondBadRequest writes a 400 Bad Request error response
func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message, "")
}

// RespondRequestEntityTooLarge writes a 413 error response
func RespondRequestEntityTooLarge(w http.ResponseWriter) {
	RespondError(w, http.StatusRequestEntityTooLarge, "request body exceeds maximum allowed size", "")
}

// RespondInternalServerError writes a 500 Internal Server Error response
func RespondInternalServerError(w http.ResponseWriter, message, details string) {
	RespondError(w, http.StatusInternalServerError, message, details)
}

// RespondJSON writes a JSON response directly without wrapping
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
