// Package apperrors provides sentinel and custom error types for the skill extraction pipeline.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel for missing or invalid provider configuration.
// Raised before any network activity.
var ErrConfiguration = &ConfigurationError{}

// ConfigurationError reports missing credentials, endpoint, or other required settings.
type ConfigurationError struct {
	Message string
}

// NewConfigurationError creates a ConfigurationError with a custom message.
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{Message: message}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "embedding provider is not configured"
}

// Is implements the error interface for error comparison.
func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)

	return ok
}

// ErrProviderRequest is the sentinel for failed calls to the embedding provider.
var ErrProviderRequest = &ProviderRequestError{}

// ProviderRequestError is returned when the provider answers with a non-success status
// or the request cannot be completed. Body carries the provider's error payload when available.
type ProviderRequestError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

// NewProviderRequestError creates a ProviderRequestError.
func NewProviderRequestError(provider string, statusCode int, body string, err error) *ProviderRequestError {
	return &ProviderRequestError{
		Provider:   provider,
		StatusCode: statusCode,
		Body:       body,
		Err:        err,
	}
}

// Error implements the error interface.
func (e *ProviderRequestError) Error() string {
	provider := e.Provider
	if provider == "" {
		provider = "embedding provider"
	}

	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s request failed with status %d", provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", provider, e.Err)
	default:
		return provider + " request failed"
	}
}

// Unwrap returns the underlying transport or SDK error.
func (e *ProviderRequestError) Unwrap() error {
	return e.Err
}

// Is implements the error interface for error comparison.
func (e *ProviderRequestError) Is(target error) bool {
	_, ok := target.(*ProviderRequestError)

	return ok
}

// ErrProviderResponseShape is the sentinel for provider responses without a usable vector.
var ErrProviderResponseShape = &ProviderResponseShapeError{}

// ProviderResponseShapeError is returned when a provider response does not contain a numeric
// vector at the expected location, or vectors disagree on dimensionality.
type ProviderResponseShapeError struct {
	Provider string
	Message  string
}

// NewProviderResponseShapeError creates a ProviderResponseShapeError.
func NewProviderResponseShapeError(provider, message string) *ProviderResponseShapeError {
	return &ProviderResponseShapeError{Provider: provider, Message: message}
}

// Error implements the error interface.
func (e *ProviderResponseShapeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unexpected response shape"
	}

	if e.Provider != "" {
		return e.Provider + ": " + msg
	}

	return msg
}

// Is implements the error interface for error comparison.
func (e *ProviderResponseShapeError) Is(target error) bool {
	_, ok := target.(*ProviderResponseShapeError)

	return ok
}

// ErrValidation represents a validation error.
// Use when client input fails validation.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// Details returns diagnostic detail suitable for an error response, or "" when none is available.
func Details(err error) string {
	var reqErr *ProviderRequestError
	if errors.As(err, &reqErr) {
		if reqErr.Body != "" {
			return reqErr.Body
		}

		if reqErr.Err != nil {
			return reqErr.Err.Error()
		}
	}

	return ""
}
