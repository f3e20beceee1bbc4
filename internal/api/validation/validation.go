// Package validation provides request validation and form decoding.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
)

var (
	// validate and decoder are package-level singletons that are safe for concurrent
	// read-only access (validate.Struct() and decoder.Decode() are thread-safe).
	// All registrations MUST happen in init() only.
	validate *validator.Validate
	decoder  *form.Decoder
)

func init() {
	validate = validator.New()
	// Report JSON/form names ("threshold") rather than Go field names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}

		return field.Name
	})

	decoder = form.NewDecoder()
}

// ValidateStruct validates a struct using go-playground/validator.
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

// formatValidationErrors converts validator errors to a single readable message.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			messages = append(messages, formatFieldError(fieldError))
		}

		return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
	}

	return err
}

// formatFieldError formats a single field validation error.
func formatFieldError(fieldError validator.FieldError) string {
	field := fieldError.Field()

	switch fieldError.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fieldError.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fieldError.Param())
	default:
		return field + " is invalid"
	}
}

// DecodeForm decodes form values (query or multipart fields) into a struct.
func DecodeForm(values url.Values, dst any) error {
	if err := decoder.Decode(dst, values); err != nil {
		return fmt.Errorf("failed to decode form: %w", err)
	}

	return nil
}

// ValidateAndDecodeForm decodes and validates form values in one step.
func ValidateAndDecodeForm(values url.Values, dst any) error {
	if err := DecodeForm(values, dst); err != nil {
		return err
	}

	return ValidateStruct(dst)
}
