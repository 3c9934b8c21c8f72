package errors

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FromValidation converts validator errors into a validation error response.
// Each failing field is reported under details with the tag that rejected it.
func FromValidation(err error) *ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewWithDetails(CodeInvalidInput, CodeInvalidInput.Message(), map[string]any{
			"error": err.Error(),
		})
	}

	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return NewWithDetails(CodeValidationFailed, CodeValidationFailed.Message(), fields)
}

// Unauthorized builds an authentication error with the given message
func Unauthorized(message string) *ErrorResponse {
	if message == "" {
		message = CodeUnauthorized.Message()
	}
	return New(CodeUnauthorized, message)
}

// NotFound builds a resource-not-found error
func NotFound(resource string) *ErrorResponse {
	return New(CodeResourceNotFound, resource+" not found")
}
