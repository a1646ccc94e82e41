package types

import "net/http"

// ValidationErrorLabel marks 400 responses caused by request validation.
const ValidationErrorLabel = "Validation Error"

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// Detail carries the wrapped error chain in development only.
	Detail string `json:"detail,omitempty"`
}

// NewErrorBody labels message with the standard status text for status.
func NewErrorBody(status int, message string) ErrorBody {
	return ErrorBody{Error: http.StatusText(status), Message: message}
}

// NewValidationErrorBody builds the 400 body for a rejected field.
func NewValidationErrorBody(message string) ErrorBody {
	return ErrorBody{Error: ValidationErrorLabel, Message: message}
}
