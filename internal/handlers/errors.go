package handlers

import (
	"errors"
	"net/http"

	"github.com/portfolio-cms/apiserver/internal/auth"
	"github.com/portfolio-cms/apiserver/internal/services"
	"github.com/portfolio-cms/apiserver/internal/store"
	"github.com/portfolio-cms/apiserver/internal/validation"
	"github.com/portfolio-cms/apiserver/types"
	"github.com/rs/zerolog"
)

// HTTPError is a failure with a status and a client-facing message chosen
// by the route.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func notFound(message string) error {
	return &HTTPError{Status: http.StatusNotFound, Message: message}
}

// orNotFound replaces store.ErrNotFound with a route-specific 404.
func orNotFound(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(message)
	}
	return err
}

// responder is embedded by every handler so failures share one funnel.
type responder struct {
	exposeDetail bool
}

// fail is the only place a failure becomes an HTTP response.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if rs.exposeDetail {
		body.Detail = err.Error()
	}

	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")

	writeJSON(w, status, body)
}

func classify(err error) (int, types.ErrorBody) {
	var (
		validationErr *validation.Error
		httpErr       *HTTPError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, types.NewValidationErrorBody(validationErr.Message)
	case errors.Is(err, store.ErrEmptyPatch):
		return http.StatusBadRequest, types.NewValidationErrorBody(`"value" must have at least 1 key`)
	case errors.Is(err, services.ErrInvalidCredentials):
		return statusBody(http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrInvalidRefreshToken):
		return statusBody(http.StatusUnauthorized, "Invalid refresh token")
	case errors.Is(err, auth.ErrExpiredToken):
		return statusBody(http.StatusUnauthorized, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return statusBody(http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, store.ErrNotFound):
		return statusBody(http.StatusNotFound, "Resource not found")
	case errors.Is(err, store.ErrConflict):
		return statusBody(http.StatusConflict, "Resource already exists")
	case errors.Is(err, services.ErrStorageDisabled):
		return statusBody(http.StatusServiceUnavailable, "Image uploads are not configured")
	case errors.As(err, &httpErr):
		return statusBody(httpErr.Status, httpErr.Message)
	default:
		return statusBody(http.StatusInternalServerError, "Internal server error")
	}
}

func statusBody(status int, message string) (int, types.ErrorBody) {
	return status, types.NewErrorBody(status, message)
}
