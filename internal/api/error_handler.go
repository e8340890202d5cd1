package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

// Machine-readable error codes carried in the envelope.
const (
	CodeUnauthenticated   = "unauthenticated"
	CodeAccountDisabled   = "account_disabled"
	CodeForbidden         = "forbidden"
	CodeConflict          = "conflict"
	CodeNotFound          = "not_found"
	CodeInvalidCredential = "invalid_credential"
	CodeValidation        = "validation_error"
	CodeTooManyAttempts   = "too_many_attempts"
	CodeInternal          = "internal"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and error code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Known domain errors → deterministic HTTP codes. Checked before echo
	// errors so that a wrapped domain error inside an HTTPError still maps.
	switch {
	case errors.Is(err, domain.ErrAccountDisabled):
		return http.StatusUnauthorized, errorResponse{"account is disabled", CodeAccountDisabled}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{"invalid username or password", CodeUnauthenticated}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{"authentication required", CodeUnauthenticated}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{"access forbidden", CodeForbidden}
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, errorResponse{"too many failed login attempts, try again later", CodeTooManyAttempts}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{err.Error(), CodeConflict}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{"user not found", CodeNotFound}
	case errors.Is(err, domain.ErrInvalidCredential):
		return http.StatusBadRequest, errorResponse{"current password is incorrect", CodeInvalidCredential}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, errorResponse{err.Error(), CodeValidation}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{fmt.Sprintf("%v", he.Message), codeForStatus(he.Code)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{"internal server error", CodeInternal}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeTooManyAttempts
	default:
		return CodeInternal
	}
}
