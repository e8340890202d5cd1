package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned (wrapped) by every Client call.
var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrValidation        = errors.New("validation failed")
	ErrTooManyAttempts   = errors.New("too many attempts")
)

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Unwrap exposes the sentinel matching the status and code, so callers can
// use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "invalid_credential":
		return ErrInvalidCredential
	case "validation_error":
		return ErrValidation
	case "unauthenticated", "account_disabled":
		return ErrUnauthenticated
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusTooManyRequests:
		return ErrTooManyAttempts
	}
	return nil
}

// ConnectionError means the server could not be reached or the exchange
// broke off. Requests are never retried.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: cannot reach server: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
