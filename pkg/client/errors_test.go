package client

import (
	"errors"
	"net/http"
	"testing"
)

func TestAPIError_Unwrap(t *testing.T) {
	cases := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusUnauthorized, "unauthenticated", ErrUnauthenticated},
		{http.StatusUnauthorized, "account_disabled", ErrUnauthenticated},
		{http.StatusForbidden, "forbidden", ErrForbidden},
		{http.StatusConflict, "conflict", ErrConflict},
		{http.StatusNotFound, "not_found", ErrNotFound},
		{http.StatusBadRequest, "invalid_credential", ErrInvalidCredential},
		{http.StatusBadRequest, "validation_error", ErrValidation},
		{http.StatusUnprocessableEntity, "validation_error", ErrValidation},
		{http.StatusUnprocessableEntity, "", ErrValidation},
		{http.StatusTooManyRequests, "too_many_attempts", ErrTooManyAttempts},
	}
	for _, tc := range cases {
		err := error(&APIError{Status: tc.status, Code: tc.code, Message: "m"})
		if !errors.Is(err, tc.want) {
			t.Errorf("%d/%s: expected %v", tc.status, tc.code, tc.want)
		}
	}

	if errors.Unwrap(&APIError{Status: http.StatusInternalServerError, Code: "internal"}) != nil {
		t.Errorf("5xx should not map to a sentinel")
	}
}
