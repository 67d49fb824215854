package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate email", ErrUserAlreadyExists, http.StatusBadRequest, "USER_ALREADY_EXISTS"},
		{"bad credentials", ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{"wrapped not owned", fmt.Errorf("update spot: %w", ErrSpotNotFoundOrUnauthorized), http.StatusNotFound, "SPOT_NOT_FOUND_OR_UNAUTHORIZED"},
		{"spot missing", ErrSpotNotFound, http.StatusNotFound, "SPOT_NOT_FOUND"},
		{"user missing", ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{"bad input", fmt.Errorf("%w: radius must not be negative", ErrInvalidInput), http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_UnexpectedEchoesMessage(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, ErrorResponse{Message: "connection refused", Code: "INTERNAL_ERROR"}, httpErr.ToErrorResponse())
}
