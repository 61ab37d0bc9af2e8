package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeProviderNotFound, http.StatusNotFound},
		{ErrCodeAuthFailed, http.StatusUnauthorized},
		{ErrCodeSessionInvalid, http.StatusUnauthorized},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeSignatureInvalid, http.StatusBadRequest},
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrCodeConfigMissing, http.StatusInternalServerError},
		{ErrCodeServiceError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := AuthError("validation failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	var appErr *AppError
	wrapped := fmt.Errorf("outer: %w", err)
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should find the AppError through wrapping")
	}
	if appErr.Code != ErrCodeAuthFailed {
		t.Errorf("Code = %q, want %q", appErr.Code, ErrCodeAuthFailed)
	}
}

func TestNewJSONErrorResponse(t *testing.T) {
	resp := NewJSONErrorResponse(BadRequestError("bad input"))
	if resp.Error.Code != "bad_request" {
		t.Errorf("Code = %q, want %q", resp.Error.Code, "bad_request")
	}
	if resp.Error.Message != "bad input" {
		t.Errorf("Message = %q, want %q", resp.Error.Message, "bad input")
	}
}

func TestErrNoTransformer_NamesTheFix(t *testing.T) {
	// The error must tell the operator which import is missing.
	msg := ErrNoTransformer.Error()
	if want := "github.com/spauthd/samlchain/crewjam"; !strings.Contains(msg, want) {
		t.Errorf("ErrNoTransformer message %q should mention %q", msg, want)
	}
}
