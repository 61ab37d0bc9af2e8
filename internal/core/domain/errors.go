package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents categorized error types.
// These codes are stable and can be used for programmatic error handling.
type ErrorCode string

const (
	ErrCodeConfigMissing    ErrorCode = "config_missing"
	ErrCodeProviderNotFound ErrorCode = "provider_not_found"
	ErrCodeAuthFailed       ErrorCode = "auth_failed"
	ErrCodeSessionInvalid   ErrorCode = "session_invalid"
	ErrCodeServiceError     ErrorCode = "service_error"
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeSignatureInvalid ErrorCode = "signature_invalid"
	ErrCodeMethodNotAllowed ErrorCode = "method_not_allowed"
)

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// HTTPStatus returns the HTTP status code for this error code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeProviderNotFound:
		return http.StatusNotFound
	case ErrCodeAuthFailed, ErrCodeSessionInvalid:
		return http.StatusUnauthorized
	case ErrCodeBadRequest, ErrCodeSignatureInvalid:
		return http.StatusBadRequest
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Title returns a user-friendly title for this error code.
func (c ErrorCode) Title() string {
	switch c {
	case ErrCodeConfigMissing:
		return "Configuration Error"
	case ErrCodeProviderNotFound:
		return "Not Found"
	case ErrCodeAuthFailed:
		return "Authentication Failed"
	case ErrCodeSessionInvalid:
		return "Session Invalid"
	case ErrCodeServiceError:
		return "Service Error"
	case ErrCodeBadRequest:
		return "Invalid Request"
	case ErrCodeSignatureInvalid:
		return "Signature Invalid"
	case ErrCodeMethodNotAllowed:
		return "Method Not Allowed"
	default:
		return "Error"
	}
}

// AppError is a structured error with code, message, and optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// JSONErrorResponse is the standard JSON error format for API-style responses.
type JSONErrorResponse struct {
	Error JSONErrorDetail `json:"error"`
}

// JSONErrorDetail contains error details.
type JSONErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewJSONErrorResponse creates a JSON error response from an AppError.
func NewJSONErrorResponse(err *AppError) JSONErrorResponse {
	return JSONErrorResponse{
		Error: JSONErrorDetail{
			Code:    err.Code.String(),
			Message: err.Message,
		},
	}
}

// ConfigError creates a configuration error.
func ConfigError(message string) *AppError {
	return &AppError{Code: ErrCodeConfigMissing, Message: message}
}

// ProviderNotFoundError creates an identity-provider-not-found error.
func ProviderNotFoundError(entityID string) *AppError {
	return &AppError{
		Code:    ErrCodeProviderNotFound,
		Message: fmt.Sprintf("The identity provider %q was not found", entityID),
	}
}

// BadRequestError creates a bad request error.
func BadRequestError(message string) *AppError {
	return &AppError{Code: ErrCodeBadRequest, Message: message}
}

// AuthError creates an authentication error with optional cause.
func AuthError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeAuthFailed, Message: message, Cause: cause}
}

// ServiceError creates a service error.
func ServiceError(message string) *AppError {
	return &AppError{Code: ErrCodeServiceError, Message: message}
}

// Sentinel errors for startup-time misconfiguration. These are fatal: they
// are returned during chain configuration, never at request time.
var (
	// ErrResolverConflict is returned when both a provider resolver and a
	// configuration resolver have been set on the configurer.
	ErrResolverConflict = errors.New("providerResolver and configurationResolver are mutually exclusive")

	// ErrNoTransformer is returned when no SAML transformer implementation
	// has been registered.
	ErrNoTransformer = errors.New(
		"no SAML transformer implementation is registered; " +
			"import github.com/spauthd/samlchain/crewjam to use the default implementation, " +
			"or register your own before configuring the chain")

	// ErrIdPNotFound is returned when an identity provider cannot be resolved.
	ErrIdPNotFound = errors.New("identity provider not found")

	// ErrMetadataExpired is returned when metadata validUntil is in the past.
	ErrMetadataExpired = errors.New("metadata has expired")

	// ErrSessionNotFound is returned when a session token is invalid,
	// expired, or not found.
	ErrSessionNotFound = errors.New("session not found")
)
