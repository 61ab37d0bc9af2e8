package samlchain

import (
	"github.com/spauthd/samlchain/internal/core/domain"
)

// Re-export error types from the domain package.
type ErrorCode = domain.ErrorCode
type AppError = domain.AppError
type JSONErrorResponse = domain.JSONErrorResponse
type JSONErrorDetail = domain.JSONErrorDetail

// Re-export error code constants
const (
	ErrCodeConfigMissing    = domain.ErrCodeConfigMissing
	ErrCodeProviderNotFound = domain.ErrCodeProviderNotFound
	ErrCodeAuthFailed       = domain.ErrCodeAuthFailed
	ErrCodeSessionInvalid   = domain.ErrCodeSessionInvalid
	ErrCodeServiceError     = domain.ErrCodeServiceError
	ErrCodeBadRequest       = domain.ErrCodeBadRequest
	ErrCodeSignatureInvalid = domain.ErrCodeSignatureInvalid
	ErrCodeMethodNotAllowed = domain.ErrCodeMethodNotAllowed
)

// Re-export error constructors
var (
	ConfigError           = domain.ConfigError
	ProviderNotFoundError = domain.ProviderNotFoundError
	BadRequestError       = domain.BadRequestError
	AuthError             = domain.AuthError
	ServiceError          = domain.ServiceError
	NewJSONErrorResponse  = domain.NewJSONErrorResponse
)

// Re-export sentinel errors
var (
	ErrResolverConflict = domain.ErrResolverConflict
	ErrNoTransformer    = domain.ErrNoTransformer
	ErrIdPNotFound      = domain.ErrIdPNotFound
	ErrMetadataExpired  = domain.ErrMetadataExpired
	ErrSessionNotFound  = domain.ErrSessionNotFound
)
