package filters

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// ProcessingFilter fronts all SP endpoints. It resolves the hosted
// provider for the request, decodes any inbound SAML message without
// validating it, and attaches both to the request context for the
// downstream endpoint filters.
type ProcessingFilter struct {
	matcher     *chain.PathMatcher
	resolver    ports.ProviderResolver
	transformer ports.Transformer
	logger      *zap.Logger
}

// NewProcessingFilter creates a processing filter for all paths under
// pathPrefix.
func NewProcessingFilter(pathPrefix string, resolver ports.ProviderResolver, transformer ports.Transformer, logger *zap.Logger) *ProcessingFilter {
	return &ProcessingFilter{
		matcher:     chain.NewPathMatcher(pathPrefix + "/**"),
		resolver:    resolver,
		transformer: transformer,
		logger:      logger,
	}
}

// Matches reports whether the request targets an SP endpoint.
func (f *ProcessingFilter) Matches(r *http.Request) bool {
	return f.matcher.Matches(r)
}

// ServeHTTP resolves the hosted provider and decodes inbound messages.
func (f *ProcessingFilter) ServeHTTP(w http.ResponseWriter, r *http.Request, next chain.Handler) error {
	hp, err := f.resolver.Resolve(r)
	if err != nil {
		f.logger.Error("hosted provider resolution failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return &domain.AppError{
			Code:    domain.ErrCodeServiceError,
			Message: "The service provider configuration could not be resolved",
			Cause:   err,
		}
	}
	r = WithHostedProvider(r, hp)

	msg, err := f.transformer.DecodeMessage(r)
	if err != nil {
		f.logger.Warn("inbound SAML message rejected",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return &domain.AppError{
			Code:    domain.ErrCodeBadRequest,
			Message: "The SAML message could not be decoded",
			Cause:   err,
		}
	}
	if msg != nil {
		r = WithMessage(r, msg)
	}
	return next.ServeHTTP(w, r)
}

// Interface guard
var _ chain.Filter = (*ProcessingFilter)(nil)
