package filters

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// AuthnRequestFilter initiates authentication at {prefix}/discovery: it
// builds an AuthnRequest for the chosen identity provider, records its ID
// for later InResponseTo validation, and redirects the browser to the IdP.
type AuthnRequestFilter struct {
	matcher     *chain.PathMatcher
	transformer ports.Transformer
	requests    ports.RequestStore
	authnOpts   domain.AuthnOptions
	requestTTL  time.Duration
	logger      *zap.Logger
}

// NewAuthnRequestFilter creates an authentication request filter for
// pathPrefix. requestTTL bounds how long an outstanding AuthnRequest ID
// stays valid for response correlation.
func NewAuthnRequestFilter(pathPrefix string, transformer ports.Transformer, requests ports.RequestStore, authnOpts domain.AuthnOptions, requestTTL time.Duration, logger *zap.Logger) *AuthnRequestFilter {
	return &AuthnRequestFilter{
		matcher:     chain.NewPathMatcher(pathPrefix + "/discovery/**"),
		transformer: transformer,
		requests:    requests,
		authnOpts:   authnOpts,
		requestTTL:  requestTTL,
		logger:      logger,
	}
}

// Matches reports whether the request targets the discovery endpoint.
func (f *AuthnRequestFilter) Matches(r *http.Request) bool {
	return f.matcher.Matches(r)
}

// ServeHTTP builds and dispatches the authentication request.
func (f *AuthnRequestFilter) ServeHTTP(w http.ResponseWriter, r *http.Request, next chain.Handler) error {
	hp := HostedProviderFrom(r.Context())
	if hp == nil {
		return domain.ServiceError("No hosted provider resolved for request")
	}

	entityID := r.URL.Query().Get("idp")
	if entityID == "" {
		if len(hp.Providers) == 1 {
			entityID = hp.Providers[0].EntityID
		} else {
			return domain.BadRequestError("The idp parameter is required")
		}
	}

	idp, err := hp.Provider(entityID)
	if err != nil {
		return domain.ProviderNotFoundError(entityID)
	}

	relayState := domain.ValidateRelayState(r.URL.Query().Get("redirect"))

	msg, err := f.transformer.AuthenticationRequest(hp, idp, relayState, f.authnOpts)
	if err != nil {
		return &domain.AppError{
			Code:    domain.ErrCodeServiceError,
			Message: "The authentication request could not be created",
			Cause:   err,
		}
	}

	if err := f.requests.Store(msg.ID, time.Now().Add(f.requestTTL)); err != nil {
		return &domain.AppError{
			Code:    domain.ErrCodeServiceError,
			Message: "The authentication request could not be recorded",
			Cause:   err,
		}
	}

	f.logger.Info("authentication request issued",
		zap.String("idp_entity_id", idp.EntityID),
		zap.String("request_id", msg.ID))

	http.Redirect(w, r, msg.URL.String(), http.StatusFound)
	return nil
}

// Interface guard
var _ chain.Filter = (*AuthnRequestFilter)(nil)
