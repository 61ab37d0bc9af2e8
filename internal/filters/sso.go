package filters

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// WebSSOFilter consumes SAML Responses at {prefix}/SSO: it validates the
// assertion, establishes a session, and redirects the user to where they
// came from.
type WebSSOFilter struct {
	matcher    *chain.PathMatcher
	validator  ports.Validator
	requests   ports.RequestStore
	sessions   ports.SessionStore
	cookie     CookieConfig
	sessionTTL time.Duration
	metrics    ports.MetricsRecorder
	logger     *zap.Logger
}

// NewWebSSOFilter creates an assertion consumer filter for pathPrefix.
func NewWebSSOFilter(pathPrefix string, validator ports.Validator, requests ports.RequestStore, sessions ports.SessionStore, cookie CookieConfig, sessionTTL time.Duration, metrics ports.MetricsRecorder, logger *zap.Logger) *WebSSOFilter {
	return &WebSSOFilter{
		matcher:    chain.NewPathMatcher(pathPrefix + "/SSO/**"),
		validator:  validator,
		requests:   requests,
		sessions:   sessions,
		cookie:     cookie,
		sessionTTL: sessionTTL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Matches reports whether the request targets the assertion consumer
// endpoint.
func (f *WebSSOFilter) Matches(r *http.Request) bool {
	return f.matcher.Matches(r)
}

// ServeHTTP validates the response and establishes the session.
func (f *WebSSOFilter) ServeHTTP(w http.ResponseWriter, r *http.Request, next chain.Handler) error {
	hp := HostedProviderFrom(r.Context())
	if hp == nil {
		return domain.ServiceError("No hosted provider resolved for request")
	}

	msg := MessageFrom(r.Context())
	if msg == nil || msg.Kind != domain.MessageResponse {
		return domain.BadRequestError("Expected a SAML Response")
	}

	idp, err := hp.Provider(msg.Issuer)
	if err != nil {
		f.metrics.RecordAuthAttempt(msg.Issuer, false)
		return domain.ProviderNotFoundError(msg.Issuer)
	}

	assertion, err := f.validator.ValidateResponse(r, hp, idp, f.requests.GetAll())
	if err != nil {
		f.metrics.RecordAuthAttempt(idp.EntityID, false)
		f.logger.Warn("response validation failed",
			zap.String("idp_entity_id", idp.EntityID),
			zap.Error(err))
		return domain.AuthError("The SAML response could not be validated", err)
	}

	// Consume the originating request ID; each ID authenticates once.
	if assertion.InResponseTo != "" && !f.requests.Valid(assertion.InResponseTo) {
		f.metrics.RecordAuthAttempt(idp.EntityID, false)
		return domain.AuthError("The SAML response does not match an outstanding authentication request", nil)
	}

	now := time.Now()
	session := &domain.Session{
		Subject:      assertion.Subject,
		Attributes:   assertion.Attributes,
		IdPEntityID:  assertion.IdPEntityID,
		NameIDFormat: assertion.NameIDFormat,
		SessionIndex: assertion.SessionIndex,
		IssuedAt:     now,
		ExpiresAt:    now.Add(f.sessionTTL),
	}
	token, err := f.sessions.Create(session)
	if err != nil {
		f.metrics.RecordAuthAttempt(idp.EntityID, false)
		return &domain.AppError{
			Code:    domain.ErrCodeServiceError,
			Message: "The session could not be created",
			Cause:   err,
		}
	}

	f.cookie.set(w, token, session.ExpiresAt)
	f.metrics.RecordAuthAttempt(idp.EntityID, true)
	f.metrics.RecordSessionCreated()

	f.logger.Info("user authenticated",
		zap.String("idp_entity_id", idp.EntityID),
		zap.String("subject", assertion.Subject))

	http.Redirect(w, r, domain.ValidateRelayState(msg.RelayState), http.StatusFound)
	return nil
}

// Interface guard
var _ chain.Filter = (*WebSSOFilter)(nil)
