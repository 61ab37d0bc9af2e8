package filters

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// LogoutFilter handles single logout at {prefix}/logout. It serves three
// flows: SP-initiated logout for the current session, IdP-initiated
// LogoutRequests, and LogoutResponses answering an earlier SP-initiated
// logout. Successful logout ends at the selection page.
type LogoutFilter struct {
	matcher     *chain.PathMatcher
	pathPrefix  string
	transformer ports.Transformer
	validator   ports.Validator
	sessions    ports.SessionStore
	cookie      CookieConfig
	metrics     ports.MetricsRecorder
	logger      *zap.Logger
}

// NewLogoutFilter creates a logout filter for pathPrefix.
func NewLogoutFilter(pathPrefix string, transformer ports.Transformer, validator ports.Validator, sessions ports.SessionStore, cookie CookieConfig, metrics ports.MetricsRecorder, logger *zap.Logger) *LogoutFilter {
	return &LogoutFilter{
		matcher:     chain.NewPathMatcher(pathPrefix + "/logout/**"),
		pathPrefix:  pathPrefix,
		transformer: transformer,
		validator:   validator,
		sessions:    sessions,
		cookie:      cookie,
		metrics:     metrics,
		logger:      logger,
	}
}

// Matches reports whether the request targets the logout endpoint.
func (f *LogoutFilter) Matches(r *http.Request) bool {
	return f.matcher.Matches(r)
}

// ServeHTTP dispatches to the applicable logout flow.
func (f *LogoutFilter) ServeHTTP(w http.ResponseWriter, r *http.Request, next chain.Handler) error {
	hp := HostedProviderFrom(r.Context())
	if hp == nil {
		return domain.ServiceError("No hosted provider resolved for request")
	}

	msg := MessageFrom(r.Context())
	switch {
	case msg != nil && msg.Kind == domain.MessageLogoutRequest:
		return f.handleLogoutRequest(w, r, hp, msg)
	case msg != nil && msg.Kind == domain.MessageLogoutResponse:
		return f.handleLogoutResponse(w, r, hp, msg)
	case msg != nil:
		return domain.BadRequestError("Unexpected SAML message at the logout endpoint")
	default:
		return f.initiateLogout(w, r, hp)
	}
}

// initiateLogout handles SP-initiated logout for the current session. When
// the IdP supports single logout, the browser is sent there with a
// LogoutRequest; otherwise the local session is simply dropped.
func (f *LogoutFilter) initiateLogout(w http.ResponseWriter, r *http.Request, hp *domain.HostedProvider) error {
	token := f.cookie.read(r)
	if token == "" {
		http.Redirect(w, r, f.selectURL(), http.StatusFound)
		return nil
	}

	session, err := f.sessions.Get(token)
	f.cookie.clear(w)
	if err != nil {
		http.Redirect(w, r, f.selectURL(), http.StatusFound)
		return nil
	}
	if err := f.sessions.Delete(token); err != nil {
		f.logger.Debug("session delete failed", zap.Error(err))
	}

	idp, err := hp.Provider(session.IdPEntityID)
	if err != nil || idp.SLOURL == "" {
		f.metrics.RecordLogout("local")
		f.logger.Info("local logout", zap.String("subject", session.Subject))
		http.Redirect(w, r, f.selectURL(), http.StatusFound)
		return nil
	}

	redirect, err := f.transformer.LogoutRequest(hp, idp, session, "")
	if err != nil {
		return &domain.AppError{
			Code:    domain.ErrCodeServiceError,
			Message: "The logout request could not be created",
			Cause:   err,
		}
	}

	f.metrics.RecordLogout("sp")
	f.logger.Info("logout request issued",
		zap.String("idp_entity_id", idp.EntityID),
		zap.String("subject", session.Subject))
	http.Redirect(w, r, redirect.URL.String(), http.StatusFound)
	return nil
}

// handleLogoutRequest answers an IdP-initiated LogoutRequest: the local
// session is dropped and a LogoutResponse is returned to the IdP.
func (f *LogoutFilter) handleLogoutRequest(w http.ResponseWriter, r *http.Request, hp *domain.HostedProvider, msg *domain.Message) error {
	idp, err := hp.Provider(msg.Issuer)
	if err != nil {
		return domain.ProviderNotFoundError(msg.Issuer)
	}

	validated, err := f.validator.ValidateLogoutRequest(r, hp, idp)
	if err != nil {
		return domain.AuthError("The logout request could not be validated", err)
	}

	if token := f.cookie.read(r); token != "" {
		if err := f.sessions.Delete(token); err != nil {
			f.logger.Debug("session delete failed", zap.Error(err))
		}
	}
	f.cookie.clear(w)

	redirect, err := f.transformer.LogoutResponse(hp, idp, validated.ID, validated.RelayState)
	if err != nil {
		return &domain.AppError{
			Code:    domain.ErrCodeServiceError,
			Message: "The logout response could not be created",
			Cause:   err,
		}
	}

	f.metrics.RecordLogout("idp")
	f.logger.Info("logout request honored", zap.String("idp_entity_id", idp.EntityID))
	http.Redirect(w, r, redirect.URL.String(), http.StatusFound)
	return nil
}

// handleLogoutResponse completes an SP-initiated logout when the IdP
// redirects back with its LogoutResponse.
func (f *LogoutFilter) handleLogoutResponse(w http.ResponseWriter, r *http.Request, hp *domain.HostedProvider, msg *domain.Message) error {
	idp, err := hp.Provider(msg.Issuer)
	if err != nil {
		return domain.ProviderNotFoundError(msg.Issuer)
	}

	if err := f.validator.ValidateLogoutResponse(r, hp, idp); err != nil {
		return domain.AuthError("The logout response could not be validated", err)
	}

	f.cookie.clear(w)
	f.logger.Info("logout completed", zap.String("idp_entity_id", idp.EntityID))
	http.Redirect(w, r, f.selectURL(), http.StatusFound)
	return nil
}

func (f *LogoutFilter) selectURL() string {
	return f.pathPrefix + "/select"
}

// Interface guard
var _ chain.Filter = (*LogoutFilter)(nil)
