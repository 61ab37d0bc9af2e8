// Package filters contains the security filters the configurer wires into
// the chain: request processing, SP metadata, identity provider selection,
// authentication request initiation, assertion consumption, logout, and
// session authentication.
package filters

import (
	"context"
	"net/http"

	"github.com/spauthd/samlchain/internal/core/domain"
)

type contextKey string

const (
	hostedProviderKey contextKey = "samlchain.hosted_provider"
	messageKey        contextKey = "samlchain.message"
	sessionKey        contextKey = "samlchain.session"
)

// WithHostedProvider returns a request with the resolved hosted provider
// attached to its context.
func WithHostedProvider(r *http.Request, hp *domain.HostedProvider) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), hostedProviderKey, hp))
}

// HostedProviderFrom returns the hosted provider attached by the
// processing filter, or nil.
func HostedProviderFrom(ctx context.Context) *domain.HostedProvider {
	hp, _ := ctx.Value(hostedProviderKey).(*domain.HostedProvider)
	return hp
}

// WithMessage returns a request with a decoded SAML message attached to
// its context.
func WithMessage(r *http.Request, msg *domain.Message) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), messageKey, msg))
}

// MessageFrom returns the decoded SAML message attached by the processing
// filter, or nil when the request carries none.
func MessageFrom(ctx context.Context) *domain.Message {
	msg, _ := ctx.Value(messageKey).(*domain.Message)
	return msg
}

// WithSession returns a request with the authenticated session attached to
// its context.
func WithSession(r *http.Request, s *domain.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionKey, s))
}

// SessionFrom returns the authenticated session for the request, or nil.
func SessionFrom(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey).(*domain.Session)
	return s
}
