package samlchain

import (
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// Re-export domain types
type HostedProvider = domain.HostedProvider
type IdentityProvider = domain.IdentityProvider
type Session = domain.Session
type Assertion = domain.Assertion
type AuthnOptions = domain.AuthnOptions
type Message = domain.Message
type MessageKind = domain.MessageKind
type RedirectMessage = domain.RedirectMessage

// Re-export SAML binding URIs
const (
	HTTPRedirectBinding = domain.HTTPRedirectBinding
	HTTPPostBinding     = domain.HTTPPostBinding
)

// Re-export message kinds
const (
	MessageAuthnRequest   = domain.MessageAuthnRequest
	MessageResponse       = domain.MessageResponse
	MessageLogoutRequest  = domain.MessageLogoutRequest
	MessageLogoutResponse = domain.MessageLogoutResponse
)

// Re-export domain helpers
var (
	ValidateRelayState             = domain.ValidateRelayState
	NormalizePathPrefix            = domain.NormalizePathPrefix
	ValidateAuthnContextComparison = domain.ValidateAuthnContextComparison
)

// Re-export the collaborator ports
type Transformer = ports.Transformer
type Validator = ports.Validator
type ProviderResolver = ports.ProviderResolver
type ConfigurationResolver = ports.ConfigurationResolver
type MetadataResolver = ports.MetadataResolver
type MetadataHealth = ports.MetadataHealth
type SessionStore = ports.SessionStore
type RequestStore = ports.RequestStore
type MetricsRecorder = ports.MetricsRecorder
type SignatureVerifier = ports.SignatureVerifier
type TemplateEngine = ports.TemplateEngine
type SelectData = ports.SelectData
type PostData = ports.PostData
type ErrorData = ports.ErrorData
