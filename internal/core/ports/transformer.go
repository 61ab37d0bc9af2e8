package ports

import (
	"net/http"

	"github.com/spauthd/samlchain/internal/core/domain"
)

// Transformer builds, encodes, and decodes SAML protocol messages for a
// hosted Service Provider. Implementations must be safe for concurrent use;
// the chain resolves a single instance at startup and shares it across
// filters for the lifetime of the process.
type Transformer interface {
	// SPMetadata renders the hosted provider's EntityDescriptor XML.
	SPMetadata(sp *domain.HostedProvider) ([]byte, error)

	// AuthenticationRequest builds an AuthnRequest for the identity
	// provider and encodes it for the HTTP-Redirect binding. The returned
	// message ID must be recorded for InResponseTo validation.
	AuthenticationRequest(sp *domain.HostedProvider, idp *domain.IdentityProvider, relayState string, opts domain.AuthnOptions) (*domain.RedirectMessage, error)

	// LogoutRequest builds an SP-initiated LogoutRequest for the identity
	// provider, encoded for the HTTP-Redirect binding.
	LogoutRequest(sp *domain.HostedProvider, idp *domain.IdentityProvider, session *domain.Session, relayState string) (*domain.RedirectMessage, error)

	// LogoutResponse builds a LogoutResponse answering an IdP-initiated
	// LogoutRequest, encoded for the HTTP-Redirect binding.
	LogoutResponse(sp *domain.HostedProvider, idp *domain.IdentityProvider, inResponseTo string, relayState string) (*domain.RedirectMessage, error)

	// DecodeMessage decodes a SAMLRequest or SAMLResponse parameter from
	// the request into a message envelope without validating it. Returns
	// (nil, nil) when the request carries no SAML message.
	DecodeMessage(r *http.Request) (*domain.Message, error)
}

// Validator performs full validation of inbound SAML protocol messages:
// signatures, conditions, audience restrictions, and InResponseTo
// correlation. Implementations must be safe for concurrent use.
type Validator interface {
	// ValidateResponse parses and validates the SAML Response carried by
	// the request and returns the validated assertion. requestIDs holds
	// the outstanding AuthnRequest IDs eligible for InResponseTo matching.
	ValidateResponse(r *http.Request, sp *domain.HostedProvider, idp *domain.IdentityProvider, requestIDs []string) (*domain.Assertion, error)

	// ValidateLogoutRequest validates an IdP-initiated LogoutRequest and
	// returns its envelope.
	ValidateLogoutRequest(r *http.Request, sp *domain.HostedProvider, idp *domain.IdentityProvider) (*domain.Message, error)

	// ValidateLogoutResponse validates a LogoutResponse answering an
	// SP-initiated logout.
	ValidateLogoutResponse(r *http.Request, sp *domain.HostedProvider, idp *domain.IdentityProvider) error
}
