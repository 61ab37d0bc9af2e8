package domain

import (
	"fmt"
	"time"
)

// Session holds authenticated user information.
// This is the core domain model - it has no external dependencies.
type Session struct {
	// Subject is the SAML NameID (user identifier).
	Subject string

	// Attributes contains SAML attributes from the assertion.
	Attributes map[string]string

	// IdPEntityID identifies which IdP authenticated the user.
	IdPEntityID string

	// NameIDFormat is the format of the NameID (needed for LogoutRequest).
	NameIDFormat string

	// SessionIndex is the IdP session index (needed for LogoutRequest).
	SessionIndex string

	// IssuedAt is when the session was created.
	IssuedAt time.Time

	// ExpiresAt is when the session expires.
	ExpiresAt time.Time
}

// Assertion is the validated result of consuming a SAML Response.
type Assertion struct {
	// Subject is the authenticated NameID value.
	Subject string

	// NameIDFormat is the format of the NameID.
	NameIDFormat string

	// SessionIndex is the IdP session index from the AuthnStatement.
	SessionIndex string

	// Attributes contains assertion attributes, keyed by FriendlyName
	// when present, otherwise Name.
	Attributes map[string]string

	// IdPEntityID identifies the asserting IdP.
	IdPEntityID string

	// InResponseTo links back to the originating AuthnRequest ID.
	InResponseTo string
}

// AuthnOptions controls SAML authentication request parameters.
type AuthnOptions struct {
	// ForceAuthn requests fresh authentication from the IdP even if the
	// user has a valid IdP session.
	ForceAuthn bool

	// RequestedAuthnContext is a list of authentication context class URIs
	// to request from the IdP. If empty, no RequestedAuthnContext element
	// is included in the AuthnRequest.
	RequestedAuthnContext []string

	// AuthnContextComparison specifies how the IdP should match the
	// requested context. Valid values: "exact", "minimum", "maximum",
	// "better", or "" (defaults to "exact").
	AuthnContextComparison string
}

var validComparisons = map[string]bool{
	"":        true, // default to "exact" per SAML spec
	"exact":   true,
	"minimum": true,
	"maximum": true,
	"better":  true,
}

// ValidateAuthnContextComparison validates the comparison value per the
// SAML 2.0 core specification, section 3.3.2.2.1.
func ValidateAuthnContextComparison(c string) error {
	if !validComparisons[c] {
		return fmt.Errorf("invalid AuthnContextComparison: %q (must be one of: exact, minimum, maximum, better, or empty)", c)
	}
	return nil
}
