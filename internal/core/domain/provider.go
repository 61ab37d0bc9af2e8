package domain

import (
	"crypto/rsa"
	"crypto/x509"
	"net/url"
	"strings"
)

// SAML binding URIs used for endpoint configuration.
const (
	HTTPRedirectBinding = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"
	HTTPPostBinding     = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
)

// HostedProvider is the local Service Provider configuration resolved for a
// request. It is immutable after resolution and shared by reference.
type HostedProvider struct {
	// EntityID is the SAML entity ID for this SP.
	EntityID string

	// PathPrefix is the normalized URL prefix all SP endpoints live under,
	// e.g. "/saml/sp". Always starts with "/" and has no trailing slash.
	PathPrefix string

	// BaseURL is the external base URL of this SP (scheme and host),
	// resolved from configuration or from the incoming request.
	BaseURL *url.URL

	// Key is the SP private key, used for request signing and session tokens.
	Key *rsa.PrivateKey

	// Certificate is the SP signing/encryption certificate.
	Certificate *x509.Certificate

	// SignRequests controls whether outgoing AuthnRequests are signed.
	SignRequests bool

	// WantAssertionsSigned is advertised in SP metadata.
	WantAssertionsSigned bool

	// NameIDFormat is the requested NameID format, empty for unspecified.
	NameIDFormat string

	// Providers are the identity providers configured for this SP.
	Providers []IdentityProvider
}

// MetadataURL returns the absolute URL of the SP metadata endpoint.
func (p *HostedProvider) MetadataURL() *url.URL {
	return p.endpoint("/metadata")
}

// ACSURL returns the absolute URL of the assertion consumer endpoint.
func (p *HostedProvider) ACSURL() *url.URL {
	return p.endpoint("/SSO")
}

// SLOURL returns the absolute URL of the single logout endpoint.
func (p *HostedProvider) SLOURL() *url.URL {
	return p.endpoint("/logout")
}

func (p *HostedProvider) endpoint(suffix string) *url.URL {
	u := *p.BaseURL
	u.Path = p.PathPrefix + suffix
	return &u
}

// Provider returns the configured identity provider with the given entity
// ID, or ErrIdPNotFound.
func (p *HostedProvider) Provider(entityID string) (*IdentityProvider, error) {
	for i := range p.Providers {
		if p.Providers[i].EntityID == entityID {
			return &p.Providers[i], nil
		}
	}
	return nil, ErrIdPNotFound
}

// IdentityProvider describes a remote IdP this SP can authenticate against.
type IdentityProvider struct {
	// EntityID is the unique identifier of the IdP.
	EntityID string `json:"entity_id"`

	// Alias is a short name used in selection UIs and URLs.
	Alias string `json:"alias,omitempty"`

	// DisplayName is a human-readable name for selection UIs.
	DisplayName string `json:"display_name,omitempty"`

	// SSOURL is the Single Sign-On endpoint URL.
	SSOURL string `json:"sso_url"`

	// SSOBinding is the SAML binding for the SSO endpoint.
	SSOBinding string `json:"sso_binding"`

	// SLOURL is the Single Logout endpoint URL (optional).
	SLOURL string `json:"slo_url,omitempty"`

	// SLOBinding is the SAML binding for the SLO endpoint.
	SLOBinding string `json:"slo_binding,omitempty"`

	// Certificates are the IdP signing certificates (base64 DER, as they
	// appear in metadata KeyDescriptors). Excluded from JSON for security.
	Certificates []string `json:"-"`

	// MetadataSource points at the IdP metadata when endpoints are not
	// configured inline. Either a URL or a local file path.
	MetadataSource string `json:"metadata_source,omitempty"`
}

// Name returns the best display label for the IdP.
func (i *IdentityProvider) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if i.Alias != "" {
		return i.Alias
	}
	return i.EntityID
}

// Resolved reports whether the IdP has usable inline endpoint configuration.
func (i *IdentityProvider) Resolved() bool {
	return i.SSOURL != "" && len(i.Certificates) > 0
}

// NormalizePathPrefix strips surrounding slashes and returns the prefix
// with exactly one leading slash and no trailing slash. An empty input
// yields "/".
func NormalizePathPrefix(prefix string) string {
	trimmed := strings.Trim(prefix, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed
}
