// Package provider wires hosted service provider configuration into the
// resolver ports: a static configuration resolver backed by a Config, and
// a provider resolver that materializes identity provider metadata.
package provider

import (
	"fmt"

	"github.com/spauthd/samlchain/internal/core/domain"
)

// DefaultPathPrefix is the URL prefix SP endpoints live under when no
// prefix is configured.
const DefaultPathPrefix = "/saml/sp"

// Config holds the static configuration of the hosted service provider.
type Config struct {
	// EntityID is the SAML entity ID for this SP (required).
	EntityID string `json:"entity_id,omitempty"`

	// PathPrefix is the URL prefix all SP endpoints live under.
	// Defaults to "/saml/sp".
	PathPrefix string `json:"path_prefix,omitempty"`

	// BaseURL is the external base URL of this SP (scheme and host).
	// If not set, it is derived from each incoming request.
	BaseURL string `json:"base_url,omitempty"`

	// KeyFile is the path to the SP private key file (PEM format).
	KeyFile string `json:"key_file,omitempty"`

	// CertFile is the path to the SP certificate file (PEM format).
	CertFile string `json:"cert_file,omitempty"`

	// SignRequests controls whether outgoing authentication requests are
	// signed. Requires KeyFile and CertFile.
	SignRequests bool `json:"sign_requests,omitempty"`

	// WantAssertionsSigned is advertised in SP metadata. Defaults to true.
	WantAssertionsSigned *bool `json:"want_assertions_signed,omitempty"`

	// NameIDFormat is the requested NameID format, empty for unspecified.
	NameIDFormat string `json:"name_id_format,omitempty"`

	// IdentityProviders are the IdPs this SP can authenticate against.
	IdentityProviders []IdPConfig `json:"identity_providers,omitempty"`
}

// IdPConfig describes one identity provider. Endpoints may be configured
// inline or resolved from a metadata source.
type IdPConfig struct {
	// EntityID is the unique identifier of the IdP (required).
	EntityID string `json:"entity_id,omitempty"`

	// Alias is a short name used in selection UIs and URLs.
	Alias string `json:"alias,omitempty"`

	// DisplayName is a human-readable name for selection UIs.
	DisplayName string `json:"display_name,omitempty"`

	// SSOURL is the Single Sign-On endpoint URL (inline configuration).
	SSOURL string `json:"sso_url,omitempty"`

	// SSOBinding is the SAML binding for the SSO endpoint.
	// Defaults to HTTP-Redirect when SSOURL is set.
	SSOBinding string `json:"sso_binding,omitempty"`

	// SLOURL is the Single Logout endpoint URL (optional).
	SLOURL string `json:"slo_url,omitempty"`

	// SLOBinding is the SAML binding for the SLO endpoint.
	SLOBinding string `json:"slo_binding,omitempty"`

	// Certificates are the IdP signing certificates as base64 DER.
	Certificates []string `json:"certificates,omitempty"`

	// MetadataURL is a URL to fetch the IdP metadata from.
	// Either inline endpoints or one metadata source must be set.
	MetadataURL string `json:"metadata_url,omitempty"`

	// MetadataFile is the path to a local IdP metadata file.
	MetadataFile string `json:"metadata_file,omitempty"`
}

// SetDefaults fills in default values for unset fields.
func (c *Config) SetDefaults() {
	if c.PathPrefix == "" {
		c.PathPrefix = DefaultPathPrefix
	}
	c.PathPrefix = domain.NormalizePathPrefix(c.PathPrefix)
	if c.WantAssertionsSigned == nil {
		t := true
		c.WantAssertionsSigned = &t
	}
	for i := range c.IdentityProviders {
		idp := &c.IdentityProviders[i]
		if idp.SSOURL != "" && idp.SSOBinding == "" {
			idp.SSOBinding = domain.HTTPRedirectBinding
		}
		if idp.SLOURL != "" && idp.SLOBinding == "" {
			idp.SLOBinding = domain.HTTPRedirectBinding
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.EntityID == "" {
		return fmt.Errorf("entity_id is required")
	}

	if c.SignRequests && (c.KeyFile == "" || c.CertFile == "") {
		return fmt.Errorf("key_file and cert_file are required when sign_requests is enabled")
	}
	if (c.KeyFile == "") != (c.CertFile == "") {
		return fmt.Errorf("key_file and cert_file must be set together")
	}

	if len(c.IdentityProviders) == 0 {
		return fmt.Errorf("at least one identity provider is required")
	}

	seen := make(map[string]bool, len(c.IdentityProviders))
	for i, idp := range c.IdentityProviders {
		if idp.EntityID == "" {
			return fmt.Errorf("identity_providers[%d]: entity_id is required", i)
		}
		if seen[idp.EntityID] {
			return fmt.Errorf("identity_providers[%d]: duplicate entity_id %q", i, idp.EntityID)
		}
		seen[idp.EntityID] = true

		inline := idp.SSOURL != ""
		if idp.MetadataURL != "" && idp.MetadataFile != "" {
			return fmt.Errorf("identity_providers[%d]: only one of metadata_url or metadata_file can be specified", i)
		}
		hasSource := idp.MetadataURL != "" || idp.MetadataFile != ""
		if !inline && !hasSource {
			return fmt.Errorf("identity_providers[%d]: either sso_url or a metadata source is required", i)
		}
		if inline && len(idp.Certificates) == 0 {
			return fmt.Errorf("identity_providers[%d]: certificates are required with inline sso_url", i)
		}
	}
	return nil
}

// metadataSource returns the configured metadata source, URL before file.
func (c *IdPConfig) metadataSource() string {
	if c.MetadataURL != "" {
		return c.MetadataURL
	}
	return c.MetadataFile
}
