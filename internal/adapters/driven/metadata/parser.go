// Package metadata resolves identity provider metadata from inline
// configuration, local files, or remote URLs, with caching and graceful
// degradation on refresh failure.
package metadata

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/crewjam/saml"

	"github.com/spauthd/samlchain/internal/core/domain"
)

// rawMetadataValidity is used to extract validUntil from metadata.
// Works for both EntitiesDescriptor and EntityDescriptor.
type rawMetadataValidity struct {
	ValidUntil string `xml:"validUntil,attr"`
}

// ParseIdentityProviders parses SAML metadata XML into identity provider
// descriptions, supporting both single EntityDescriptor and aggregate
// EntitiesDescriptor formats. Entities without an IDPSSODescriptor (SP
// metadata and the like) are skipped.
// Returns ErrMetadataExpired if the metadata has a validUntil attribute in
// the past.
func ParseIdentityProviders(data []byte, now time.Time) ([]domain.IdentityProvider, error) {
	if err := validateExpiry(data, now); err != nil {
		return nil, err
	}

	// Try EntitiesDescriptor first (aggregate metadata)
	var entities saml.EntitiesDescriptor
	if err := xml.Unmarshal(data, &entities); err == nil && len(entities.EntityDescriptors)+len(entities.EntitiesDescriptors) > 0 {
		idps := collectIdPs(&entities)
		if len(idps) == 0 {
			return nil, fmt.Errorf("no identity providers found in aggregate metadata")
		}
		return idps, nil
	}

	// Fall back to single EntityDescriptor
	var ed saml.EntityDescriptor
	if err := xml.Unmarshal(data, &ed); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	idp, err := extractIdP(&ed)
	if err != nil {
		return nil, err
	}
	return []domain.IdentityProvider{*idp}, nil
}

// validateExpiry extracts validUntil from metadata and rejects expired
// documents. Missing or unparseable validUntil is left to the main parser.
func validateExpiry(data []byte, now time.Time) error {
	var validity rawMetadataValidity
	if err := xml.Unmarshal(data, &validity); err != nil {
		return nil
	}
	if validity.ValidUntil == "" {
		return nil
	}

	validUntil, err := time.Parse(time.RFC3339, validity.ValidUntil)
	if err != nil {
		return fmt.Errorf("invalid validUntil format %q: %w", validity.ValidUntil, err)
	}
	if validUntil.Before(now) {
		return fmt.Errorf("%w: validUntil %s is in the past", domain.ErrMetadataExpired, validity.ValidUntil)
	}
	return nil
}

// collectIdPs recursively extracts IdPs from an aggregate metadata document.
func collectIdPs(entities *saml.EntitiesDescriptor) []domain.IdentityProvider {
	var idps []domain.IdentityProvider
	for i := range entities.EntityDescriptors {
		idp, err := extractIdP(&entities.EntityDescriptors[i])
		if err != nil {
			// Skip entities without IDPSSODescriptor (SPs, etc.)
			continue
		}
		idps = append(idps, *idp)
	}
	for i := range entities.EntitiesDescriptors {
		idps = append(idps, collectIdPs(&entities.EntitiesDescriptors[i])...)
	}
	return idps
}

// extractIdP extracts an identity provider description from a single
// EntityDescriptor.
func extractIdP(ed *saml.EntityDescriptor) (*domain.IdentityProvider, error) {
	if ed.EntityID == "" {
		return nil, fmt.Errorf("missing entityID attribute")
	}
	if len(ed.IDPSSODescriptors) == 0 {
		return nil, fmt.Errorf("no IDPSSODescriptor found for %s", ed.EntityID)
	}

	idpDesc := ed.IDPSSODescriptors[0]

	// Prefer HTTP-Redirect, fall back to HTTP-POST
	var ssoURL, ssoBinding string
	for _, sso := range idpDesc.SingleSignOnServices {
		if sso.Binding == saml.HTTPRedirectBinding {
			ssoURL = sso.Location
			ssoBinding = sso.Binding
			break
		}
		if sso.Binding == saml.HTTPPostBinding && ssoURL == "" {
			ssoURL = sso.Location
			ssoBinding = sso.Binding
		}
	}
	if ssoURL == "" {
		return nil, fmt.Errorf("no usable SingleSignOnService endpoint for %s", ed.EntityID)
	}

	var sloURL, sloBinding string
	for _, slo := range idpDesc.SingleLogoutServices {
		if slo.Binding == saml.HTTPRedirectBinding {
			sloURL = slo.Location
			sloBinding = slo.Binding
			break
		}
		if slo.Binding == saml.HTTPPostBinding && sloURL == "" {
			sloURL = slo.Location
			sloBinding = slo.Binding
		}
	}

	var certs []string
	for _, kd := range idpDesc.KeyDescriptors {
		if kd.Use == "signing" || kd.Use == "" {
			for _, cert := range kd.KeyInfo.X509Data.X509Certificates {
				certs = append(certs, cert.Data)
			}
		}
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("no signing certificates for %s", ed.EntityID)
	}

	displayName := ""
	if ed.Organization != nil && len(ed.Organization.OrganizationDisplayNames) > 0 {
		displayName = ed.Organization.OrganizationDisplayNames[0].Value
	}

	return &domain.IdentityProvider{
		EntityID:     ed.EntityID,
		DisplayName:  displayName,
		SSOURL:       ssoURL,
		SSOBinding:   ssoBinding,
		SLOURL:       sloURL,
		SLOBinding:   sloBinding,
		Certificates: certs,
	}, nil
}
