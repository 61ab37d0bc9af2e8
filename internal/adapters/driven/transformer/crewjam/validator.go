package crewjam

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/beevik/etree"
	"github.com/crewjam/saml"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// Validator validates inbound SAML protocol messages using crewjam/saml
// for responses and goxmldsig for logout request signatures. It is
// stateless and safe for concurrent use.
type Validator struct{}

// NewValidator creates a crewjam-backed validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateResponse parses and validates the SAML Response carried by the
// request. Signature checking, condition evaluation, and InResponseTo
// correlation are delegated to crewjam's ParseResponse; encrypted
// assertions are decrypted with the SP private key.
func (v *Validator) ValidateResponse(r *http.Request, sp *domain.HostedProvider, idp *domain.IdentityProvider, requestIDs []string) (*domain.Assertion, error) {
	csp, err := buildServiceProvider(sp, idp)
	if err != nil {
		return nil, err
	}

	assertion, err := csp.ParseResponse(r, requestIDs)
	if err != nil {
		// crewjam hides the real failure behind a generic public message.
		var ire *saml.InvalidResponseError
		if errors.As(err, &ire) && ire.PrivateErr != nil {
			return nil, fmt.Errorf("parse saml response: %w", ire.PrivateErr)
		}
		return nil, fmt.Errorf("parse saml response: %w", err)
	}

	return assertionResult(assertion, idp.EntityID), nil
}

// assertionResult extracts the domain assertion from a validated crewjam
// assertion.
func assertionResult(assertion *saml.Assertion, idpEntityID string) *domain.Assertion {
	result := &domain.Assertion{
		Attributes:  make(map[string]string),
		IdPEntityID: idpEntityID,
	}

	if assertion.Subject != nil && assertion.Subject.NameID != nil {
		result.Subject = assertion.Subject.NameID.Value
		result.NameIDFormat = assertion.Subject.NameID.Format
	}

	if len(assertion.AuthnStatements) > 0 {
		result.SessionIndex = assertion.AuthnStatements[0].SessionIndex
	}

	for _, stmt := range assertion.AttributeStatements {
		for _, attr := range stmt.Attributes {
			if len(attr.Values) == 0 {
				continue
			}
			key := attr.FriendlyName
			if key == "" {
				key = attr.Name
			}
			result.Attributes[key] = attr.Values[0].Value
		}
	}

	if assertion.Subject != nil {
		for _, sc := range assertion.Subject.SubjectConfirmations {
			if sc.SubjectConfirmationData != nil && sc.SubjectConfirmationData.InResponseTo != "" {
				result.InResponseTo = sc.SubjectConfirmationData.InResponseTo
				break
			}
		}
	}

	return result
}

// ValidateLogoutRequest validates an IdP-initiated LogoutRequest: issuer,
// destination, and (when present) the XML signature against the IdP's
// signing certificates.
func (v *Validator) ValidateLogoutRequest(r *http.Request, sp *domain.HostedProvider, idp *domain.IdentityProvider) (*domain.Message, error) {
	t := NewTransformer()
	msg, err := t.DecodeMessage(r)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.Kind != domain.MessageLogoutRequest {
		return nil, fmt.Errorf("request does not carry a LogoutRequest")
	}

	if msg.Issuer != idp.EntityID {
		return nil, fmt.Errorf("logout request issuer %q does not match identity provider %q", msg.Issuer, idp.EntityID)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(msg.Raw); err != nil {
		return nil, fmt.Errorf("parse logout request: %w", err)
	}
	root := doc.Root()

	if dest := root.SelectAttrValue("Destination", ""); dest != "" {
		if want := sp.SLOURL().String(); dest != want {
			return nil, fmt.Errorf("logout request destination %q does not match %q", dest, want)
		}
	}

	// The redirect binding moves the signature into query parameters,
	// which crewjam validates on response parsing but offers no hook for
	// here; embedded signatures are verified directly.
	if root.FindElement("./Signature") != nil {
		if err := verifyEnvelopedSignature(root, idp.Certificates); err != nil {
			return nil, fmt.Errorf("logout request signature: %w", err)
		}
	}

	return msg, nil
}

// ValidateLogoutResponse validates a LogoutResponse answering an
// SP-initiated logout.
func (v *Validator) ValidateLogoutResponse(r *http.Request, sp *domain.HostedProvider, idp *domain.IdentityProvider) error {
	csp, err := buildServiceProvider(sp, idp)
	if err != nil {
		return err
	}
	if err := csp.ValidateLogoutResponseRequest(r); err != nil {
		return fmt.Errorf("validate logout response: %w", err)
	}
	return nil
}

// verifyEnvelopedSignature checks an enveloped XML signature against the
// identity provider's signing certificates (base64 DER, as carried in
// metadata).
func verifyEnvelopedSignature(el *etree.Element, certs []string) error {
	if len(certs) == 0 {
		return fmt.Errorf("no signing certificates configured")
	}

	roots := make([]*x509.Certificate, 0, len(certs))
	for _, data := range certs {
		der, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return fmt.Errorf("decode certificate: %w", err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return fmt.Errorf("parse certificate: %w", err)
		}
		roots = append(roots, cert)
	}

	ctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{Roots: roots})
	if _, err := ctx.Validate(el); err != nil {
		return err
	}
	return nil
}

// Interface guard
var _ ports.Validator = (*Validator)(nil)
