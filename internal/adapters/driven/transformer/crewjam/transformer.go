// Package crewjam implements the SAML transformer and validator ports on
// top of github.com/crewjam/saml. It registers itself as the "crewjam"
// implementation; blank-importing this package (directly or via the public
// shim at the module root) is what makes the default transformer
// resolvable.
package crewjam

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/beevik/etree"
	"github.com/crewjam/saml"

	"github.com/spauthd/samlchain/internal/adapters/driven/transformer"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

func init() {
	transformer.Register(transformer.Implementation{
		Name: "crewjam",
		NewTransformer: func() (ports.Transformer, error) {
			return NewTransformer(), nil
		},
		NewValidator: func(t ports.Transformer) (ports.Validator, error) {
			return NewValidator(), nil
		},
	})
}

const rsaSHA256SignatureMethod = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"

// Transformer builds and decodes SAML protocol messages using crewjam/saml.
// It is stateless and safe for concurrent use.
type Transformer struct{}

// NewTransformer creates a crewjam-backed transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// buildServiceProvider assembles a crewjam ServiceProvider for the hosted
// provider, optionally bound to one identity provider's metadata.
func buildServiceProvider(sp *domain.HostedProvider, idp *domain.IdentityProvider) (*saml.ServiceProvider, error) {
	csp := &saml.ServiceProvider{
		EntityID:    sp.EntityID,
		Key:         sp.Key,
		Certificate: sp.Certificate,
		MetadataURL: *sp.MetadataURL(),
		AcsURL:      *sp.ACSURL(),
		SloURL:      *sp.SLOURL(),
	}
	if sp.SignRequests {
		csp.SignatureMethod = rsaSHA256SignatureMethod
	}
	if sp.NameIDFormat != "" {
		csp.AuthnNameIDFormat = saml.NameIDFormat(sp.NameIDFormat)
	}
	csp.LogoutBindings = []string{saml.HTTPRedirectBinding}

	if idp != nil {
		md, err := idpEntityDescriptor(idp)
		if err != nil {
			return nil, err
		}
		csp.IDPMetadata = md
	}
	return csp, nil
}

// idpEntityDescriptor converts an IdentityProvider to a crewjam
// EntityDescriptor.
func idpEntityDescriptor(idp *domain.IdentityProvider) (*saml.EntityDescriptor, error) {
	if !idp.Resolved() {
		return nil, fmt.Errorf("identity provider %q has unresolved metadata", idp.EntityID)
	}

	ed := &saml.EntityDescriptor{
		EntityID: idp.EntityID,
		IDPSSODescriptors: []saml.IDPSSODescriptor{{
			SingleSignOnServices: []saml.Endpoint{{
				Binding:  idp.SSOBinding,
				Location: idp.SSOURL,
			}},
		}},
	}

	if idp.SLOURL != "" {
		ed.IDPSSODescriptors[0].SingleLogoutServices = []saml.Endpoint{{
			Binding:  idp.SLOBinding,
			Location: idp.SLOURL,
		}}
	}

	for _, certData := range idp.Certificates {
		ed.IDPSSODescriptors[0].KeyDescriptors = append(
			ed.IDPSSODescriptors[0].KeyDescriptors,
			saml.KeyDescriptor{
				Use: "signing",
				KeyInfo: saml.KeyInfo{
					X509Data: saml.X509Data{
						X509Certificates: []saml.X509Certificate{{Data: certData}},
					},
				},
			},
		)
	}

	return ed, nil
}

// SPMetadata renders the hosted provider's EntityDescriptor XML.
func (t *Transformer) SPMetadata(sp *domain.HostedProvider) ([]byte, error) {
	csp, err := buildServiceProvider(sp, nil)
	if err != nil {
		return nil, err
	}
	metadata := csp.Metadata()
	return xml.MarshalIndent(metadata, "", "  ")
}

// AuthenticationRequest builds an AuthnRequest and encodes it for the
// HTTP-Redirect binding.
func (t *Transformer) AuthenticationRequest(sp *domain.HostedProvider, idp *domain.IdentityProvider, relayState string, opts domain.AuthnOptions) (*domain.RedirectMessage, error) {
	csp, err := buildServiceProvider(sp, idp)
	if err != nil {
		return nil, err
	}

	authReq, err := csp.MakeAuthenticationRequest(idp.SSOURL, saml.HTTPRedirectBinding, saml.HTTPPostBinding)
	if err != nil {
		return nil, fmt.Errorf("make authentication request: %w", err)
	}

	if opts.ForceAuthn {
		force := true
		authReq.ForceAuthn = &force
	}

	// crewjam/saml supports a single AuthnContextClassRef; use the first.
	if len(opts.RequestedAuthnContext) > 0 {
		comparison := opts.AuthnContextComparison
		if comparison == "" {
			comparison = "exact"
		}
		authReq.RequestedAuthnContext = &saml.RequestedAuthnContext{
			Comparison:           comparison,
			AuthnContextClassRef: opts.RequestedAuthnContext[0],
		}
	}

	redirectURL, err := authReq.Redirect(relayState, csp)
	if err != nil {
		return nil, fmt.Errorf("encode redirect binding: %w", err)
	}

	return &domain.RedirectMessage{ID: authReq.ID, URL: redirectURL}, nil
}

// LogoutRequest builds an SP-initiated LogoutRequest redirect.
func (t *Transformer) LogoutRequest(sp *domain.HostedProvider, idp *domain.IdentityProvider, session *domain.Session, relayState string) (*domain.RedirectMessage, error) {
	csp, err := buildServiceProvider(sp, idp)
	if err != nil {
		return nil, err
	}
	if session.NameIDFormat != "" {
		csp.AuthnNameIDFormat = saml.NameIDFormat(session.NameIDFormat)
	}

	redirectURL, err := csp.MakeRedirectLogoutRequest(session.Subject, relayState)
	if err != nil {
		return nil, fmt.Errorf("make logout request: %w", err)
	}
	return &domain.RedirectMessage{URL: redirectURL}, nil
}

// LogoutResponse builds a LogoutResponse redirect answering an
// IdP-initiated LogoutRequest.
func (t *Transformer) LogoutResponse(sp *domain.HostedProvider, idp *domain.IdentityProvider, inResponseTo string, relayState string) (*domain.RedirectMessage, error) {
	csp, err := buildServiceProvider(sp, idp)
	if err != nil {
		return nil, err
	}

	redirectURL, err := csp.MakeRedirectLogoutResponse(inResponseTo, relayState)
	if err != nil {
		return nil, fmt.Errorf("make logout response: %w", err)
	}
	return &domain.RedirectMessage{URL: redirectURL}, nil
}

// DecodeMessage decodes a SAMLRequest or SAMLResponse parameter into a
// message envelope without validating it.
func (t *Transformer) DecodeMessage(r *http.Request) (*domain.Message, error) {
	var encoded, relayState, binding string
	var deflated bool

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		encoded = q.Get("SAMLRequest")
		if encoded == "" {
			encoded = q.Get("SAMLResponse")
		}
		relayState = q.Get("RelayState")
		binding = saml.HTTPRedirectBinding
		deflated = true
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		encoded = r.PostForm.Get("SAMLRequest")
		if encoded == "" {
			encoded = r.PostForm.Get("SAMLResponse")
		}
		relayState = r.PostForm.Get("RelayState")
		binding = saml.HTTPPostBinding
	}
	if encoded == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	if deflated {
		inflated, err := inflate(raw)
		if err != nil {
			return nil, fmt.Errorf("inflate message: %w", err)
		}
		raw = inflated
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parse message XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("message has no root element")
	}

	msg := &domain.Message{
		Kind:         domain.MessageKind(root.Tag),
		ID:           root.SelectAttrValue("ID", ""),
		InResponseTo: root.SelectAttrValue("InResponseTo", ""),
		RelayState:   relayState,
		Binding:      binding,
		Raw:          raw,
	}
	if issuer := root.SelectElement("Issuer"); issuer != nil {
		msg.Issuer = issuer.Text()
	}
	return msg, nil
}

// inflate decompresses a raw DEFLATE stream, bounding the output size to
// guard against decompression bombs.
func inflate(data []byte) ([]byte, error) {
	const maxMessageSize = 1 << 20 // 1 MiB

	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(fr, maxMessageSize+1))
	if err != nil {
		return nil, err
	}
	if n > maxMessageSize {
		return nil, fmt.Errorf("message exceeds %d bytes", maxMessageSize)
	}
	return buf.Bytes(), nil
}

// Interface guard
var _ ports.Transformer = (*Transformer)(nil)
