// Package metadata generates signed SAML metadata documents for tests.
// Documents are signed with goxmldsig, the same library the signature
// verifier uses, so tests exercise the real verification path.
package metadata

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
)

const metadataNS = "urn:oasis:names:tc:SAML:2.0:metadata"

// Signer produces signed metadata XML with an auto-generated certificate.
type Signer struct {
	t           testing.TB
	privateKey  *rsa.PrivateKey
	certificate *x509.Certificate
}

// New creates a Signer with a fresh self-signed certificate.
func New(t testing.TB) *Signer {
	t.Helper()

	key, cert, err := selfSignedCert()
	if err != nil {
		t.Fatalf("generate signing certificate: %v", err)
	}
	return &Signer{t: t, privateKey: key, certificate: cert}
}

// Certificate returns the signing certificate, for verifier setup.
func (s *Signer) Certificate() *x509.Certificate {
	return s.certificate
}

// Sign envelops the given XML document in an XML signature.
func (s *Signer) Sign(doc []byte) ([]byte, error) {
	if len(doc) == 0 {
		return nil, errors.New("empty metadata")
	}

	parsed := etree.NewDocument()
	if err := parsed.ReadFromBytes(doc); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}
	root := parsed.Root()
	if root == nil {
		return nil, errors.New("empty XML document")
	}

	keyStore := dsig.TLSCertKeyStore(tls.Certificate{
		Certificate: [][]byte{s.certificate.Raw},
		PrivateKey:  s.privateKey,
	})
	ctx := dsig.NewDefaultSigningContext(keyStore)
	ctx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")

	signed, err := ctx.SignEnveloped(root)
	if err != nil {
		return nil, fmt.Errorf("sign XML: %w", err)
	}
	parsed.SetRoot(signed)

	out, err := parsed.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize signed XML: %w", err)
	}
	return out, nil
}

// IdPMetadata creates and signs a minimal IdP entity descriptor. The
// descriptor carries the signer's certificate as its signing key so the
// result also satisfies parsers that require a KeyDescriptor.
func (s *Signer) IdPMetadata(entityID string) ([]byte, error) {
	return s.Sign([]byte(s.idpDescriptor(entityID)))
}

// AggregateMetadata creates and signs an EntitiesDescriptor containing
// one IdP entity descriptor per entity ID.
func (s *Signer) AggregateMetadata(entityIDs []string) ([]byte, error) {
	var entities string
	for _, id := range entityIDs {
		entities += "\n" + s.idpDescriptor(id)
	}
	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<EntitiesDescriptor xmlns="%s" Name="Test Federation">%s
</EntitiesDescriptor>`, metadataNS, entities)
	return s.Sign([]byte(doc))
}

func (s *Signer) idpDescriptor(entityID string) string {
	cert := base64.StdEncoding.EncodeToString(s.certificate.Raw)
	return fmt.Sprintf(`<EntityDescriptor xmlns="%s" entityID="%s">
  <IDPSSODescriptor protocolSupportEnumeration="urn:oasis:names:tc:SAML:2.0:protocol">
    <KeyDescriptor use="signing">
      <KeyInfo xmlns="http://www.w3.org/2000/09/xmldsig#">
        <X509Data><X509Certificate>%s</X509Certificate></X509Data>
      </KeyInfo>
    </KeyDescriptor>
    <SingleSignOnService Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect" Location="%s/sso"/>
  </IDPSSODescriptor>
</EntityDescriptor>`, metadataNS, entityID, cert, entityID)
}

func selfSignedCert() (*rsa.PrivateKey, *x509.Certificate, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "Test Metadata Signer",
			Organization: []string{"Test"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("parse certificate: %w", err)
	}
	return key, cert, nil
}
