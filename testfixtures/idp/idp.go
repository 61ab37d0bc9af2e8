// Package idp runs an in-process SAML Identity Provider for integration
// tests, backed by crewjam/saml/samlidp.
package idp

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/crewjam/saml/samlidp"

	samlchain "github.com/spauthd/samlchain"
)

// Fixture is a SAML IdP running on an httptest server. Call Close when done.
type Fixture struct {
	t      testing.TB
	server *httptest.Server
	idp    *samlidp.Server
	store  *samlidp.MemoryStore
}

// New starts a fresh IdP with a self-signed signing certificate.
func New(t testing.TB) *Fixture {
	t.Helper()

	key, cert, err := selfSignedCert()
	if err != nil {
		t.Fatalf("generate IdP certificate: %v", err)
	}

	store := &samlidp.MemoryStore{}

	// The server URL is only known after the listener is up, so route
	// through an indirection that samlidp.New can be handed afterwards.
	var f *Fixture
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f != nil && f.idp != nil {
			f.idp.ServeHTTP(w, r)
		}
	}))

	baseURL, err := url.Parse(ts.URL)
	if err != nil {
		ts.Close()
		t.Fatalf("parse test server URL: %v", err)
	}

	srv, err := samlidp.New(samlidp.Options{
		URL:         *baseURL,
		Key:         key,
		Certificate: cert,
		Store:       store,
	})
	if err != nil {
		ts.Close()
		t.Fatalf("start IdP: %v", err)
	}

	f = &Fixture{t: t, server: ts, idp: srv, store: store}
	return f
}

// Close shuts the IdP down.
func (f *Fixture) Close() {
	if f.server != nil {
		f.server.Close()
	}
}

// BaseURL returns the IdP's base URL.
func (f *Fixture) BaseURL() string { return f.server.URL }

// EntityID returns the IdP's entity ID, which samlidp derives from the
// metadata URL.
func (f *Fixture) EntityID() string { return f.server.URL + "/metadata" }

// MetadataURL returns the URL serving the IdP metadata document.
func (f *Fixture) MetadataURL() string { return f.server.URL + "/metadata" }

// SSOURL returns the single sign-on endpoint.
func (f *Fixture) SSOURL() string { return f.server.URL + "/sso" }

// Config returns an identity provider entry pointing at this IdP,
// suitable for a service provider's static configuration.
func (f *Fixture) Config() samlchain.IdPConfig {
	return samlchain.IdPConfig{
		EntityID:    f.EntityID(),
		MetadataURL: f.MetadataURL(),
		DisplayName: "Test IdP",
	}
}

// IdentityProvider returns a fully resolved identity provider record for
// this IdP, bypassing metadata fetching. Certificates are given in the
// base64 DER form used by metadata KeyDescriptors.
func (f *Fixture) IdentityProvider() samlchain.IdentityProvider {
	return samlchain.IdentityProvider{
		EntityID:     f.EntityID(),
		DisplayName:  "Test IdP",
		SSOURL:       f.SSOURL(),
		SSOBinding:   samlchain.HTTPRedirectBinding,
		Certificates: []string{base64.StdEncoding.EncodeToString(f.idp.IDP.Certificate.Raw)},
	}
}

// AddUser creates a user that can authenticate at the IdP.
func (f *Fixture) AddUser(username, password string) {
	f.t.Helper()

	user := samlidp.User{
		Name:              username,
		PlaintextPassword: &password,
		Email:             username + "@example.com",
		CommonName:        username,
		GivenName:         username,
		Surname:           "Test",
	}
	if err := f.store.Put("/users/"+username, user); err != nil {
		f.t.Fatalf("add user %s: %v", username, err)
	}
}

// AddServiceProvider fetches SP metadata from the given URL and registers
// the SP with the IdP.
func (f *Fixture) AddServiceProvider(metadataURL string) {
	f.t.Helper()

	resp, err := http.Get(metadataURL)
	if err != nil {
		f.t.Fatalf("fetch SP metadata from %s: %v", metadataURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		f.t.Fatalf("fetch SP metadata: status %d", resp.StatusCode)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		f.t.Fatalf("read SP metadata: %v", err)
	}
	f.RegisterServiceProvider(metadataURL, buf.Bytes())
}

// RegisterServiceProvider registers an SP from raw metadata XML.
func (f *Fixture) RegisterServiceProvider(entityID string, metadata []byte) {
	f.t.Helper()

	req, err := http.NewRequest(http.MethodPut,
		f.server.URL+"/services/"+url.PathEscape(entityID), bytes.NewReader(metadata))
	if err != nil {
		f.t.Fatalf("build register request: %v", err)
	}
	req.Header.Set("Content-Type", "application/xml")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		f.t.Fatalf("register SP: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusCreated {
		f.t.Fatalf("register SP: status %d", resp.StatusCode)
	}
}

// CertificatePEM returns the IdP signing certificate in PEM form.
func (f *Fixture) CertificatePEM() []byte {
	cert := f.idp.IDP.Certificate
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

func selfSignedCert() (*rsa.PrivateKey, *x509.Certificate, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "Test IdP",
			Organization: []string{"Test"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
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
