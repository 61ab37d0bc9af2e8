package crewjam

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/spauthd/samlchain/internal/core/domain"
)

func testProvider(t *testing.T) *domain.HostedProvider {
	t.Helper()
	base, err := url.Parse("https://sp.example.com")
	if err != nil {
		t.Fatalf("parse base URL: %v", err)
	}
	return &domain.HostedProvider{
		EntityID:   "https://sp.example.com/saml/sp/metadata",
		PathPrefix: "/saml/sp",
		BaseURL:    base,
		Providers: []domain.IdentityProvider{{
			EntityID:     "https://idp.example.org/metadata",
			SSOURL:       "https://idp.example.org/sso",
			SSOBinding:   domain.HTTPRedirectBinding,
			SLOURL:       "https://idp.example.org/slo",
			SLOBinding:   domain.HTTPRedirectBinding,
			Certificates: []string{"TUlJQ2NlcnQ="},
		}},
	}
}

func TestSPMetadata(t *testing.T) {
	sp := testProvider(t)
	tr := NewTransformer()

	md, err := tr.SPMetadata(sp)
	if err != nil {
		t.Fatalf("SPMetadata failed: %v", err)
	}
	out := string(md)
	if !strings.Contains(out, sp.EntityID) {
		t.Errorf("metadata missing entity ID:\n%s", out)
	}
	if !strings.Contains(out, "https://sp.example.com/saml/sp/SSO") {
		t.Errorf("metadata missing ACS URL:\n%s", out)
	}
}

func TestAuthenticationRequest(t *testing.T) {
	sp := testProvider(t)
	tr := NewTransformer()

	msg, err := tr.AuthenticationRequest(sp, &sp.Providers[0], "/after", domain.AuthnOptions{})
	if err != nil {
		t.Fatalf("AuthenticationRequest failed: %v", err)
	}
	if msg.ID == "" {
		t.Error("request ID is empty")
	}
	if msg.URL.Host != "idp.example.org" || msg.URL.Path != "/sso" {
		t.Errorf("redirect URL = %s, want idp SSO endpoint", msg.URL)
	}
	q := msg.URL.Query()
	if q.Get("SAMLRequest") == "" {
		t.Error("redirect URL missing SAMLRequest parameter")
	}
	if q.Get("RelayState") != "/after" {
		t.Errorf("RelayState = %q, want %q", q.Get("RelayState"), "/after")
	}
}

func TestAuthenticationRequest_UnresolvedIdP(t *testing.T) {
	sp := testProvider(t)
	sp.Providers[0].Certificates = nil
	tr := NewTransformer()

	if _, err := tr.AuthenticationRequest(sp, &sp.Providers[0], "", domain.AuthnOptions{}); err == nil {
		t.Error("expected error for unresolved identity provider")
	}
}

func TestLogoutRequest(t *testing.T) {
	sp := testProvider(t)
	tr := NewTransformer()
	session := &domain.Session{Subject: "alice@example.com"}

	msg, err := tr.LogoutRequest(sp, &sp.Providers[0], session, "rs")
	if err != nil {
		t.Fatalf("LogoutRequest failed: %v", err)
	}
	if msg.URL.Host != "idp.example.org" || msg.URL.Path != "/slo" {
		t.Errorf("redirect URL = %s, want idp SLO endpoint", msg.URL)
	}
	if msg.URL.Query().Get("SAMLRequest") == "" {
		t.Error("redirect URL missing SAMLRequest parameter")
	}
}

func TestLogoutResponse(t *testing.T) {
	sp := testProvider(t)
	tr := NewTransformer()

	msg, err := tr.LogoutResponse(sp, &sp.Providers[0], "id-12345", "")
	if err != nil {
		t.Fatalf("LogoutResponse failed: %v", err)
	}
	if msg.URL.Query().Get("SAMLResponse") == "" {
		t.Error("redirect URL missing SAMLResponse parameter")
	}
}

func deflateEncode(t *testing.T, xml string) string {
	t.Helper()
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("flate writer: %v", err)
	}
	if _, err := fw.Write([]byte(xml)); err != nil {
		t.Fatalf("deflate: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close deflate: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

const authnRequestXML = `<samlp:AuthnRequest xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol" xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion" ID="id-abc123" Version="2.0"><saml:Issuer>https://sp.example.com/saml/sp/metadata</saml:Issuer></samlp:AuthnRequest>`

func TestDecodeMessage_RedirectBinding(t *testing.T) {
	tr := NewTransformer()
	encoded := deflateEncode(t, authnRequestXML)

	r := httptest.NewRequest(http.MethodGet,
		"/saml/sp/SSO?SAMLRequest="+url.QueryEscape(encoded)+"&RelayState=%2Fafter", nil)

	msg, err := tr.DecodeMessage(r)
	if err != nil {
		t.Fatalf("DecodeMessage failed: %v", err)
	}
	if msg.Kind != domain.MessageAuthnRequest {
		t.Errorf("Kind = %q, want AuthnRequest", msg.Kind)
	}
	if msg.ID != "id-abc123" {
		t.Errorf("ID = %q, want id-abc123", msg.ID)
	}
	if msg.Issuer != "https://sp.example.com/saml/sp/metadata" {
		t.Errorf("Issuer = %q", msg.Issuer)
	}
	if msg.RelayState != "/after" {
		t.Errorf("RelayState = %q, want /after", msg.RelayState)
	}
	if msg.Binding != domain.HTTPRedirectBinding {
		t.Errorf("Binding = %q", msg.Binding)
	}
}

func TestDecodeMessage_PostBinding(t *testing.T) {
	tr := NewTransformer()
	encoded := base64.StdEncoding.EncodeToString([]byte(authnRequestXML))

	form := url.Values{"SAMLResponse": {encoded}, "RelayState": {"rs-1"}}
	r := httptest.NewRequest(http.MethodPost, "/saml/sp/SSO", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	msg, err := tr.DecodeMessage(r)
	if err != nil {
		t.Fatalf("DecodeMessage failed: %v", err)
	}
	if msg.Binding != domain.HTTPPostBinding {
		t.Errorf("Binding = %q, want POST binding", msg.Binding)
	}
	if msg.RelayState != "rs-1" {
		t.Errorf("RelayState = %q", msg.RelayState)
	}
}

func TestDecodeMessage_NoParameters(t *testing.T) {
	tr := NewTransformer()
	r := httptest.NewRequest(http.MethodGet, "/saml/sp/SSO", nil)

	msg, err := tr.DecodeMessage(r)
	if err != nil {
		t.Fatalf("DecodeMessage failed: %v", err)
	}
	if msg != nil {
		t.Errorf("message = %+v, want nil for request without SAML parameters", msg)
	}
}

func TestDecodeMessage_BadBase64(t *testing.T) {
	tr := NewTransformer()
	r := httptest.NewRequest(http.MethodGet, "/saml/sp/SSO?SAMLRequest=%21%21not-base64", nil)

	if _, err := tr.DecodeMessage(r); err == nil {
		t.Error("expected error for invalid base64")
	}
}
