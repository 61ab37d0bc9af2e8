package domain

import (
	"net/url"
	"testing"
)

func TestNormalizePathPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "/"},
		{"/", "/"},
		{"/saml/sp", "/saml/sp"},
		{"/saml/sp/", "/saml/sp"},
		{"saml/sp", "/saml/sp"},
		{"//saml/sp//", "/saml/sp"},
	}

	for _, tt := range tests {
		if got := NormalizePathPrefix(tt.input); got != tt.want {
			t.Errorf("NormalizePathPrefix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestHostedProvider_Endpoints(t *testing.T) {
	hp := &HostedProvider{
		PathPrefix: "/saml/sp",
		BaseURL:    &url.URL{Scheme: "https", Host: "sp.example.com"},
	}

	if got := hp.MetadataURL().String(); got != "https://sp.example.com/saml/sp/metadata" {
		t.Errorf("MetadataURL = %q", got)
	}
	if got := hp.ACSURL().String(); got != "https://sp.example.com/saml/sp/SSO" {
		t.Errorf("ACSURL = %q", got)
	}
	if got := hp.SLOURL().String(); got != "https://sp.example.com/saml/sp/logout" {
		t.Errorf("SLOURL = %q", got)
	}
}

func TestHostedProvider_Provider(t *testing.T) {
	hp := &HostedProvider{
		Providers: []IdentityProvider{
			{EntityID: "https://idp1.example.com"},
			{EntityID: "https://idp2.example.com"},
		},
	}

	idp, err := hp.Provider("https://idp2.example.com")
	if err != nil {
		t.Fatalf("Provider failed: %v", err)
	}
	if idp.EntityID != "https://idp2.example.com" {
		t.Errorf("EntityID = %q", idp.EntityID)
	}

	if _, err := hp.Provider("https://unknown.example.com"); err != ErrIdPNotFound {
		t.Errorf("err = %v, want ErrIdPNotFound", err)
	}
}

func TestIdentityProvider_Name(t *testing.T) {
	tests := []struct {
		idp  IdentityProvider
		want string
	}{
		{IdentityProvider{EntityID: "e", Alias: "a", DisplayName: "Display"}, "Display"},
		{IdentityProvider{EntityID: "e", Alias: "a"}, "a"},
		{IdentityProvider{EntityID: "e"}, "e"},
	}

	for _, tt := range tests {
		if got := tt.idp.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestIdentityProvider_Resolved(t *testing.T) {
	unresolved := IdentityProvider{EntityID: "e", MetadataSource: "https://idp/metadata"}
	if unresolved.Resolved() {
		t.Error("provider without endpoints should not be resolved")
	}

	resolved := IdentityProvider{EntityID: "e", SSOURL: "https://idp/sso", Certificates: []string{"cert"}}
	if !resolved.Resolved() {
		t.Error("provider with SSO URL and certificates should be resolved")
	}

	noCerts := IdentityProvider{EntityID: "e", SSOURL: "https://idp/sso"}
	if noCerts.Resolved() {
		t.Error("provider without certificates should not be resolved")
	}
}
