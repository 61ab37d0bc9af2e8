package provider

import (
	"strings"
	"testing"

	"github.com/spauthd/samlchain/internal/core/domain"
)

func validConfig() *Config {
	return &Config{
		EntityID: "https://sp.example.com",
		IdentityProviders: []IdPConfig{
			{EntityID: "https://idp.example.com", MetadataURL: "https://idp.example.com/metadata"},
		},
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.SetDefaults()

	if cfg.PathPrefix != DefaultPathPrefix {
		t.Errorf("PathPrefix = %q, want %q", cfg.PathPrefix, DefaultPathPrefix)
	}
	if cfg.WantAssertionsSigned == nil || !*cfg.WantAssertionsSigned {
		t.Error("WantAssertionsSigned should default to true")
	}
}

func TestConfig_SetDefaults_NormalizesPrefix(t *testing.T) {
	cfg := validConfig()
	cfg.PathPrefix = "auth/saml/"
	cfg.SetDefaults()

	if cfg.PathPrefix != "/auth/saml" {
		t.Errorf("PathPrefix = %q, want %q", cfg.PathPrefix, "/auth/saml")
	}
}

func TestConfig_SetDefaults_Bindings(t *testing.T) {
	cfg := &Config{
		EntityID: "https://sp.example.com",
		IdentityProviders: []IdPConfig{
			{EntityID: "idp", SSOURL: "https://idp/sso", SLOURL: "https://idp/slo", Certificates: []string{"c"}},
		},
	}
	cfg.SetDefaults()

	idp := cfg.IdentityProviders[0]
	if idp.SSOBinding != domain.HTTPRedirectBinding {
		t.Errorf("SSOBinding = %q, want HTTP-Redirect", idp.SSOBinding)
	}
	if idp.SLOBinding != domain.HTTPRedirectBinding {
		t.Errorf("SLOBinding = %q, want HTTP-Redirect", idp.SLOBinding)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing entity_id", func(c *Config) { c.EntityID = "" }, "entity_id is required"},
		{"sign_requests without keys", func(c *Config) { c.SignRequests = true }, "key_file and cert_file are required"},
		{"key without cert", func(c *Config) { c.KeyFile = "/key.pem" }, "must be set together"},
		{"no identity providers", func(c *Config) { c.IdentityProviders = nil }, "at least one identity provider"},
		{"idp without entity_id", func(c *Config) {
			c.IdentityProviders[0].EntityID = ""
		}, "entity_id is required"},
		{"duplicate idp", func(c *Config) {
			c.IdentityProviders = append(c.IdentityProviders, c.IdentityProviders[0])
		}, "duplicate entity_id"},
		{"both metadata sources", func(c *Config) {
			c.IdentityProviders[0].MetadataFile = "/idp.xml"
		}, "only one of metadata_url or metadata_file"},
		{"no endpoints or source", func(c *Config) {
			c.IdentityProviders[0].MetadataURL = ""
		}, "either sso_url or a metadata source"},
		{"inline without certificates", func(c *Config) {
			c.IdentityProviders[0].MetadataURL = ""
			c.IdentityProviders[0].SSOURL = "https://idp/sso"
		}, "certificates are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			cfg.SetDefaults()
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
