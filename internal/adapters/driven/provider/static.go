package provider

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spauthd/samlchain/internal/adapters/driven/signature"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// StaticConfigurationResolver serves one hosted provider configuration for
// every request. Key material is loaded once at construction.
type StaticConfigurationResolver struct {
	pathPrefix string
	baseURL    *url.URL
	template   domain.HostedProvider
}

// NewStaticConfigurationResolver builds a resolver from a validated Config.
func NewStaticConfigurationResolver(cfg *Config) (*StaticConfigurationResolver, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var baseURL *url.URL
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base_url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("base_url %q must include scheme and host", cfg.BaseURL)
		}
		baseURL = u
	}

	var key *rsa.PrivateKey
	var cert *x509.Certificate
	if cfg.KeyFile != "" {
		var err error
		key, err = signature.LoadPrivateKey(cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		cert, err = signature.LoadCertificate(cfg.CertFile)
		if err != nil {
			return nil, err
		}
	}

	providers := make([]domain.IdentityProvider, len(cfg.IdentityProviders))
	for i, ic := range cfg.IdentityProviders {
		providers[i] = domain.IdentityProvider{
			EntityID:       ic.EntityID,
			Alias:          ic.Alias,
			DisplayName:    ic.DisplayName,
			SSOURL:         ic.SSOURL,
			SSOBinding:     ic.SSOBinding,
			SLOURL:         ic.SLOURL,
			SLOBinding:     ic.SLOBinding,
			Certificates:   ic.Certificates,
			MetadataSource: ic.metadataSource(),
		}
	}

	return &StaticConfigurationResolver{
		pathPrefix: cfg.PathPrefix,
		baseURL:    baseURL,
		template: domain.HostedProvider{
			EntityID:             cfg.EntityID,
			PathPrefix:           cfg.PathPrefix,
			Key:                  key,
			Certificate:          cert,
			SignRequests:         cfg.SignRequests,
			WantAssertionsSigned: *cfg.WantAssertionsSigned,
			NameIDFormat:         cfg.NameIDFormat,
			Providers:            providers,
		},
	}, nil
}

// ResolveConfiguration returns the hosted provider for the request. The
// base URL is taken from configuration when set, otherwise derived from
// the request.
func (s *StaticConfigurationResolver) ResolveConfiguration(r *http.Request) (*domain.HostedProvider, error) {
	hp := s.template
	if s.baseURL != nil {
		hp.BaseURL = s.baseURL
	} else {
		hp.BaseURL = requestBaseURL(r)
	}
	return &hp, nil
}

// PathPrefix returns the configured URL prefix for the SP endpoints.
func (s *StaticConfigurationResolver) PathPrefix() string {
	return s.pathPrefix
}

// requestBaseURL derives the external base URL from the incoming request,
// honoring X-Forwarded-Proto set by upstream proxies.
func requestBaseURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return &url.URL{Scheme: scheme, Host: r.Host}
}

// Interface guard
var _ ports.ConfigurationResolver = (*StaticConfigurationResolver)(nil)
