package provider

import (
	"fmt"
	"net/http"

	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// DefaultProviderResolver materializes hosted providers: it resolves the
// raw configuration for a request and fetches identity provider metadata
// for providers configured by source rather than inline.
type DefaultProviderResolver struct {
	configuration ports.ConfigurationResolver
	metadata      ports.MetadataResolver
}

// NewDefaultProviderResolver creates a provider resolver on top of a
// configuration resolver and a metadata resolver.
func NewDefaultProviderResolver(configuration ports.ConfigurationResolver, metadata ports.MetadataResolver) *DefaultProviderResolver {
	return &DefaultProviderResolver{
		configuration: configuration,
		metadata:      metadata,
	}
}

// Resolve returns the fully materialized hosted provider for the request.
func (d *DefaultProviderResolver) Resolve(r *http.Request) (*domain.HostedProvider, error) {
	hp, err := d.configuration.ResolveConfiguration(r)
	if err != nil {
		return nil, err
	}

	resolved := make([]domain.IdentityProvider, len(hp.Providers))
	for i := range hp.Providers {
		idp, err := d.metadata.ResolveIdentityProvider(r.Context(), &hp.Providers[i])
		if err != nil {
			return nil, fmt.Errorf("resolve identity provider %s: %w", hp.Providers[i].EntityID, err)
		}
		resolved[i] = *idp
	}
	hp.Providers = resolved
	return hp, nil
}

// PathPrefix returns the configured URL prefix for the SP endpoints.
func (d *DefaultProviderResolver) PathPrefix() string {
	return d.configuration.PathPrefix()
}

// Interface guard
var _ ports.ProviderResolver = (*DefaultProviderResolver)(nil)
