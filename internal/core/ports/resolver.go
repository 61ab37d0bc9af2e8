package ports

import (
	"context"
	"net/http"

	"github.com/spauthd/samlchain/internal/core/domain"
)

// ConfigurationResolver resolves the raw hosted provider configuration for
// a request. It is one of two mutually exclusive ways to configure the
// chain; the alternative is supplying a ProviderResolver directly.
type ConfigurationResolver interface {
	// ResolveConfiguration returns the hosted provider configuration for
	// the request. Identity providers may be returned unresolved (metadata
	// source only).
	ResolveConfiguration(r *http.Request) (*domain.HostedProvider, error)

	// PathPrefix returns the configured URL prefix for the SP endpoints.
	// Must not return the empty string.
	PathPrefix() string
}

// ProviderResolver resolves the fully materialized hosted provider for a
// request, with all identity provider metadata fetched and parsed.
type ProviderResolver interface {
	// Resolve returns the hosted provider for the request.
	Resolve(r *http.Request) (*domain.HostedProvider, error)

	// PathPrefix returns the configured URL prefix for the SP endpoints.
	// Must not return the empty string.
	PathPrefix() string
}

// MetadataResolver resolves identity provider metadata from its source
// (inline configuration, local file, or remote URL), with caching.
type MetadataResolver interface {
	// ResolveIdentityProvider materializes the endpoints and certificates
	// of the given identity provider. Inline-configured providers are
	// returned as-is.
	ResolveIdentityProvider(ctx context.Context, idp *domain.IdentityProvider) (*domain.IdentityProvider, error)

	// Health returns the health of the resolver's cached metadata.
	Health() MetadataHealth
}

// MetadataHealth describes the state of cached identity provider metadata.
type MetadataHealth struct {
	// Fresh is true when the last refresh of every source succeeded.
	Fresh bool

	// LastError is the error from the most recent failed refresh, nil if
	// the last refresh succeeded.
	LastError error

	// Sources is the number of metadata sources under management.
	Sources int
}
