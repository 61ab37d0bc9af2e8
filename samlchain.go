// Package samlchain wires SAML Service Provider filters into an HTTP
// security filter chain. A Configurer resolves its collaborators once at
// startup, shares them through the chain builder's registry, and inserts
// the SP endpoint filters after the host's authentication filter.
//
// The default SAML engine is provided by the crewjam subpackage and must
// be imported for its side effects:
//
//	import _ "github.com/spauthd/samlchain/crewjam"
package samlchain

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/adapters/driven/metadata"
	"github.com/spauthd/samlchain/internal/adapters/driven/metrics"
	"github.com/spauthd/samlchain/internal/adapters/driven/provider"
	"github.com/spauthd/samlchain/internal/adapters/driven/request"
	"github.com/spauthd/samlchain/internal/adapters/driven/session"
	"github.com/spauthd/samlchain/internal/adapters/driven/templates"
	"github.com/spauthd/samlchain/internal/adapters/driven/transformer"
	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
	"github.com/spauthd/samlchain/internal/filters"
)

// Keys under which the configurer publishes resolved collaborators in the
// builder's shared-object registry. Hosts may pre-register instances under
// these keys; a pre-registered instance wins over the default.
const (
	SharedTransformer           = "samlchain.transformer"
	SharedValidator             = "samlchain.validator"
	SharedTemplateEngine        = "samlchain.templateEngine"
	SharedMetadataResolver      = "samlchain.metadataResolver"
	SharedProviderResolver      = "samlchain.providerResolver"
	SharedConfigurationResolver = "samlchain.configurationResolver"
	SharedSessionStore          = "samlchain.sessionStore"
	SharedRequestStore          = "samlchain.requestStore"
	SharedMetricsRecorder       = "samlchain.metricsRecorder"
)

// Names of the filters the configurer inserts, usable as anchors for
// further AddFilterAfter/AddFilterBefore calls.
const (
	FilterFailure      = "samlFailure"
	FilterProcessing   = "samlProcessing"
	FilterMetadata     = "samlMetadata"
	FilterSelect       = "samlSelectProvider"
	FilterAuthnRequest = "samlAuthnRequest"
	FilterSSO          = "samlWebSSO"
	FilterLogout       = "samlLogout"
)

const (
	defaultSessionTTL  = 8 * time.Hour
	defaultRequestTTL  = 10 * time.Minute
	defaultMetadataTTL = time.Hour
)

// Configurer assembles the SAML SP filters. Collaborators left unset are
// resolved during Init in priority order: the explicitly configured
// instance, the builder's shared-object registry, then a default.
// A Configurer is used once, on a single goroutine, at startup.
type Configurer struct {
	transformer           ports.Transformer
	validator             ports.Validator
	templateEngine        ports.TemplateEngine
	metadataResolver      ports.MetadataResolver
	providerResolver      ports.ProviderResolver
	configurationResolver ports.ConfigurationResolver
	sessionStore          ports.SessionStore
	requestStore          ports.RequestStore
	metricsRecorder       ports.MetricsRecorder
	logger                *zap.Logger

	cookie                   filters.CookieConfig
	authnOpts                domain.AuthnOptions
	sessionTTL               time.Duration
	requestTTL               time.Duration
	redirectOnSingleProvider bool
	afterFilter              string
	pathPrefix               string

	initialized bool
	err         error
}

// NewConfigurer creates a configurer with default settings.
func NewConfigurer() *Configurer {
	return &Configurer{
		cookie:     filters.DefaultCookieConfig(),
		sessionTTL: defaultSessionTTL,
		requestTTL: defaultRequestTTL,
	}
}

// WithTransformer sets the SAML protocol engine explicitly.
func (c *Configurer) WithTransformer(t ports.Transformer) *Configurer {
	c.transformer = t
	return c
}

// WithValidator sets the inbound message validator explicitly.
func (c *Configurer) WithValidator(v ports.Validator) *Configurer {
	c.validator = v
	return c
}

// WithTemplateEngine sets the HTML template engine explicitly.
func (c *Configurer) WithTemplateEngine(e ports.TemplateEngine) *Configurer {
	c.templateEngine = e
	return c
}

// WithMetadataResolver sets the identity provider metadata resolver
// explicitly.
func (c *Configurer) WithMetadataResolver(m ports.MetadataResolver) *Configurer {
	c.metadataResolver = m
	return c
}

// WithProviderResolver sets a fully materialized provider resolver.
// Mutually exclusive with WithConfigurationResolver.
func (c *Configurer) WithProviderResolver(r ports.ProviderResolver) *Configurer {
	if c.configurationResolver != nil {
		c.err = domain.ErrResolverConflict
		return c
	}
	c.providerResolver = r
	return c
}

// WithConfigurationResolver sets a raw configuration resolver; the default
// provider resolver is composed from it and the metadata resolver.
// Mutually exclusive with WithProviderResolver.
func (c *Configurer) WithConfigurationResolver(r ports.ConfigurationResolver) *Configurer {
	if c.providerResolver != nil {
		c.err = domain.ErrResolverConflict
		return c
	}
	c.configurationResolver = r
	return c
}

// WithSessionStore sets the session store explicitly.
func (c *Configurer) WithSessionStore(s ports.SessionStore) *Configurer {
	c.sessionStore = s
	return c
}

// WithRequestStore sets the AuthnRequest ID store explicitly.
func (c *Configurer) WithRequestStore(s ports.RequestStore) *Configurer {
	c.requestStore = s
	return c
}

// WithMetricsRecorder sets the metrics recorder explicitly.
func (c *Configurer) WithMetricsRecorder(m ports.MetricsRecorder) *Configurer {
	c.metricsRecorder = m
	return c
}

// WithLogger sets the logger. Defaults to the builder's logger.
func (c *Configurer) WithLogger(logger *zap.Logger) *Configurer {
	c.logger = logger
	return c
}

// WithCookie overrides the session cookie settings.
func (c *Configurer) WithCookie(cookie filters.CookieConfig) *Configurer {
	c.cookie = cookie
	return c
}

// WithAuthnOptions sets the options applied to outgoing authentication
// requests.
func (c *Configurer) WithAuthnOptions(opts domain.AuthnOptions) *Configurer {
	if err := domain.ValidateAuthnContextComparison(opts.AuthnContextComparison); err != nil {
		c.err = err
		return c
	}
	c.authnOpts = opts
	return c
}

// WithSessionTTL sets how long established sessions last.
func (c *Configurer) WithSessionTTL(ttl time.Duration) *Configurer {
	c.sessionTTL = ttl
	return c
}

// WithRedirectOnSingleProvider makes the selection page redirect straight
// to the identity provider when only one is configured, without requiring
// the redirect query parameter.
func (c *Configurer) WithRedirectOnSingleProvider(redirect bool) *Configurer {
	c.redirectOnSingleProvider = redirect
	return c
}

// AfterFilter names the pre-existing authentication filter the SP filters
// are inserted after. When empty, the SP filters are appended to the end
// of the chain.
func (c *Configurer) AfterFilter(name string) *Configurer {
	c.afterFilter = name
	return c
}

// PathPrefix returns the normalized URL prefix the SP endpoints live
// under. Valid after Init.
func (c *Configurer) PathPrefix() string {
	return c.pathPrefix
}

// SessionStore returns the resolved session store. Valid after Init.
func (c *Configurer) SessionStore() ports.SessionStore {
	return c.sessionStore
}

// MetricsRecorder returns the resolved metrics recorder. Valid after Init.
func (c *Configurer) MetricsRecorder() ports.MetricsRecorder {
	return c.metricsRecorder
}

// Cookie returns the session cookie settings.
func (c *Configurer) Cookie() filters.CookieConfig {
	return c.cookie
}

// Init resolves all collaborators, publishes them in the builder's shared
// registry, and registers the authentication entry point. It must run
// before Configure and returns (never panics) on misconfiguration.
func (c *Configurer) Init(b *chain.Builder) error {
	if c.err != nil {
		return c.err
	}
	if c.logger == nil {
		c.logger = b.Logger()
	}
	shared := b.Shared()
	var err error

	c.metricsRecorder, err = chain.ResolveShared(shared, SharedMetricsRecorder, c.metricsRecorder,
		func() (ports.MetricsRecorder, error) {
			return metrics.NewNoopRecorder(), nil
		})
	if err != nil {
		return err
	}

	c.transformer, err = chain.ResolveShared(shared, SharedTransformer, c.transformer,
		func() (ports.Transformer, error) {
			impl, err := transformer.Default()
			if err != nil {
				return nil, err
			}
			return impl.NewTransformer()
		})
	if err != nil {
		return err
	}

	c.validator, err = chain.ResolveShared(shared, SharedValidator, c.validator,
		func() (ports.Validator, error) {
			impl, err := transformer.Default()
			if err != nil {
				// The transformer may have been supplied explicitly, in
				// which case no registered engine exists to derive a
				// validator from.
				return nil, fmt.Errorf("no validator is configured and no registered SAML "+
					"implementation can provide one; supply one with WithValidator or "+
					"import a SAML engine package: %w", err)
			}
			return impl.NewValidator(c.transformer)
		})
	if err != nil {
		return err
	}

	c.templateEngine, err = chain.ResolveShared(shared, SharedTemplateEngine, c.templateEngine,
		func() (ports.TemplateEngine, error) {
			return templates.NewEngine()
		})
	if err != nil {
		return err
	}

	c.metadataResolver, err = chain.ResolveShared(shared, SharedMetadataResolver, c.metadataResolver,
		func() (ports.MetadataResolver, error) {
			return metadata.NewCachingResolver(defaultMetadataTTL,
				metadata.WithLogger(c.logger),
				metadata.WithMetricsRecorder(c.metricsRecorder)), nil
		})
	if err != nil {
		return err
	}

	c.providerResolver, err = chain.ResolveShared(shared, SharedProviderResolver, c.providerResolver,
		func() (ports.ProviderResolver, error) {
			configuration, err := chain.ResolveShared[ports.ConfigurationResolver](shared, SharedConfigurationResolver, c.configurationResolver, nil)
			if err != nil {
				return nil, err
			}
			if configuration == nil {
				return nil, domain.ConfigError("a provider resolver or a configuration resolver is required")
			}
			if configuration.PathPrefix() == "" {
				return nil, domain.ConfigError("the configuration resolver must supply a path prefix")
			}
			return provider.NewDefaultProviderResolver(configuration, c.metadataResolver), nil
		})
	if err != nil {
		return err
	}
	if c.providerResolver.PathPrefix() == "" {
		return domain.ConfigError("the provider resolver must supply a path prefix")
	}
	c.pathPrefix = domain.NormalizePathPrefix(c.providerResolver.PathPrefix())

	c.sessionStore, err = chain.ResolveShared(shared, SharedSessionStore, c.sessionStore,
		func() (ports.SessionStore, error) {
			// Sessions signed with an ephemeral key do not survive a
			// restart. Hosts that need durable sessions supply a store
			// keyed by persistent material.
			key, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				return nil, err
			}
			c.logger.Warn("no session store configured, generated an ephemeral session signing key")
			return session.NewCookieSessionStore(key, c.sessionTTL), nil
		})
	if err != nil {
		return err
	}

	c.requestStore, err = chain.ResolveShared(shared, SharedRequestStore, c.requestStore,
		func() (ports.RequestStore, error) {
			return request.NewInMemoryRequestStoreWithCleanup(time.Minute), nil
		})
	if err != nil {
		return err
	}

	b.SetAuthenticationEntryPoint(c.pathPrefix + "/select?redirect=true")
	c.initialized = true
	return nil
}

// Configure constructs the SP endpoint filters and inserts them into the
// chain in order: failure handling and processing first, then metadata,
// selection, authentication request, SSO, and logout, each scoped to its
// path below the prefix.
func (c *Configurer) Configure(b *chain.Builder) error {
	if c.err != nil {
		return c.err
	}
	if !c.initialized {
		return domain.ConfigError("Init must run before Configure")
	}

	failure, err := c.resolveFilter(b, FilterFailure, func() chain.Filter {
		return filters.NewFailureFilter(c.pathPrefix, c.templateEngine, c.logger)
	})
	if err != nil {
		return err
	}
	if c.afterFilter != "" {
		err = b.AddFilterAfter(FilterFailure, failure, c.afterFilter)
	} else {
		err = b.AddFilter(FilterFailure, failure)
	}
	if err != nil {
		return err
	}

	inserts := []struct {
		name   string
		create func() chain.Filter
		after  string
	}{
		{FilterProcessing, func() chain.Filter {
			return filters.NewProcessingFilter(c.pathPrefix, c.providerResolver, c.transformer, c.logger)
		}, FilterFailure},
		{FilterMetadata, func() chain.Filter {
			return filters.NewMetadataFilter(c.pathPrefix, c.transformer, c.logger)
		}, FilterProcessing},
		{FilterSelect, func() chain.Filter {
			return filters.NewSelectProviderFilter(c.pathPrefix, c.templateEngine, c.redirectOnSingleProvider, c.logger)
		}, FilterMetadata},
		{FilterAuthnRequest, func() chain.Filter {
			return filters.NewAuthnRequestFilter(c.pathPrefix, c.transformer, c.requestStore, c.authnOpts, c.requestTTL, c.logger)
		}, FilterSelect},
		{FilterSSO, func() chain.Filter {
			return filters.NewWebSSOFilter(c.pathPrefix, c.validator, c.requestStore, c.sessionStore, c.cookie, c.sessionTTL, c.metricsRecorder, c.logger)
		}, FilterAuthnRequest},
		{FilterLogout, func() chain.Filter {
			return filters.NewLogoutFilter(c.pathPrefix, c.transformer, c.validator, c.sessionStore, c.cookie, c.metricsRecorder, c.logger)
		}, FilterSSO},
	}
	for _, ins := range inserts {
		f, err := c.resolveFilter(b, ins.name, ins.create)
		if err != nil {
			return err
		}
		if err := b.AddFilterAfter(ins.name, f, ins.after); err != nil {
			return err
		}
	}

	c.logger.Info("SAML SP filter chain configured",
		zap.String("path_prefix", c.pathPrefix),
		zap.Strings("filters", b.FilterNames()))
	return nil
}

// Apply runs Init and Configure in one call.
func (c *Configurer) Apply(b *chain.Builder) error {
	if err := c.Init(b); err != nil {
		return err
	}
	return c.Configure(b)
}

// resolveFilter returns a pre-registered filter instance from the shared
// registry, or constructs the default.
func (c *Configurer) resolveFilter(b *chain.Builder, name string, create func() chain.Filter) (chain.Filter, error) {
	var none chain.Filter
	return chain.ResolveShared(b.Shared(), "samlchain.filter."+name, none,
		func() (chain.Filter, error) {
			return create(), nil
		})
}
