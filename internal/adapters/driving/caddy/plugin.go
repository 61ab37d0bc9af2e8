// Package caddy integrates the SAML SP filter chain into Caddy as the
// http.handlers.saml_sp middleware module.
package caddy

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"time"

	"github.com/caddyserver/caddy/v2"
	"github.com/caddyserver/caddy/v2/caddyconfig/caddyfile"
	"github.com/caddyserver/caddy/v2/modules/caddyhttp"
	"go.uber.org/zap"

	samlchain "github.com/spauthd/samlchain"
	"github.com/spauthd/samlchain/internal/adapters/driven/metadata"
	"github.com/spauthd/samlchain/internal/adapters/driven/metrics"
	"github.com/spauthd/samlchain/internal/adapters/driven/provider"
	"github.com/spauthd/samlchain/internal/adapters/driven/request"
	"github.com/spauthd/samlchain/internal/adapters/driven/session"
	"github.com/spauthd/samlchain/internal/adapters/driven/signature"
	"github.com/spauthd/samlchain/internal/adapters/driven/templates"
	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
	"github.com/spauthd/samlchain/internal/filters"
)

func init() {
	caddy.RegisterModule(SAMLSP{})
}

// sessionAuthFilterName anchors the SP filters in the chain.
const sessionAuthFilterName = "sessionAuthentication"

// GetSession retrieves the authenticated session from the request context.
// Returns nil for unauthenticated requests.
func GetSession(r *http.Request) *domain.Session {
	return filters.SessionFrom(r.Context())
}

// SAMLSP is a Caddy HTTP handler module providing SAML Service Provider
// authentication with identity provider selection.
type SAMLSP struct {
	// SP configuration: entity ID, path prefix, key material, IdPs.
	provider.Config

	// SessionDuration is how long sessions last (e.g. "8h").
	// Defaults to "8h".
	SessionDuration string `json:"session_duration,omitempty"`

	// SessionCookieName is the name of the session cookie.
	// Defaults to "saml_session".
	SessionCookieName string `json:"session_cookie_name,omitempty"`

	// SessionCookieInsecure disables the Secure cookie attribute for
	// plain-HTTP development setups.
	SessionCookieInsecure bool `json:"session_cookie_insecure,omitempty"`

	// MetadataCacheTTL is how long fetched IdP metadata is cached
	// (e.g. "1h"). Defaults to "1h".
	MetadataCacheTTL string `json:"metadata_cache_ttl,omitempty"`

	// TemplatesDir is the path to custom template files.
	// If not set, embedded templates are used.
	TemplatesDir string `json:"templates_dir,omitempty"`

	// VerifyMetadataSignature enables XML signature verification on
	// fetched metadata. Requires MetadataSigningCert.
	VerifyMetadataSignature bool `json:"verify_metadata_signature,omitempty"`

	// MetadataSigningCert is the path to the PEM file with the federation
	// signing certificate(s).
	MetadataSigningCert string `json:"metadata_signing_cert,omitempty"`

	// MetricsEnabled enables Prometheus metrics collection.
	// Metrics are exposed via Caddy's admin API /metrics endpoint.
	MetricsEnabled bool `json:"metrics_enabled,omitempty"`

	// Protect selects the resources guarded by session authentication.
	// Defaults to "/**" (everything below this handler).
	Protect string `json:"protect,omitempty"`

	// RedirectOnSingleProvider skips the selection page when exactly one
	// identity provider is configured.
	RedirectOnSingleProvider bool `json:"redirect_on_single_provider,omitempty"`

	// ForceAuthn requests fresh authentication from the IdP.
	ForceAuthn bool `json:"force_authn,omitempty"`

	// RequestedAuthnContext lists authentication context class URIs to
	// request from the IdP.
	RequestedAuthnContext []string `json:"requested_authn_context,omitempty"`

	// AuthnContextComparison is how the IdP matches the requested context:
	// "exact", "minimum", "maximum", or "better".
	AuthnContextComparison string `json:"authn_context_comparison,omitempty"`

	// Runtime state (not serialized)
	handler      chain.Handler
	requestStore *request.InMemoryRequestStore
	logger       *zap.Logger
}

// CaddyModule returns the Caddy module information.
func (SAMLSP) CaddyModule() caddy.ModuleInfo {
	return caddy.ModuleInfo{
		ID:  "http.handlers.saml_sp",
		New: func() caddy.Module { return new(SAMLSP) },
	}
}

// setDefaults fills module-level defaults; the embedded Config takes care
// of its own.
func (s *SAMLSP) setDefaults() {
	if s.SessionDuration == "" {
		s.SessionDuration = "8h"
	}
	if s.SessionCookieName == "" {
		s.SessionCookieName = "saml_session"
	}
	if s.MetadataCacheTTL == "" {
		s.MetadataCacheTTL = "1h"
	}
	if s.Protect == "" {
		s.Protect = "/**"
	}
}

// Validate implements caddy.Validator.
func (s *SAMLSP) Validate() error {
	if s.VerifyMetadataSignature && s.MetadataSigningCert == "" {
		return fmt.Errorf("metadata_signing_cert is required when verify_metadata_signature is enabled")
	}
	if err := domain.ValidateAuthnContextComparison(s.AuthnContextComparison); err != nil {
		return err
	}
	return s.Config.Validate()
}

// Provision implements caddy.Provisioner: it assembles the filter chain.
func (s *SAMLSP) Provision(ctx caddy.Context) error {
	s.logger = ctx.Logger()
	s.setDefaults()

	sessionDuration, err := time.ParseDuration(s.SessionDuration)
	if err != nil {
		return fmt.Errorf("parse session_duration: %w", err)
	}
	metadataTTL, err := time.ParseDuration(s.MetadataCacheTTL)
	if err != nil {
		return fmt.Errorf("parse metadata_cache_ttl: %w", err)
	}

	configuration, err := provider.NewStaticConfigurationResolver(&s.Config)
	if err != nil {
		return err
	}

	var recorder ports.MetricsRecorder
	if s.MetricsEnabled {
		recorder = metrics.NewPrometheusRecorder()
	} else {
		recorder = metrics.NewNoopRecorder()
	}

	metadataOpts := []metadata.Option{
		metadata.WithLogger(s.logger),
		metadata.WithMetricsRecorder(recorder),
	}
	if s.VerifyMetadataSignature {
		certs, err := signature.LoadSigningCertificates(s.MetadataSigningCert)
		if err != nil {
			return err
		}
		metadataOpts = append(metadataOpts, metadata.WithSignatureVerifier(signature.NewXMLDsigVerifierWithCerts(certs)))
	}
	metadataResolver := metadata.NewCachingResolver(metadataTTL, metadataOpts...)

	sessionStore, err := s.buildSessionStore(sessionDuration)
	if err != nil {
		return err
	}

	templateEngine, err := s.buildTemplateEngine()
	if err != nil {
		return err
	}

	cookie := filters.DefaultCookieConfig()
	cookie.Name = s.SessionCookieName
	cookie.Secure = !s.SessionCookieInsecure

	s.requestStore = request.NewInMemoryRequestStoreWithCleanup(time.Minute)

	builder := chain.NewBuilder(chain.WithLogger(s.logger))
	sessionFilter := filters.NewSessionAuthenticationFilter(
		s.Protect, configuration.PathPrefix(), sessionStore, cookie,
		builder.AuthenticationEntryPoint, recorder, s.logger)
	if err := builder.AddFilter(sessionAuthFilterName, sessionFilter); err != nil {
		return err
	}

	configurer := samlchain.NewConfigurer().
		WithConfigurationResolver(configuration).
		WithMetadataResolver(metadataResolver).
		WithSessionStore(sessionStore).
		WithRequestStore(s.requestStore).
		WithMetricsRecorder(recorder).
		WithTemplateEngine(templateEngine).
		WithCookie(cookie).
		WithSessionTTL(sessionDuration).
		WithAuthnOptions(domain.AuthnOptions{
			ForceAuthn:             s.ForceAuthn,
			RequestedAuthnContext:  s.RequestedAuthnContext,
			AuthnContextComparison: s.AuthnContextComparison,
		}).
		WithRedirectOnSingleProvider(s.RedirectOnSingleProvider).
		AfterFilter(sessionAuthFilterName).
		WithLogger(s.logger)
	if err := configurer.Apply(builder); err != nil {
		return fmt.Errorf("configure SAML SP chain: %w", err)
	}

	s.handler = builder.Handler(chain.HandlerFunc(passThrough))
	return nil
}

// buildSessionStore keys sessions on the SP private key when one is
// configured; otherwise an ephemeral key is generated and sessions do not
// survive a restart.
func (s *SAMLSP) buildSessionStore(duration time.Duration) (ports.SessionStore, error) {
	if s.KeyFile != "" {
		key, err := signature.LoadPrivateKey(s.KeyFile)
		if err != nil {
			return nil, err
		}
		return session.NewCookieSessionStore(key, duration), nil
	}
	key, err := generateEphemeralKey()
	if err != nil {
		return nil, err
	}
	s.logger.Warn("no key_file configured, sessions are signed with an ephemeral key")
	return session.NewCookieSessionStore(key, duration), nil
}

func (s *SAMLSP) buildTemplateEngine() (ports.TemplateEngine, error) {
	if s.TemplatesDir != "" {
		return templates.NewEngineWithDir(s.TemplatesDir)
	}
	return templates.NewEngine()
}

func generateEphemeralKey() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, 2048)
}

// Cleanup implements caddy.CleanerUpper.
func (s *SAMLSP) Cleanup() error {
	if s.requestStore != nil {
		return s.requestStore.Close()
	}
	return nil
}

// nextHandlerKey carries Caddy's next handler through the chain so the
// terminal handler can delegate to it.
type nextHandlerKey struct{}

// ServeHTTP implements caddyhttp.MiddlewareHandler.
func (s *SAMLSP) ServeHTTP(w http.ResponseWriter, r *http.Request, next caddyhttp.Handler) error {
	r = r.WithContext(context.WithValue(r.Context(), nextHandlerKey{}, next))
	return s.handler.ServeHTTP(w, r)
}

// passThrough is the chain terminal: requests that no filter answered
// continue down Caddy's middleware stack.
func passThrough(w http.ResponseWriter, r *http.Request) error {
	if next, ok := r.Context().Value(nextHandlerKey{}).(caddyhttp.Handler); ok {
		return next.ServeHTTP(w, r)
	}
	http.NotFound(w, r)
	return nil
}

// Interface guards
var (
	_ caddy.Module                = (*SAMLSP)(nil)
	_ caddy.Provisioner           = (*SAMLSP)(nil)
	_ caddy.Validator             = (*SAMLSP)(nil)
	_ caddy.CleanerUpper          = (*SAMLSP)(nil)
	_ caddyhttp.MiddlewareHandler = (*SAMLSP)(nil)
	_ caddyfile.Unmarshaler       = (*SAMLSP)(nil)
)
