package samlchain

import (
	"github.com/spauthd/samlchain/internal/adapters/driven/metadata"
	"github.com/spauthd/samlchain/internal/adapters/driven/metrics"
	"github.com/spauthd/samlchain/internal/adapters/driven/provider"
	"github.com/spauthd/samlchain/internal/adapters/driven/request"
	"github.com/spauthd/samlchain/internal/adapters/driven/session"
	"github.com/spauthd/samlchain/internal/adapters/driven/signature"
	"github.com/spauthd/samlchain/internal/adapters/driven/templates"
	"github.com/spauthd/samlchain/internal/adapters/driven/transformer"
	"github.com/spauthd/samlchain/internal/filters"
)

// Re-export the hosted provider configuration surface
type Config = provider.Config
type IdPConfig = provider.IdPConfig

const DefaultPathPrefix = provider.DefaultPathPrefix

var (
	NewStaticConfigurationResolver = provider.NewStaticConfigurationResolver
	NewDefaultProviderResolver     = provider.NewDefaultProviderResolver
)

// Re-export the metadata resolver and its options
type MetadataOption = metadata.Option
type Clock = metadata.Clock

var (
	NewCachingMetadataResolver  = metadata.NewCachingResolver
	WithMetadataLogger          = metadata.WithLogger
	WithMetadataSignatureVerify = metadata.WithSignatureVerifier
	WithMetadataMetrics         = metadata.WithMetricsRecorder
	WithMetadataClock           = metadata.WithClock
	WithMetadataHTTPTimeout     = metadata.WithHTTPTimeout
)

// Re-export the session, request, metrics, signature, and template adapters
var (
	NewCookieSessionStore = session.NewCookieSessionStore

	NewInMemoryRequestStore            = request.NewInMemoryRequestStore
	NewInMemoryRequestStoreWithCleanup = request.NewInMemoryRequestStoreWithCleanup

	NewNoopMetricsRecorder = metrics.NewNoopRecorder
	NewPrometheusRecorder  = metrics.NewPrometheusRecorder

	NewNoopSignatureVerifier    = signature.NewNoopVerifier
	NewXMLDsigVerifier          = signature.NewXMLDsigVerifier
	NewXMLDsigVerifierWithCerts = signature.NewXMLDsigVerifierWithCerts
	LoadPrivateKey              = signature.LoadPrivateKey
	LoadCertificate             = signature.LoadCertificate
	LoadSigningCertificates     = signature.LoadSigningCertificates

	NewTemplateEngine        = templates.NewEngine
	NewTemplateEngineWithDir = templates.NewEngineWithDir
)

// Re-export the transformer registry so alternative SAML engines can be
// plugged in without touching internal packages.
type TransformerImplementation = transformer.Implementation

var RegisterTransformer = transformer.Register

// Re-export the session filter surface hosts interact with
type CookieConfig = filters.CookieConfig
type SessionAuthenticationFilter = filters.SessionAuthenticationFilter

var (
	DefaultCookieConfig            = filters.DefaultCookieConfig
	NewSessionAuthenticationFilter = filters.NewSessionAuthenticationFilter
	SessionFromContext             = filters.SessionFrom
	HostedProviderFromContext      = filters.HostedProviderFrom
)
