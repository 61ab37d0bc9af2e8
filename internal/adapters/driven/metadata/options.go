package metadata

import (
	"time"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/core/ports"
)

// Option is a functional option for configuring the caching resolver.
type Option func(*options)

// Clock provides time functionality for testing.
type Clock interface {
	Now() time.Time
}

// RealClock uses the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

type options struct {
	logger            *zap.Logger
	signatureVerifier ports.SignatureVerifier
	metricsRecorder   ports.MetricsRecorder
	clock             Clock
	httpTimeout       time.Duration
}

// WithLogger returns an option that sets the logger for the resolver.
// Refresh failures are logged when set.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSignatureVerifier returns an option that enables signature
// verification. When set, fetched metadata is verified against the trusted
// certificates before parsing.
func WithSignatureVerifier(verifier ports.SignatureVerifier) Option {
	return func(o *options) {
		o.signatureVerifier = verifier
	}
}

// WithMetricsRecorder returns an option that sets the metrics recorder.
// When set, refresh attempts are recorded per source.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(o *options) {
		o.metricsRecorder = recorder
	}
}

// WithClock returns an option that sets a custom clock for time operations.
// Used for testing cache TTL expiration without time.Sleep.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithHTTPTimeout returns an option that sets the timeout for metadata
// fetches over HTTP. Defaults to 30 seconds.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.httpTimeout = timeout
	}
}
