package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spauthd/samlchain/internal/core/ports"
)

// PrometheusRecorder records metrics using Prometheus.
type PrometheusRecorder struct {
	authAttemptsTotal       *prometheus.CounterVec
	sessionsCreatedTotal    prometheus.Counter
	sessionValidationsTotal *prometheus.CounterVec
	logoutsTotal            *prometheus.CounterVec
	metadataRefreshTotal    *prometheus.CounterVec
}

// NewPrometheusRecorder creates a metrics recorder using the default
// Prometheus registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	return NewPrometheusRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusRecorderWithRegistry creates a metrics recorder with a
// custom registry. Use this for testing.
func NewPrometheusRecorderWithRegistry(reg prometheus.Registerer) *PrometheusRecorder {
	authAttemptsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saml_sp_auth_attempts_total",
		Help: "Total SAML authentication attempts",
	}, []string{"idp_entity_id", "result"})

	sessionsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "saml_sp_sessions_created_total",
		Help: "Total sessions created",
	})

	sessionValidationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saml_sp_session_validations_total",
		Help: "Total session validation attempts",
	}, []string{"result"})

	logoutsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saml_sp_logouts_total",
		Help: "Total logouts",
	}, []string{"kind"})

	metadataRefreshTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saml_sp_metadata_refresh_total",
		Help: "Total metadata refresh attempts",
	}, []string{"source", "result"})

	reg.MustRegister(
		authAttemptsTotal,
		sessionsCreatedTotal,
		sessionValidationsTotal,
		logoutsTotal,
		metadataRefreshTotal,
	)

	return &PrometheusRecorder{
		authAttemptsTotal:       authAttemptsTotal,
		sessionsCreatedTotal:    sessionsCreatedTotal,
		sessionValidationsTotal: sessionValidationsTotal,
		logoutsTotal:            logoutsTotal,
		metadataRefreshTotal:    metadataRefreshTotal,
	}
}

// RecordAuthAttempt records a SAML authentication attempt.
func (p *PrometheusRecorder) RecordAuthAttempt(idpEntityID string, success bool) {
	p.authAttemptsTotal.WithLabelValues(idpEntityID, resultLabel(success)).Inc()
}

// RecordSessionCreated records a new session creation.
func (p *PrometheusRecorder) RecordSessionCreated() {
	p.sessionsCreatedTotal.Inc()
}

// RecordSessionValidation records a session validation result.
func (p *PrometheusRecorder) RecordSessionValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	p.sessionValidationsTotal.WithLabelValues(result).Inc()
}

// RecordLogout records a logout by kind ("sp", "idp", "local").
func (p *PrometheusRecorder) RecordLogout(kind string) {
	p.logoutsTotal.WithLabelValues(kind).Inc()
}

// RecordMetadataRefresh records a metadata refresh attempt.
func (p *PrometheusRecorder) RecordMetadataRefresh(source string, success bool) {
	p.metadataRefreshTotal.WithLabelValues(source, resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Interface guard
var _ ports.MetricsRecorder = (*PrometheusRecorder)(nil)
