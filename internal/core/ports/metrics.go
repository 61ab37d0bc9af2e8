package ports

// MetricsRecorder is the port interface for recording metrics.
// Implementations are adapters (PrometheusRecorder for production,
// NoopRecorder for disabled/testing).
type MetricsRecorder interface {
	// RecordAuthAttempt records a SAML authentication attempt.
	RecordAuthAttempt(idpEntityID string, success bool)

	// RecordSessionCreated records a new session creation.
	RecordSessionCreated()

	// RecordSessionValidation records a session validation result.
	RecordSessionValidation(valid bool)

	// RecordLogout records a logout, by kind ("sp", "idp", "local").
	RecordLogout(kind string)

	// RecordMetadataRefresh records a metadata refresh attempt.
	RecordMetadataRefresh(source string, success bool)
}
