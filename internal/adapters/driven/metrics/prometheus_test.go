package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder_AuthAttempts(t *testing.T) {
	rec := NewPrometheusRecorderWithRegistry(prometheus.NewRegistry())

	rec.RecordAuthAttempt("https://idp.example.com", true)
	rec.RecordAuthAttempt("https://idp.example.com", true)
	rec.RecordAuthAttempt("https://idp.example.com", false)

	success := testutil.ToFloat64(rec.authAttemptsTotal.WithLabelValues("https://idp.example.com", "success"))
	if success != 2 {
		t.Errorf("success count = %v, want 2", success)
	}
	failure := testutil.ToFloat64(rec.authAttemptsTotal.WithLabelValues("https://idp.example.com", "failure"))
	if failure != 1 {
		t.Errorf("failure count = %v, want 1", failure)
	}
}

func TestPrometheusRecorder_Sessions(t *testing.T) {
	rec := NewPrometheusRecorderWithRegistry(prometheus.NewRegistry())

	rec.RecordSessionCreated()
	rec.RecordSessionValidation(true)
	rec.RecordSessionValidation(false)
	rec.RecordSessionValidation(false)

	if got := testutil.ToFloat64(rec.sessionsCreatedTotal); got != 1 {
		t.Errorf("sessions created = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.sessionValidationsTotal.WithLabelValues("valid")); got != 1 {
		t.Errorf("valid validations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.sessionValidationsTotal.WithLabelValues("invalid")); got != 2 {
		t.Errorf("invalid validations = %v, want 2", got)
	}
}

func TestPrometheusRecorder_LogoutsAndMetadata(t *testing.T) {
	rec := NewPrometheusRecorderWithRegistry(prometheus.NewRegistry())

	rec.RecordLogout("sp")
	rec.RecordLogout("idp")
	rec.RecordLogout("local")
	rec.RecordMetadataRefresh("url", true)
	rec.RecordMetadataRefresh("file", false)

	for _, kind := range []string{"sp", "idp", "local"} {
		if got := testutil.ToFloat64(rec.logoutsTotal.WithLabelValues(kind)); got != 1 {
			t.Errorf("logouts[%s] = %v, want 1", kind, got)
		}
	}
	if got := testutil.ToFloat64(rec.metadataRefreshTotal.WithLabelValues("url", "success")); got != 1 {
		t.Errorf("metadata refresh url success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.metadataRefreshTotal.WithLabelValues("file", "failure")); got != 1 {
		t.Errorf("metadata refresh file failure = %v, want 1", got)
	}
}

func TestNoopRecorder_SafeToUse(t *testing.T) {
	rec := NewNoopRecorder()
	rec.RecordAuthAttempt("idp", true)
	rec.RecordSessionCreated()
	rec.RecordSessionValidation(false)
	rec.RecordLogout("sp")
	rec.RecordMetadataRefresh("url", true)
}
