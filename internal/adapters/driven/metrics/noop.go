// Package metrics provides metrics recorder adapters.
package metrics

import "github.com/spauthd/samlchain/internal/core/ports"

// NoopRecorder is a no-op implementation for when metrics are disabled.
// All methods are safe to call and do nothing.
type NoopRecorder struct{}

// NewNoopRecorder creates a new no-op metrics recorder.
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

// RecordAuthAttempt is a no-op.
func (n *NoopRecorder) RecordAuthAttempt(idpEntityID string, success bool) {}

// RecordSessionCreated is a no-op.
func (n *NoopRecorder) RecordSessionCreated() {}

// RecordSessionValidation is a no-op.
func (n *NoopRecorder) RecordSessionValidation(valid bool) {}

// RecordLogout is a no-op.
func (n *NoopRecorder) RecordLogout(kind string) {}

// RecordMetadataRefresh is a no-op.
func (n *NoopRecorder) RecordMetadataRefresh(source string, success bool) {}

// Interface guard
var _ ports.MetricsRecorder = (*NoopRecorder)(nil)
