package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncTokenRefresh is a no-op.
func (n *NoopRecorder) IncTokenRefresh(status string) {}

// IncGeneration is a no-op.
func (n *NoopRecorder) IncGeneration(kind string) {}

// IncUpstreamError is a no-op.
func (n *NoopRecorder) IncUpstreamError(kind string) {}

// IncStreamError is a no-op.
func (n *NoopRecorder) IncStreamError(kind string) {}

// ObserveStream is a no-op.
func (n *NoopRecorder) ObserveStream(kind string, bytes int64, duration time.Duration) {}

// IncImageAnalysis is a no-op.
func (n *NoopRecorder) IncImageAnalysis(status string) {}

// ObserveImageAnalysisDuration is a no-op.
func (n *NoopRecorder) ObserveImageAnalysisDuration(duration time.Duration) {}
