// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Generation kinds used as the "kind" label.
const (
	KindPage    = "page"
	KindEdit    = "edit"
	KindWebsite = "website"
)

// Outcome labels.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLogin(status string)        // status: "success" or "rejected"
	IncTokenRefresh(status string) // status: "success" or "rejected"

	// Generation metrics
	IncGeneration(kind string)
	IncUpstreamError(kind string) // upstream refused before the first byte
	IncStreamError(kind string)   // stream broke after headers were sent
	ObserveStream(kind string, bytes int64, duration time.Duration)

	// Image analysis metrics
	IncImageAnalysis(status string) // status: "success", "rejected", "failed"
	ObserveImageAnalysisDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
