package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters. Labeled counters are keyed
// by their label value.
type Snapshot struct {
	UsersRegistered uint64
	Logins          map[string]uint64
	TokenRefreshes  map[string]uint64

	Generations    map[string]uint64
	UpstreamErrors map[string]uint64
	StreamErrors   map[string]uint64
	StreamBytes    map[string]uint64
	StreamCount    map[string]uint64
	StreamTotalNs  map[string]int64

	ImageAnalyses                map[string]uint64
	ImageAnalysisDurationCount   uint64
	ImageAnalysisDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint
// and is inspected directly by tests.
type InMemoryRecorder struct {
	usersRegistered              uint64
	imageAnalysisDurationCount   uint64
	imageAnalysisDurationTotalNs int64

	mu             sync.Mutex
	logins         map[string]uint64
	tokenRefreshes map[string]uint64
	generations    map[string]uint64
	upstreamErrors map[string]uint64
	streamErrors   map[string]uint64
	streamBytes    map[string]uint64
	streamCount    map[string]uint64
	streamTotalNs  map[string]int64
	imageAnalyses  map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		logins:         map[string]uint64{},
		tokenRefreshes: map[string]uint64{},
		generations:    map[string]uint64{},
		upstreamErrors: map[string]uint64{},
		streamErrors:   map[string]uint64{},
		streamBytes:    map[string]uint64{},
		streamCount:    map[string]uint64{},
		streamTotalNs:  map[string]int64{},
		imageAnalyses:  map[string]uint64{},
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		UsersRegistered:              atomic.LoadUint64(&m.usersRegistered),
		Logins:                       maps.Clone(m.logins),
		TokenRefreshes:               maps.Clone(m.tokenRefreshes),
		Generations:                  maps.Clone(m.generations),
		UpstreamErrors:               maps.Clone(m.upstreamErrors),
		StreamErrors:                 maps.Clone(m.streamErrors),
		StreamBytes:                  maps.Clone(m.streamBytes),
		StreamCount:                  maps.Clone(m.streamCount),
		StreamTotalNs:                maps.Clone(m.streamTotalNs),
		ImageAnalyses:                maps.Clone(m.imageAnalyses),
		ImageAnalysisDurationCount:   atomic.LoadUint64(&m.imageAnalysisDurationCount),
		ImageAnalysisDurationTotalNs: atomic.LoadInt64(&m.imageAnalysisDurationTotalNs),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLogin increments the login counter for the status.
func (m *InMemoryRecorder) IncLogin(status string) {
	m.inc(m.logins, status)
}

// IncTokenRefresh increments the refresh counter for the status.
func (m *InMemoryRecorder) IncTokenRefresh(status string) {
	m.inc(m.tokenRefreshes, status)
}

// IncGeneration increments the generation counter for the kind.
func (m *InMemoryRecorder) IncGeneration(kind string) {
	m.inc(m.generations, kind)
}

// IncUpstreamError increments the upstream refusal counter for the kind.
func (m *InMemoryRecorder) IncUpstreamError(kind string) {
	m.inc(m.upstreamErrors, kind)
}

// IncStreamError increments the interrupted stream counter for the kind.
func (m *InMemoryRecorder) IncStreamError(kind string) {
	m.inc(m.streamErrors, kind)
}

// ObserveStream records one finished relay.
func (m *InMemoryRecorder) ObserveStream(kind string, bytes int64, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamCount[kind]++
	if bytes > 0 {
		m.streamBytes[kind] += uint64(bytes)
	}
	m.streamTotalNs[kind] += duration.Nanoseconds()
}

// IncImageAnalysis increments the image analysis counter for the status.
func (m *InMemoryRecorder) IncImageAnalysis(status string) {
	m.inc(m.imageAnalyses, status)
}

// ObserveImageAnalysisDuration records the vision call duration.
func (m *InMemoryRecorder) ObserveImageAnalysisDuration(duration time.Duration) {
	atomic.AddUint64(&m.imageAnalysisDurationCount, 1)
	atomic.AddInt64(&m.imageAnalysisDurationTotalNs, duration.Nanoseconds())
}

func (m *InMemoryRecorder) inc(counter map[string]uint64, label string) {
	m.mu.Lock()
	counter[label]++
	m.mu.Unlock()
}
