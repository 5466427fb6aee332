package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/webagent/webagent/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "webagent_users_registered_total %d\n", snap.UsersRegistered)
	writeLabeled(w, "webagent_logins_total", "status", snap.Logins)
	writeLabeled(w, "webagent_token_refreshes_total", "status", snap.TokenRefreshes)

	writeLabeled(w, "webagent_generations_total", "kind", snap.Generations)
	writeLabeled(w, "webagent_upstream_errors_total", "kind", snap.UpstreamErrors)
	writeLabeled(w, "webagent_stream_errors_total", "kind", snap.StreamErrors)
	writeLabeled(w, "webagent_stream_bytes_total", "kind", snap.StreamBytes)
	writeLabeled(w, "webagent_stream_duration_seconds_count", "kind", snap.StreamCount)
	for _, kind := range sortedKeys(snap.StreamTotalNs) {
		writeMetric(w, "webagent_stream_duration_seconds_sum{kind=%q} %.6f\n", kind, float64(snap.StreamTotalNs[kind])/1e9)
	}

	writeLabeled(w, "webagent_image_analyses_total", "status", snap.ImageAnalyses)
	writeMetric(w, "webagent_image_analysis_duration_seconds_count %d\n", snap.ImageAnalysisDurationCount)
	writeMetric(w, "webagent_image_analysis_duration_seconds_sum %.6f\n", float64(snap.ImageAnalysisDurationTotalNs)/1e9)
}

func writeLabeled(w http.ResponseWriter, name, label string, values map[string]uint64) {
	for _, key := range sortedKeys(values) {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, key, values[key])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
