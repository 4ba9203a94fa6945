package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exports per-operation counters and latencies to Prometheus.
type Recorder struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewRecorder registers the circulation collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanhub",
			Name:      "operations_total",
			Help:      "Circulation operations by name and result.",
		}, []string{"operation", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loanhub",
			Name:      "operation_duration_seconds",
			Help:      "Circulation operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(r.operations, r.latency)
	return r
}

// Observe records one completed operation. result is "ok" or an error kind.
func (r *Recorder) Observe(operation, result string, elapsed time.Duration) {
	r.operations.WithLabelValues(operation, result).Inc()
	r.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}
