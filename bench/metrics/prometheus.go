package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the benchmark's Prometheus metrics in a private registry.
type Recorder struct {
	reg      *prometheus.Registry
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewRecorder registers the call duration histogram and failure counter.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nnbench",
			Name:      "call_duration_seconds",
			Help:      "Duration of timed benchmark calls.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 12),
		}, []string{"method"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nnbench",
			Name:      "call_failures_total",
			Help:      "Benchmark configurations that failed or panicked.",
		}, []string{"method"}),
	}
	r.reg.MustRegister(r.duration, r.failures)
	return r
}

// Observe records one timed call.
func (r *Recorder) Observe(method string, d time.Duration) {
	r.duration.WithLabelValues(method).Observe(d.Seconds())
}

// Fail counts a failed configuration.
func (r *Recorder) Fail(method string) {
	r.failures.WithLabelValues(method).Inc()
}

// FailureCounter returns the failure counter of method.
func (r *Recorder) FailureCounter(method string) prometheus.Counter {
	return r.failures.WithLabelValues(method)
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// WriteTextfile writes every metric in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
