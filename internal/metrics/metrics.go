// Package metrics instruments the lifecycle engine with Prometheus metrics.
//
// Unlike a long-running service, a test harness is instantiated many times
// within a single process (once per test, often in parallel). Metrics are
// therefore never registered globally; a Recorder registers its collectors
// into a caller-supplied *prometheus.Registry, so callers that don't want
// metrics never pay for a global registration and callers that run many
// harnesses in parallel can give each its own registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder holds the collectors used to instrument one or more runs.
type Recorder struct {
	PhaseDuration    *prometheus.HistogramVec
	ContainersActive prometheus.Gauge
	RunsTotal        *prometheus.CounterVec
}

// NewRecorder builds a Recorder and registers its collectors into reg.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dockertest_phase_duration_seconds",
			Help:    "Duration of each lifecycle phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		ContainersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dockertest_containers_active",
			Help: "Number of containers currently started by the active run.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dockertest_runs_total",
			Help: "Total number of completed runs by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.PhaseDuration, r.ContainersActive, r.RunsTotal)
	return r
}
