package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exports solver activity to Prometheus. It satisfies
// solver.Instrumentation and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	steps     prometheus.Counter
	rejected  prometheus.Counter
	events    *prometheus.CounterVec
	stepSize  prometheus.Histogram
	runs      *prometheus.CounterVec
	durations prometheus.Histogram
}

// NewRecorder registers its collectors on a fresh registry so several
// recorders can coexist in one process.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astroprop_steps_total",
			Help: "Total number of accepted integration steps.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astroprop_steps_rejected_total",
			Help: "Total number of steps rejected by adaptive error control.",
		}),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astroprop_events_total",
				Help: "Total number of event conditions satisfied.",
			},
			[]string{"condition"},
		),
		stepSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "astroprop_step_size_seconds",
			Help:    "Magnitude of accepted steps in simulated seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astroprop_propagations_total",
				Help: "Total number of finished propagations.",
			},
			[]string{"status"},
		),
		durations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "astroprop_propagation_duration_seconds",
			Help:    "Wall time spent per propagation.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	r.registry.MustRegister(r.steps, r.rejected, r.events, r.stepSize, r.runs, r.durations)
	return r
}

func (r *Recorder) StepAccepted(dt float64) {
	r.steps.Inc()
	if dt < 0 {
		dt = -dt
	}
	r.stepSize.Observe(dt)
}

func (r *Recorder) StepRejected() { r.rejected.Inc() }

func (r *Recorder) EventDetected(condition string) {
	r.events.WithLabelValues(condition).Inc()
}

func (r *Recorder) PropagationFinished(elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.runs.WithLabelValues(status).Inc()
	r.durations.Observe(elapsed.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
