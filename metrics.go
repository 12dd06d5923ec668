package shimbuild

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	resolutions prometheus.Counter
	failures    *prometheus.CounterVec
	modules     prometheus.Histogram
	diagnostics *prometheus.CounterVec
	duration    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		resolutions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shimbuild_resolutions_total",
				Help: "Number of resolution requests.",
			},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shimbuild_resolution_failures_total",
				Help: "Number of failed resolution requests by error kind.",
			},
			[]string{"kind"},
		),
		modules: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shimbuild_resolved_modules",
				Help:    "Number of modules in successful resolution results.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shimbuild_diagnostics_total",
				Help: "Number of diagnostics recorded by kind.",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shimbuild_resolution_duration_seconds",
				Help:    "Time taken to resolve a request.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	var err error
	if m.resolutions, err = register(reg, m.resolutions); err != nil {
		return nil, err
	}
	if m.failures, err = register(reg, m.failures); err != nil {
		return nil, err
	}
	if m.modules, err = register(reg, m.modules); err != nil {
		return nil, err
	}
	if m.diagnostics, err = register(reg, m.diagnostics); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, or returns the identical collector registered
// earlier so several resolvers can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// observe records one resolution. A nil receiver records nothing.
func (m *metrics) observe(res *Result, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.Inc()
	m.duration.Observe(elapsed.Seconds())
	if err != nil {
		m.failures.WithLabelValues(errorKind(err)).Inc()
		return
	}
	m.modules.Observe(float64(len(res.Modules)))
	for _, d := range res.Diagnostics {
		m.diagnostics.WithLabelValues(d.Kind.String()).Inc()
	}
}
