// Package metrics provides a Prometheus-backed implementation of the
// dialogux.MetricsRecorder and a handful of counters/gauges for the
// focus manager and directive processor. Metrics are entirely
// side-channel: no control-flow decision in the core depends on them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements dialogux.MetricsRecorder (structurally — dialogux
// does not import this package, avoiding a dependency from core logic
// onto the domain stack) plus a handful of focus/directive counters.
//
// Grounded on pkg/metrics/cache.go's pattern of a small typed wrapper
// around a prometheus.Registry, minus the constructor-indirection this
// SDK doesn't need (internal/metrics has no import-cycle risk, since
// internal/dialogux and internal/focus depend on nothing in this
// package — callers wire a *Recorder in as an interface value instead).
type Recorder struct {
	registry *prometheus.Registry

	uxEvents      *prometheus.CounterVec
	focusChanges  *prometheus.CounterVec
	directiveLag  prometheus.Histogram
}

// New builds a Recorder and registers its collectors with registry. Pass
// prometheus.NewRegistry() for an isolated registry, or nil to use the
// default global one.
func New(registry *prometheus.Registry) *Recorder {
	r := &Recorder{
		registry: registry,
		uxEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vassist",
			Subsystem: "dialogux",
			Name:      "events_total",
			Help:      "Count of dialog UX timer/transition events by name.",
		}, []string{"event"}),
		focusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vassist",
			Subsystem: "focus",
			Name:      "changes_total",
			Help:      "Count of focus transitions by channel and new state.",
		}, []string{"channel", "state"}),
		directiveLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vassist",
			Subsystem: "directive",
			Name:      "handle_seconds",
			Help:      "Time spent inside a directive handler's HandleDirective call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg := registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer.(*prometheus.Registry)
	}
	reg.MustRegister(r.uxEvents, r.focusChanges, r.directiveLag)

	return r
}

// RecordEvent implements dialogux.MetricsRecorder.
func (r *Recorder) RecordEvent(name string, attrs map[string]string) {
	r.uxEvents.WithLabelValues(name).Inc()
}

// RecordFocusChange records a focus transition for a channel.
func (r *Recorder) RecordFocusChange(channel, state string) {
	r.focusChanges.WithLabelValues(channel, state).Inc()
}

// ObserveDirectiveHandleSeconds records the duration of a HandleDirective
// call.
func (r *Recorder) ObserveDirectiveHandleSeconds(seconds float64) {
	r.directiveLag.Observe(seconds)
}
