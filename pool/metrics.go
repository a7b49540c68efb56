package pool

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

type metrics struct {
	reloads  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	loaded   *prometheus.GaugeVec
}

// newMetrics registers on reg when it is not nil.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotreload",
			Name:      "reloads_total",
			Help:      "Library reloads by module and result.",
		}, []string{"module", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hotreload",
			Name:      "reload_duration_seconds",
			Help:      "Time spent unloading and loading a library.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"module"}),
		loaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hotreload",
			Name:      "loaded",
			Help:      "1 when the module holds a loaded library.",
		}, []string{"module"}),
	}
	if reg != nil {
		reg.MustRegister(m.reloads, m.duration, m.loaded)
	}
	return m
}
