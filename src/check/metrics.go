// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a [Runner].
// A nil *Metrics records nothing.
type Metrics struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	panicsTotal   *prometheus.CounterVec
}

// NewMetrics creates the collectors under the given namespace.
// Register them with [Metrics.MustRegister].
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Number of completed checks by type and status.",
			},
			[]string{"check_type", "status"},
		),
		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "check_duration_seconds",
				Help:      "Wall-clock duration of checks by type.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
			},
			[]string{"check_type"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "checks_in_flight",
				Help:      "Number of checks currently running.",
			},
		),
		panicsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_panics_total",
				Help:      "Number of panics recovered while running checks.",
			},
			[]string{"check_type"},
		),
	}
}

// Collectors returns every collector held by m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.checksTotal, m.checkDuration, m.inFlight, m.panicsTotal}
}

// MustRegister registers the collectors with reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.Collectors()...)
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finished(checkType string, status Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.checksTotal.WithLabelValues(checkType, string(status)).Inc()
	m.checkDuration.WithLabelValues(checkType).Observe(elapsed.Seconds())
}

func (m *Metrics) panicked(checkType string) {
	if m == nil {
		return
	}
	m.panicsTotal.WithLabelValues(checkType).Inc()
}
