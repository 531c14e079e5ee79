package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for browser sessions and lookups.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SessionsLaunched *prometheus.CounterVec
	SessionsClosed   *prometheus.CounterVec
	SessionsActive   prometheus.Gauge

	Lookups        *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
}

// New creates the collectors on a private registry so that several
// instances (tests) never collide on registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SessionsLaunched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vehicledesc_browser_sessions_launched_total",
				Help: "Browser sessions launched, by portal and result",
			},
			[]string{"portal", "result"},
		),
		SessionsClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vehicledesc_browser_sessions_closed_total",
				Help: "Browser sessions torn down, by portal",
			},
			[]string{"portal"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vehicledesc_browser_sessions_active",
				Help: "Browser sessions currently running",
			},
		),
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vehicledesc_lookups_total",
				Help: "Portal lookups, by portal and outcome code",
			},
			[]string{"portal", "code"},
		),
		LookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vehicledesc_lookup_duration_seconds",
				Help:    "Portal lookup duration in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"portal"},
		),
	}
	reg.MustRegister(
		m.SessionsLaunched,
		m.SessionsClosed,
		m.SessionsActive,
		m.Lookups,
		m.LookupDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SessionLaunched records a launch attempt.
func (m *Metrics) SessionLaunched(portal string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		m.SessionsActive.Inc()
	}
	m.SessionsLaunched.WithLabelValues(portal, result).Inc()
}

// SessionClosed records a teardown.
func (m *Metrics) SessionClosed(portal string) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionsClosed.WithLabelValues(portal).Inc()
}

// LookupFinished records the outcome of a lookup. code is "OK" on success.
func (m *Metrics) LookupFinished(portal, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(portal, code).Inc()
	m.LookupDuration.WithLabelValues(portal).Observe(d.Seconds())
}
