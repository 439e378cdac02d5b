// Package metrics exposes prometheus instrumentation for sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so embedding applications can mount the
// handler wherever they like. All Record methods are nil-safe, so
// instrumentation stays optional.
type Metrics struct {
	registry *prometheus.Registry

	modelRequests  *prometheus.CounterVec
	modelLatency   *prometheus.HistogramVec
	retries        prometheus.Counter
	toolDispatches *prometheus.CounterVec
	liveSessions   prometheus.Gauge
	audioBytes     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.modelRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Name:      "model_requests_total",
		Help:      "Model round-trips by mode and status.",
	}, []string{"mode", "status"})

	m.modelLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "advisor",
		Name:      "model_request_duration_seconds",
		Help:      "Model round-trip latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	m.retries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "advisor",
		Name:      "model_retries_total",
		Help:      "Transient model failures that triggered a retry.",
	})

	m.toolDispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Name:      "tool_dispatches_total",
		Help:      "Tool calls dispatched, by tool and outcome.",
	}, []string{"tool", "outcome"})

	m.liveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "advisor",
		Name:      "live_sessions_active",
		Help:      "Voice sessions currently connected.",
	})

	m.audioBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Name:      "live_audio_bytes_total",
		Help:      "PCM bytes moved over the live transport, by direction.",
	}, []string{"direction"})

	m.registry.MustRegister(
		m.modelRequests,
		m.modelLatency,
		m.retries,
		m.toolDispatches,
		m.liveSessions,
		m.audioBytes,
	)
	return m
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordModelRequest(mode string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.modelRequests.WithLabelValues(mode, status).Inc()
	m.modelLatency.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) RecordToolDispatch(tool string, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.toolDispatches.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) RecordLiveSessionStart() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

func (m *Metrics) RecordLiveSessionEnd() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}

func (m *Metrics) RecordAudioBytes(direction string, n int) {
	if m == nil {
		return
	}
	m.audioBytes.WithLabelValues(direction).Add(float64(n))
}
