// Package metrics exports bot counters in Prometheus format. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gembot"

type Metrics struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	denied        prometheus.Counter
	aiRequests    *prometheus.CounterVec
	aiLatency     *prometheus.HistogramVec
	conversations *prometheus.CounterVec
	renderRetries prometheus.Counter
	activeChats   prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "events_total",
			Help:      "Handled events by state and trigger",
		},
		[]string{"state", "trigger"},
	)

	m.denied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "unauthorized_total",
			Help:      "Events rejected by the owner guard",
		},
	)

	m.aiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "Provider requests by operation and status",
		},
		[]string{"op", "status"},
	)

	m.aiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "request_latency_seconds",
			Help:      "Provider request latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"op"},
	)

	m.conversations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "conversations_total",
			Help:      "Saved and deleted conversations",
		},
		[]string{"action"},
	)

	m.renderRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "plain_text_fallbacks_total",
			Help:      "Replies resent as plain text after a markdown failure",
		},
	)

	m.activeChats = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "active_sessions",
			Help:      "Open chat sessions",
		},
	)

	m.registry.MustRegister(
		m.events,
		m.denied,
		m.aiRequests,
		m.aiLatency,
		m.conversations,
		m.renderRetries,
		m.activeChats,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Event(state, trigger string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(state, trigger).Inc()
}

func (m *Metrics) Denied() {
	if m == nil {
		return
	}
	m.denied.Inc()
}

// AIRequest records one provider call that started at start.
func (m *Metrics) AIRequest(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.aiRequests.WithLabelValues(op, status).Inc()
	m.aiLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ConversationSaved() {
	if m == nil {
		return
	}
	m.conversations.WithLabelValues("saved").Inc()
}

func (m *Metrics) ConversationDeleted() {
	if m == nil {
		return
	}
	m.conversations.WithLabelValues("deleted").Inc()
}

func (m *Metrics) PlainTextFallback() {
	if m == nil {
		return
	}
	m.renderRetries.Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeChats.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeChats.Dec()
}
