package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// WithMetrics registers request counters and latency histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		m := &metrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rodl",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Requests sent to the RODL service by operation and status code.",
			}, []string{"operation", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "rodl",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Latency of requests sent to the RODL service.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
		}
		reg.MustRegister(m.requests, m.latency)
		c.metrics = m
	}
}

func (m *metrics) observe(op, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, code).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}
