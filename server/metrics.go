package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	replies  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dolarito",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat proxy requests by responder and status.",
		}, []string{"responder", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dolarito",
			Subsystem: "chat",
			Name:      "reply_duration_seconds",
			Help:      "Time spent producing a reply.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"responder"}),
	}
	reg.MustRegister(m.replies, m.duration, collectors.NewGoCollector())
	return m
}

func (m *metrics) observeChat(responder string, status int, elapsed time.Duration) {
	m.replies.WithLabelValues(responder, strconv.Itoa(status)).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(responder).Observe(elapsed.Seconds())
	}
}
