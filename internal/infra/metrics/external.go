package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		externalCallsTotal,
		externalCallLatency,
	)
}

var (
	externalCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tnt_external_calls_total",
			Help: "Calls to external services (store, automation hub, mail, telegram) by result.",
		},
		[]string{"service", "op", "result"},
	)

	externalCallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tnt_external_call_duration_seconds",
			Help:    "External call latency in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "op"},
	)
)

// ObserveExternal records one call. result is typically "ok", "error" or "skipped".
func ObserveExternal(service, op, result string, took time.Duration) {
	externalCallsTotal.WithLabelValues(norm(service), norm(op), norm(result)).Inc()
	if result != "skipped" {
		externalCallLatency.WithLabelValues(norm(service), norm(op)).Observe(took.Seconds())
	}
}
