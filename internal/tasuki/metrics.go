package tasuki

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// upstreamReqs counts upstream calls by operation and outcome (ok|error).
	upstreamReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasuki_upstream_requests_total",
			Help: "Total number of calls to the upstream tasuki API.",
		},
		[]string{"op", "outcome"},
	)

	upstreamLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasuki_upstream_request_duration_seconds",
			Help:    "Duration of upstream tasuki API calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(upstreamReqs, upstreamLat)
}

func observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamReqs.WithLabelValues(op, outcome).Inc()
	upstreamLat.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
