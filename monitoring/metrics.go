package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniapp_actions_total",
			Help: "Dispatched mini-app actions by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	ClaimRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniapp_claim_rejections_total",
			Help: "Claim rejections by reason code",
		},
		[]string{"reason"},
	)
)
