package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloutcoin_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cloutcoin_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "endpoint"})

	PriceFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cloutcoin_price_fetch_failures_total",
		Help: "Failed crypto price index fetches",
	})

	WithdrawalSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloutcoin_withdrawal_submissions_total",
		Help: "Withdrawal submissions by outcome",
	}, []string{"result"})

	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloutcoin_backend_requests_total",
		Help: "Requests sent to the wallet backend, labeled by status code",
	}, []string{"method", "status"})
)
