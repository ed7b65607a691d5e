package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_outcomes_total",
			Help: "Settlement outcomes by channel and result (committed or rejection reason)",
		},
		[]string{"channel", "outcome"},
	)

	commitAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_commit_attempts_total",
			Help: "Read-validate-write cycles run by the committer",
		},
		[]string{"channel"},
	)

	priceMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_price_mismatch_total",
		Help: "Submitted totals rejected by reconciliation",
	})

	integrityMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_integrity_mismatch_total",
		Help: "Orders whose stored hash no longer matches",
	})
)

func ObserveHTTP(method, path string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(float64(d.Milliseconds()))
}

func Settlement(channel, outcome string) {
	settlements.WithLabelValues(channel, outcome).Inc()
}

func CommitAttempt(channel string) {
	commitAttempts.WithLabelValues(channel).Inc()
}

func PriceMismatch() {
	priceMismatches.Inc()
}

func IntegrityMismatch() {
	integrityMismatches.Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
