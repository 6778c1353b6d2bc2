package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry metrics
	BasketCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "basket_count",
		Help: "Total number of registered baskets",
	})

	RegisteredTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "basket_registered_tokens",
		Help: "Total number of basket token registrations",
	})

	AdminOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_admin_operations_total",
			Help: "Total number of administrative operations",
		},
		[]string{"operation", "status"},
	)

	// Engine metrics
	DepositRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_deposit_requests_total",
			Help: "Total number of deposit requests",
		},
		[]string{"status"},
	)

	WithdrawRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_withdraw_requests_total",
			Help: "Total number of withdrawal requests",
		},
		[]string{"status"},
	)

	RejectedCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_rejected_calls_total",
			Help: "Total number of rejected engine calls by error",
		},
		[]string{"operation", "error", "kind"},
	)

	DepositDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_deposit_duration_seconds",
		Help:    "Deposit duration in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1},
	})

	WithdrawDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_withdraw_duration_seconds",
		Help:    "Withdrawal duration in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1},
	})

	LegsPerCall = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_legs_per_call",
		Help:    "Number of legs resolved per engine call",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
	})

	SharesMinted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_shares_minted_total",
			Help: "Total shares minted in base units",
		},
		[]string{"basket_id"},
	)

	SharesBurned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_shares_burned_total",
			Help: "Total shares burned in base units",
		},
		[]string{"basket_id"},
	)

	FeesCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_fees_collected_total",
			Help: "Total deposit fees collected in base units of the underlying mint",
		},
		[]string{"mint"},
	)

	// Ledger metrics
	LedgerCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_ledger_commits_total",
			Help: "Total number of ledger commits",
		},
		[]string{"status"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basket_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "basket_http_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
)
