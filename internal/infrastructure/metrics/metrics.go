package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Rate timeline metrics
	RatesSet     *prometheus.CounterVec
	RateLookups  *prometheus.CounterVec
	RateSpread   *prometheus.HistogramVec
	RateRequests prometheus.Gauge

	// Ledger metrics
	BalanceMutations         *prometheus.CounterVec
	MutationAmount           prometheus.Histogram
	Reconciliations          prometheus.Counter
	ReconciliationMismatches prometheus.Counter

	// Alert metrics
	AlertsRaised   *prometheus.CounterVec
	AlertsResolved prometheus.Counter

	// Rate sync metrics
	RateSyncRequests *prometheus.CounterVec
	FeedFetches      *prometheus.CounterVec
	FeedDuration     prometheus.Histogram

	// Lock metrics
	LockAcquisitions *prometheus.CounterVec
	LockWaitDuration prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Rate timeline metrics
		RatesSet: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxoffice_rates_set_total",
				Help: "Total rate timeline writes by change type",
			},
			[]string{"change_type"},
		),
		RateLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxoffice_rate_lookups_total",
				Help: "Total rate lookups by outcome",
			},
			[]string{"outcome"},
		),
		RateSpread: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxoffice_rate_spread_percent",
				Help:    "Buy/sell spread of applied rates",
				Buckets: []float64{0.1, 0.5, 1, 2, 3, 5, 10},
			},
			[]string{"pair"},
		),
		RateRequests: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fxoffice_pending_rate_requests",
			Help: "Current number of pending rate update requests",
		}),

		// Ledger metrics
		BalanceMutations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxoffice_balance_mutations_total",
				Help: "Total balance mutations by change type",
			},
			[]string{"change_type"},
		),
		MutationAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxoffice_mutation_amount",
			Help:    "Absolute balance mutation amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		Reconciliations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fxoffice_reconciliations_total",
			Help: "Total successful reconciliation checks",
		}),
		ReconciliationMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fxoffice_reconciliation_mismatches_total",
			Help: "Total reconciliation checks that found drift",
		}),

		// Alert metrics
		AlertsRaised: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxoffice_alerts_raised_total",
				Help: "Total alerts raised by type and severity",
			},
			[]string{"alert_type", "severity"},
		),
		AlertsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fxoffice_alerts_resolved_total",
			Help: "Total alerts resolved",
		}),

		// Rate sync metrics
		RateSyncRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxoffice_rate_sync_requests_total",
				Help: "Total rate sync request transitions by outcome",
			},
			[]string{"outcome"},
		),
		FeedFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxoffice_feed_fetches_total",
				Help: "Total external rate feed fetches by status",
			},
			[]string{"status"},
		),
		FeedDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxoffice_feed_fetch_duration_seconds",
			Help:    "External rate feed fetch duration",
			Buckets: prometheus.DefBuckets,
		}),

		// Lock metrics
		LockAcquisitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxoffice_lock_acquisitions_total",
				Help: "Total key lock acquisitions by outcome",
			},
			[]string{"outcome"},
		),
		LockWaitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxoffice_lock_wait_duration_seconds",
			Help:    "Time spent waiting for key locks",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxoffice_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxoffice_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fxoffice_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxoffice_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
	}
}
