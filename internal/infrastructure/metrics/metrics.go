package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Obligation metrics
	ObligationsCreated prometheus.Counter
	ObligationsDeleted prometheus.Counter
	InstallmentGroups  prometheus.Counter
	InstallmentCount   prometheus.Histogram
	ObligationErrors   *prometheus.CounterVec

	// Invoice metrics
	InvoicesCreated  prometheus.Counter
	InvoicesPaid     prometheus.Counter
	InvoicesReopened prometheus.Counter
	InvoiceTotal     prometheus.Histogram

	// Summary metrics
	SummaryRefreshes     *prometheus.CounterVec
	SummaryRefreshErrors prometheus.Counter
	SummaryCacheHits     *prometheus.CounterVec

	// Refresh queue metrics
	RefreshPublished prometheus.Counter
	RefreshConsumed  *prometheus.CounterVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Obligation metrics
		ObligationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_obligations_created_total",
			Help: "Total number of obligations created",
		}),
		ObligationsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_obligations_deleted_total",
			Help: "Total number of obligations deleted",
		}),
		InstallmentGroups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_installment_groups_total",
			Help: "Total number of installment groups created",
		}),
		InstallmentCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardledger_installment_count",
			Help:    "Number of installments per group",
			Buckets: []float64{1, 2, 3, 6, 10, 12, 18, 24, 36, 48},
		}),
		ObligationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_obligation_errors_total",
				Help: "Total number of obligation errors by type",
			},
			[]string{"error_type"},
		),

		// Invoice metrics
		InvoicesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_invoices_created_total",
			Help: "Total number of invoices created",
		}),
		InvoicesPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_invoices_paid_total",
			Help: "Total number of invoices marked paid",
		}),
		InvoicesReopened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_invoices_reopened_total",
			Help: "Total number of paid invoices reopened",
		}),
		InvoiceTotal: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardledger_invoice_total_minor_units",
			Help:    "Invoice totals at payment time, in minor units",
			Buckets: []float64{1000, 10000, 50000, 100000, 500000, 1000000, 5000000},
		}),

		// Summary metrics
		SummaryRefreshes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_summary_refreshes_total",
				Help: "Total summary refreshes by trigger",
			},
			[]string{"trigger"},
		),
		SummaryRefreshErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_summary_refresh_errors_total",
			Help: "Total summary refresh failures",
		}),
		SummaryCacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_summary_cache_total",
				Help: "Summary cache lookups by outcome",
			},
			[]string{"outcome"},
		),

		// Refresh queue metrics
		RefreshPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_refresh_published_total",
			Help: "Total refresh tasks published to the queue",
		}),
		RefreshConsumed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_refresh_consumed_total",
				Help: "Total refresh tasks consumed by outcome",
			},
			[]string{"outcome"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cardledger_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),
	}
}
