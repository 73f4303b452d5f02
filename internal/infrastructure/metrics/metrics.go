package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Entry metrics
	EntriesCreated *prometheus.CounterVec
	EntriesUpdated prometheus.Counter
	EntriesDeleted prometheus.Counter

	// Approval metrics
	EntriesResolved  *prometheus.CounterVec
	ResolveConflicts prometheus.Counter
	ResolveDuration  prometheus.Histogram

	// Notification metrics
	NotificationsCreated    *prometheus.CounterVec
	NotificationsMarkedRead prometheus.Counter
	UnreadCacheLookups      *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBRetries prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Entry metrics
		EntriesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutledger_entries_created_total",
				Help: "Total number of ledger entries created by initial status",
			},
			[]string{"status"},
		),
		EntriesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutledger_entries_updated_total",
			Help: "Total number of ledger entries updated by their owner",
		}),
		EntriesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutledger_entries_deleted_total",
			Help: "Total number of ledger entries deleted",
		}),

		// Approval metrics
		EntriesResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutledger_entries_resolved_total",
				Help: "Total number of pending entries resolved by decision",
			},
			[]string{"decision"},
		),
		ResolveConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutledger_resolve_conflicts_total",
			Help: "Resolve attempts on entries that were no longer pending",
		}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mutledger_resolve_duration_seconds",
			Help:    "Duration of resolve operations",
			Buckets: prometheus.DefBuckets,
		}),

		// Notification metrics
		NotificationsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutledger_notifications_created_total",
				Help: "Total notifications created by type",
			},
			[]string{"type"},
		),
		NotificationsMarkedRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutledger_notifications_marked_read_total",
			Help: "Total notifications flipped to read",
		}),
		UnreadCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutledger_unread_cache_lookups_total",
				Help: "Unread count cache lookups by result",
			},
			[]string{"result"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mutledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutledger_db_retries_total",
			Help: "Transactions retried after a serialization failure or deadlock",
		}),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}
