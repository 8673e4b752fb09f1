// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger ─────────────────────────────────────────────────────────────────

var TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "budgetviz",
	Subsystem: "ledger",
	Name:      "transactions_created_total",
	Help:      "Transactions added to the ledger, by kind.",
}, []string{"kind"})

var TransactionsEdited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "budgetviz",
	Subsystem: "ledger",
	Name:      "transactions_edited_total",
	Help:      "Transactions rewritten by an edit, by scope.",
}, []string{"scope"})

var TransactionsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "budgetviz",
	Subsystem: "ledger",
	Name:      "transactions_deleted_total",
	Help:      "Transactions removed from the ledger, by scope.",
}, []string{"scope"})

var LedgerSize = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "budgetviz",
	Subsystem: "ledger",
	Name:      "transactions",
	Help:      "Current number of transactions in the ledger.",
})

// ─── Budgets ────────────────────────────────────────────────────────────────

var BudgetSaves = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "budgetviz",
	Subsystem: "budget",
	Name:      "saves_total",
	Help:      "Budgets saved for a month.",
})

var BudgetMonths = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "budgetviz",
	Subsystem: "budget",
	Name:      "months",
	Help:      "Number of months with a stored budget.",
})

// ─── Persistence ────────────────────────────────────────────────────────────

var PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "budgetviz",
	Subsystem: "store",
	Name:      "persistence_failures_total",
	Help:      "Failed writes of a collection to the backing store.",
}, []string{"collection"})

var NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "budgetviz",
	Subsystem: "amqp",
	Name:      "publish_failures_total",
	Help:      "Collection change notifications that could not be published.",
}, []string{"collection"})

var MirrorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "budgetviz",
	Subsystem: "worker",
	Name:      "mirror_runs_total",
	Help:      "Mirror runs by collection and outcome.",
}, []string{"collection", "outcome"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "budgetviz",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern and status class.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "budgetviz",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
})

var SuspiciousRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "budgetviz",
	Subsystem: "http",
	Name:      "suspicious_requests_total",
	Help:      "Requests matching a known probing pattern, by reason.",
}, []string{"reason"})

// StatusClass buckets an HTTP status as 2xx, 3xx, 4xx or 5xx.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
