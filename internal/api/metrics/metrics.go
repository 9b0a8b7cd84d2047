// Package metrics defines and registers all custom Prometheus metrics for the
// back-office API. It is the single source of truth for metric names, labels,
// and help strings. Metrics are registered with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "backoffice"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthRejectionsTotal counts requests rejected by the authentication middleware.
// Label:
//   - reason: "missing_header", "bad_scheme", "empty_token", "invalid_token" or "expired"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected before reaching a handler.",
	},
	[]string{"reason"},
)

// ── Client metrics ────────────────────────────────────────────────────────────

// ClientMutationsTotal counts successful client writes.
// Label:
//   - op: "create", "update" or "delete"
var ClientMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_mutations_total",
		Help:      "Total number of client records created, updated or deleted.",
	},
	[]string{"op"},
)

// HistoryEntriesTotal counts audit entries written by client updates.
// Label:
//   - field: the changed field name (e.g. "status")
var HistoryEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_entries_total",
		Help:      "Total number of client history entries recorded, by field.",
	},
	[]string{"field"},
)

// ExportedRows observes the number of rows written per spreadsheet export.
var ExportedRows = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "export_rows",
		Help:      "Rows written per client spreadsheet export.",
		Buckets:   []float64{0, 10, 100, 500, 1000, 2500, 5000},
	},
)
